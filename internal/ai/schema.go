package ai

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared/constant"
)

// generateSchema reflects T into the inline, closed JSON schema strict mode requires.
func generateSchema[T any]() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schemaJSON, err := json.Marshal(reflector.Reflect(v))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}

// jsonSchemaFormat builds the strict structured-output format for T.
func jsonSchemaFormat[T any](name, description string) (responses.ResponseFormatTextConfigUnionParam, error) {
	schema, err := generateSchema[T]()
	if err != nil {
		return responses.ResponseFormatTextConfigUnionParam{}, err
	}
	return responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Type:        constant.JSONSchema("json_schema"),
			Name:        name,
			Strict:      param.NewOpt(true),
			Schema:      schema,
			Description: param.NewOpt(description),
		},
	}, nil
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
