package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/shopspring/decimal"

	"procurement/internal/core"
)

// Drafter structures a free-text materials request into requisition lines.
// It only proposes: nothing it returns is stored until a user submits it.
type Drafter struct {
	client *openai.Client
	model  shared.ResponsesModel
}

// NewDrafter returns a Drafter using the given OpenAI key. An empty model selects gpt-4o.
func NewDrafter(apiKey, model string) *Drafter {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if model == "" {
		model = string(shared.ChatModelGPT4o)
	}
	return &Drafter{client: &client, model: shared.ResponsesModel(model)}
}

// requisitionDraft is the structured output requested from the model. Quantities and
// prices are strings so the model never emits binary floating point.
type requisitionDraft struct {
	RequiredBy string      `json:"required_by" jsonschema:"description=Date the materials are needed as YYYY-MM-DD or empty if not stated"`
	Notes      string      `json:"notes" jsonschema:"description=Anything in the request that does not belong on a line"`
	Lines      []draftLine `json:"lines" jsonschema:"minItems=1"`
}

type draftLine struct {
	ItemName           string `json:"item_name"`
	Description        string `json:"description"`
	Category           string `json:"category" jsonschema:"description=Short spend category such as hardware or electrical, empty if unclear"`
	Quantity           string `json:"quantity" jsonschema:"description=Whole number of units as a string e.g. \"20\""`
	Unit               string `json:"unit" jsonschema:"description=Unit of measure such as pcs, bags, m"`
	EstimatedUnitPrice string `json:"estimated_unit_price" jsonschema:"description=Estimated price per unit as a decimal string or \"0\" if unknown"`
}

const draftPrompt = `You are a procurement assistant on a construction site.
Turn the request below into requisition lines.
Rules:
1. One line per distinct item.
2. Quantities are whole numbers written as strings (e.g. "20").
3. Prices are decimal strings (e.g. "12.50"); use "0" when no price is given.
4. Never invent items that were not asked for.

Request: %s`

// DraftRequisition calls the model and converts its answer into a validated RequisitionInput
// for projectID.
func (d *Drafter) DraftRequisition(ctx context.Context, projectID int, text string) (*core.RequisitionInput, error) {
	format, err := jsonSchemaFormat[requisitionDraft]("requisition_draft", "Lines of a construction materials requisition")
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: d.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(fmt.Sprintf(draftPrompt, text)),
		},
		Text: responses.ResponseTextConfigParam{Format: format},
	})
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}
	return parseDraft(content, projectID)
}

// parseDraft decodes the model output and converts it to engine input.
func parseDraft(content string, projectID int) (*core.RequisitionInput, error) {
	var draft requisitionDraft
	if err := json.Unmarshal([]byte(content), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	return draft.toInput(projectID)
}

func (d requisitionDraft) toInput(projectID int) (*core.RequisitionInput, error) {
	input := &core.RequisitionInput{
		ProjectID: projectID,
		Notes:     strings.TrimSpace(d.Notes),
	}
	if s := strings.TrimSpace(d.RequiredBy); s != "" {
		if t, err := parseDay(s); err == nil {
			input.RequiredBy = &t
		}
	}

	for i, l := range d.Lines {
		qty, err := decimal.NewFromString(strings.TrimSpace(l.Quantity))
		if err != nil {
			return nil, &core.ValidationError{
				Field:   fmt.Sprintf("lines[%d].quantity", i),
				Message: fmt.Sprintf("assistant returned a non-numeric quantity %q", l.Quantity),
			}
		}
		price := decimal.Zero
		if p := strings.TrimSpace(l.EstimatedUnitPrice); p != "" {
			if price, err = decimal.NewFromString(p); err != nil {
				return nil, &core.ValidationError{
					Field:   fmt.Sprintf("lines[%d].estimated_unit_price", i),
					Message: fmt.Sprintf("assistant returned a non-numeric price %q", l.EstimatedUnitPrice),
				}
			}
		}
		input.Lines = append(input.Lines, core.RequisitionLineInput{
			ItemName:           strings.TrimSpace(l.ItemName),
			Description:        strings.TrimSpace(l.Description),
			Category:           strings.ToLower(strings.TrimSpace(l.Category)),
			Quantity:           qty,
			Unit:               strings.TrimSpace(l.Unit),
			EstimatedUnitPrice: price,
		})
	}

	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("draft validation failed: %w", err)
	}
	return input, nil
}
