package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"procurement/internal/adapters/cli"
	"procurement/internal/bootstrap"
	"procurement/internal/config"
	"procurement/internal/core"
)

func main() {
	actorID := flag.String("actor", os.Getenv("PROCUREMENT_ACTOR"), "identity recorded on state changes (env PROCUREMENT_ACTOR)")
	role := flag.String("role", "", "optional role of the actor")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: app [--actor name] <command> [args]\n\n%s\n", cli.Usage)
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(run(core.Actor{ID: *actorID, Role: *role}, flag.Args()))
}

func run(actor core.Actor, args []string) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Printf("logger: %v", err)
		return 1
	}
	defer logger.Sync()

	ctx := context.Background()
	rt, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		log.Printf("startup: %v", err)
		return 1
	}
	defer rt.Close()

	if err := cli.Run(ctx, rt.App, actor, args, os.Stdout); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			flag.Usage()
			return 2
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
