package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dmitrijs2005/fxkeeper/internal/app"
	"github.com/dmitrijs2005/fxkeeper/internal/cli"
	"github.com/dmitrijs2005/fxkeeper/internal/config"
	"github.com/dmitrijs2005/fxkeeper/internal/logging"
	"github.com/google/subcommands"
)

func main() {
	cfg := config.LoadConfig()
	config.RegisterFlags(flag.CommandLine, cfg)
	cli.Register(subcommands.DefaultCommander)
	flag.Parse()

	ctx := context.Background()
	log := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fxkeeper: %v\n", err)
		os.Exit(1)
	}

	status := subcommands.Execute(ctx, cli.NewEnv(a))
	if err := a.Close(); err != nil {
		log.Warn(ctx, "close failed", "error", err)
	}
	os.Exit(int(status))
}
