package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/ledger"
	"fintrack/internal/service"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

var verbose = flag.Bool("v", false, "log to stderr")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	app := &cli.App{Out: os.Stdout, Err: os.Stderr}
	cli.Register(commander, app)
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	if *verbose {
		logger.SetOutput(os.Stderr)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.SetOutput(os.Stderr)
		logger.Fatalf("config: %v", err)
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if app.Oversell, err = ledger.ParseOversellPolicy(cfg.OversellPolicy); err != nil {
		logger.SetOutput(os.Stderr)
		logger.Fatalf("config: %v", err)
	}
	app.Currency = cfg.Currency

	ctx := context.Background()
	store, err := database.OpenStore(ctx, cfg.PostgresURL, cfg.DataDir, logger)
	if err != nil {
		logger.SetOutput(os.Stderr)
		logger.Fatalf("store open failed: %v", err)
	}
	app.Store = store

	if cfg.FinnhubAPIKey != "" {
		provider := service.NewFinnhub(cfg.QuoteBaseURL, cfg.FinnhubAPIKey, cfg.QuoteTimeout)
		// One-shot commands never hit the cache twice.
		quotes, err := service.NewQuoteService(provider, store, 0, cfg.QuoteTimeout, logger)
		if err != nil {
			logger.SetOutput(os.Stderr)
			logger.Fatalf("quote service: %v", err)
		}
		app.Quotes = quotes
	}

	status := commander.Execute(ctx)
	if q, ok := app.Quotes.(*service.QuoteService); ok {
		q.Close()
	}
	store.Close()
	os.Exit(int(status))
}
