// Command chat-rules serves only the rule-based endpoints; no provider credential is read.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/payram/simple-chat-api/internal/app"
	"github.com/payram/simple-chat-api/internal/completion"
	"github.com/payram/simple-chat-api/internal/config"
	"github.com/payram/simple-chat-api/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg.BindFlags(flag.CommandLine)
	flag.Parse()

	logger, cleanup, err := logging.New("chat-rules", logging.Options{Dir: cfg.LogDir, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, logger, app.Options{Completer: completion.Disabled{}}).Run(ctx); err != nil {
		logger.Errorf("chat rules stopped: %v", err)
		cleanup()
		os.Exit(1)
	}
}
