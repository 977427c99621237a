package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trogers1052/position-valuation/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("valuator failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	setupLogging(cfg.Log)

	root := &cobra.Command{
		Use:           "valuator",
		Short:         "Mark-to-market valuation of structured option positions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(cfg))
	root.AddCommand(serveCmd(cfg))
	root.AddCommand(migrateCmd(cfg))
	return root
}
