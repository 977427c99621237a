package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trogers1052/position-valuation/internal/api"
	"github.com/trogers1052/position-valuation/internal/config"
	"github.com/trogers1052/position-valuation/internal/database"
	"github.com/trogers1052/position-valuation/internal/kafka"
	"github.com/trogers1052/position-valuation/internal/recorder"
)

func serveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and consume valuation requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	var db *database.DB
	var store recorder.RunStore
	var results api.ResultStore
	if cfg.Database.Enabled {
		var err error
		if db, err = openDB(cfg); err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(cfg.Database.Migrations); err != nil {
			return err
		}
		store, results = db, db
	}

	var publisher recorder.RunPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ResultTopic)
		defer producer.Close()
		publisher = producer
	}

	engine, closeEngine, err := newEngine(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer closeEngine()

	rec := recorder.New(store, publisher)

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()

	var consumerDone chan struct{}
	if cfg.Kafka.Enabled {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.RequestTopic, cfg.Kafka.GroupID, engine, rec)
		consumerDone = make(chan struct{})
		go func() {
			defer close(consumerDone)
			if err := consumer.Start(consumerCtx); err != nil {
				log.Error().Err(err).Msg("kafka consumer stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.SetupRoutes(api.NewHandler(engine, rec, results)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
	case <-consumerDone:
	}

	log.Info().Msg("shutting down")
	if err := drain(srv, stopConsumer, consumerDone, 10*time.Second); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

// drain stops the HTTP server, then cancels the consumer and waits for its
// in-flight message to finish so the store and producer outlive it.
// A nil done channel means no consumer was started.
func drain(srv shutdowner, stopConsumer context.CancelFunc, done <-chan struct{}, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	stopConsumer()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			log.Warn().Msg("timed out waiting for kafka consumer to stop")
		}
	}
	return err
}
