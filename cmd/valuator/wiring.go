package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/trogers1052/position-valuation/internal/config"
	"github.com/trogers1052/position-valuation/internal/database"
	"github.com/trogers1052/position-valuation/internal/marketdata"
	"github.com/trogers1052/position-valuation/internal/valuation"
)

func setupLogging(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(cfg.Format, "console") {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// newCache prefers Redis when configured and reachable, else the on-disk cache
func newCache(ctx context.Context, cfg *config.Config) (marketdata.Cache, func(), error) {
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis market data cache")
			return marketdata.NewRedisCache(rdb, cfg.MarketData.CacheTTL), func() { rdb.Close() }, nil
		}
		rdb.Close()
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, falling back to file cache")
	}

	fc, err := marketdata.NewFileCache(cfg.MarketData.CacheDir, cfg.MarketData.CacheTTL)
	if err != nil {
		return nil, func() {}, err
	}
	return fc, func() {}, nil
}

func newProvider(cfg config.MarketDataConfig, cache marketdata.Cache) *marketdata.YahooProvider {
	return marketdata.NewYahooProvider(marketdata.YahooConfig{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		RPS:     cfg.RPS,
		Burst:   cfg.Burst,
	}, cache)
}

func newEngine(ctx context.Context, cfg *config.Config, db *database.DB) (*valuation.Engine, func(), error) {
	cache, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	engine := valuation.NewEngine(newProvider(cfg.MarketData, cache))
	if db != nil {
		engine.WithArchive(db)
	}
	return engine, closeCache, nil
}

func openDB(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
