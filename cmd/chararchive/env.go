package main

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"

	"chararchive/internal/config"
	"chararchive/internal/images"
	"chararchive/internal/logging"
	"chararchive/internal/search"
	"chararchive/internal/store/postgres"
)

const defaultConfigPath = "chararchive.yaml"

var (
	configPath = defaultConfigPath
	verbose    bool
)

func loadConfig() (*config.ProjectConfig, *zap.Logger, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func openDB(ctx context.Context, cfg *config.ProjectConfig) (*postgres.Client, error) {
	return postgres.New(ctx, cfg.Database.DSN)
}

func newResolver(cfg *config.ProjectConfig) *images.Resolver {
	return images.NewResolver(filepath.Join(cfg.ImageRoot, config.HashedDataDirectory))
}

func newSearchService(cfg *config.ProjectConfig, db search.Querier, logger *zap.Logger) *search.Service {
	return search.NewService(db, search.Options{
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxLimit:     cfg.Search.MaxLimit,
		Cache:        search.NewCache(cfg.Cache.Size, cfg.Cache.TTLOrDefault()),
		Logger:       logger,
	})
}
