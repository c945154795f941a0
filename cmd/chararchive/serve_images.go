package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func serveImagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-images",
		Short: "Serve card images with embedded metadata until interrupted",
		Args:  cobra.NoArgs,
		RunE:  runServeImages,
	}
}

func runServeImages(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.CheckImageRoot(); err != nil {
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	svc := newImageService(cfg, db, logger)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Serving images at %s\n", svc.BaseURL())

	<-ctx.Done()
	return stopImageService(svc)
}
