package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chararchive/internal/config"
	"chararchive/internal/imageserver"
	"chararchive/internal/images"
	"chararchive/internal/mcp"
	"chararchive/internal/store"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio together with the image server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
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

	imageSvc := newImageService(cfg, db, logger)
	if err := imageSvc.Start(ctx); err != nil {
		return err
	}

	linker := images.Linker{
		Resolver:    newResolver(cfg),
		ContentRoot: cfg.ImageRoot,
		BaseURL:     imageSvc.BaseURL(),
	}
	server := mcp.NewServer(newSearchService(cfg, db, logger), db, linker, version)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer cancel()
		return server.Run(gctx, &sdk.StdioTransport{})
	})
	g.Go(func() error {
		<-gctx.Done()
		return stopImageService(imageSvc)
	})
	return g.Wait()
}

func newImageService(cfg *config.ProjectConfig, defs store.DefinitionFinder, logger *zap.Logger) *imageserver.Service {
	handler := imageserver.NewHandler(cfg.ImageRoot, defs, logger)
	return imageserver.New(handler, imageserver.Options{
		Addr:        cfg.ImageServer.Addr,
		ExternalURL: cfg.ImageServer.ExternalURL,
		Logger:      logger,
	})
}

func stopImageService(svc *imageserver.Service) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return svc.Stop(ctx)
}
