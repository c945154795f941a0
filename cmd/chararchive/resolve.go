package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chararchive/internal/images"
)

func resolveCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "resolve <hash>",
		Short: "Locate the image file stored for a content hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(args[0], debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "List every probed candidate path")
	return cmd
}

func runResolve(hash string, debug bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	resolver := newResolver(cfg)
	resolver.TraceScan = debug
	linker := images.Linker{Resolver: resolver, ContentRoot: cfg.ImageRoot, BaseURL: cfg.ImageServer.ExternalURL}
	loc, url := linker.Link(hash)

	if debug {
		for _, p := range loc.Probed {
			fmt.Fprintf(os.Stdout, "probed %s\n", p)
		}
	}
	if !loc.Found() {
		return fmt.Errorf("no image found for hash %s", hash)
	}
	fmt.Fprintln(os.Stdout, loc.Path)
	if url != "" {
		fmt.Fprintln(os.Stdout, url)
	}
	return nil
}
