package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chararchive/internal/imageserver"
)

func exportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <hash>",
		Short: "Write the card image for a hash with its definition embedded",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = args[0] + ".png"
			}
			return runExport(args[0], output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to <hash>.png)")
	return cmd
}

func runExport(hash, output string) error {
	ctx := context.Background()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	loc := newResolver(cfg).Resolve(hash)
	if !loc.Found() {
		return fmt.Errorf("no image found for hash %s", hash)
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	def, err := db.FindDefinition(ctx, hash)
	if err != nil {
		return fmt.Errorf("looking up definition for %s: %w", hash, err)
	}

	body, err := imageserver.RenderCard(loc.Path, def.Document)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote %s (%s, %d bytes)\n", output, def.Source.Label(), len(body))
	return nil
}
