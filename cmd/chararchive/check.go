package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the image root and the columns of every source table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck()
		},
	}
}

func runCheck() error {
	ctx := context.Background()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.CheckImageRoot(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "image root: %s ok\n", cfg.ImageRoot)

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	reports, err := db.InspectSchema(ctx)
	if err != nil {
		return err
	}

	problems := 0
	for _, r := range reports {
		switch {
		case !r.Exists:
			problems++
			fmt.Fprintf(os.Stdout, "%-10s %-28s MISSING TABLE\n", r.Source, r.Table)
		case len(r.Missing) > 0:
			problems++
			fmt.Fprintf(os.Stdout, "%-10s %-28s missing columns: %s\n", r.Source, r.Table, strings.Join(r.Missing, ", "))
		default:
			fmt.Fprintf(os.Stdout, "%-10s %-28s ok (%s)\n", r.Source, r.Table, strings.Join(r.Columns, ", "))
		}
	}
	if problems > 0 {
		return fmt.Errorf("%d source tables need attention", problems)
	}
	return nil
}
