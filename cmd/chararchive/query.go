package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run diagnostic queries against the archive database",
	}
	cmd.AddCommand(querySQLCmd())
	return cmd
}
