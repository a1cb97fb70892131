package main

import (
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/trip-planner/internal/server"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := server.OpenDatabase(cmd.Context(), cfg, lg, true)
			if err != nil {
				return err
			}
			pool.Close()
			return nil
		},
	})
}
