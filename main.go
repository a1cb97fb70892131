package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FACorreiaa/trip-planner/internal/pkg/config"
	"github.com/FACorreiaa/trip-planner/pkg/logger"
)

var (
	cfg *config.Config
	lg  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "trip-planner",
	Short:         "Trip planning API and place catalog tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: Error loading .env file, using environment variables")
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		lg, err = logger.New(cfg.LogLevel, zap.String("service", cfg.Observability.ServiceName))
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if lg != nil {
			_ = lg.Sync()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
