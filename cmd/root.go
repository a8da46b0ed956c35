package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wardlight/voterguide/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "voterguide",
	Short: "Election voter guide data pipeline",
	Long:  "Loads ward boundary polygons and a raw multi-header survey export, reconciles candidate responses to wards, and serves filterable guide data for a map front end.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
