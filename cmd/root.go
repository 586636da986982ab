package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kinderslides/kinderslides/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "kinderslides",
	Short: "Find classroom-safe pictures for teaching topics",
	Long:  "Resolves item names like \"A - Apple\" to illustrations from Pixabay, checks them against their tags and an optional vision model, and records every resolution.",
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
