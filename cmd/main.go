package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"panorama-service/internal/config"
	"panorama-service/internal/logger"
)

func main() {
	var (
		configFile string
		cfg        *config.Config
		log        *zap.Logger
	)

	rootCmd := &cobra.Command{
		Use:   "panorama",
		Short: "Panoramic virtual tour server and tools",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(configFile)
			if err != nil {
				return err
			}
			log, err = logger.New(cfg.Log.Level, cfg.Log.Format, "panorama-service")
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if log != nil {
				_ = log.Sync()
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("CONFIG_FILE"), "Path to configuration")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), cfg, log)
			},
		},
		tilesCommand(func() (*config.Config, *zap.Logger) { return cfg, log }),
		watchCommand(func() (*config.Config, *zap.Logger) { return cfg, log }),
		tourCommand(func() (*config.Config, *zap.Logger) { return cfg, log }),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
