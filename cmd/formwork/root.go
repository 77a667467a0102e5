package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/formwork/internal/cli"
	"github.com/aretw0/formwork/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "formwork",
	Short: "Formwork drives multi-step resource creation flows",
	Long: `Formwork serves dynamic form schemas for creating and browsing cloud resources.
Clients start a flow from a feature, fill the fields it offers and complete it.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().Bool("no-aws", false, "Disable the AWS domains")
}

// loadConfig resolves the configuration from file, environment and flags,
// in increasing precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
	if v, _ := cmd.Flags().GetBool("no-aws"); v {
		cfg.AWSEnabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := cli.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// buildApp loads the configuration and wires the engine.
func buildApp(cmd *cobra.Command) (*cli.App, *config.Config, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	app, err := cli.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialize formwork: %w", err)
	}
	return app, cfg, logger, nil
}
