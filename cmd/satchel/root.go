package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/satchel/internal/logging"
	"github.com/aretw0/satchel/pkg/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "satchel",
	Short: "Satchel stores web sessions in files, Redis or host sessions",
	Long: `Satchel is a session storage library with interchangeable backends.
This tool inspects and garbage collects stored sessions and serves a demo HTTP API.

Configuration is read, in order of precedence, from flags, SATCHEL_* environment
variables (also loaded from .env), the --config file and built-in defaults.`,
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
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("driver", "", "Backend: file, redis or process")
	rootCmd.PersistentFlags().String("dir", "", "Save path of the file backend")
	rootCmd.PersistentFlags().String("server", "", "Redis server (host:port or redis:// URL)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
}

// loadConfig merges defaults, the config file, the environment and flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg, nil); err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("driver") {
		cfg.Driver, _ = cmd.Flags().GetString("driver")
	}
	if cmd.Flags().Changed("dir") {
		cfg.File.SavePath, _ = cmd.Flags().GetString("dir")
	}
	if cmd.Flags().Changed("server") {
		cfg.Redis.Server, _ = cmd.Flags().GetString("server")
	}

	return cfg, cfg.Validate()
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}
