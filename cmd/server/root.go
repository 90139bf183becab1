package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pokedex/internal/platform/config"
)

func newRootCommand() *cobra.Command {
	v := config.NewViper()
	var configFile string

	cmd := &cobra.Command{
		Use:           "pokedex",
		Short:         "Serve the creature catalog API",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ReadFile(v, configFile); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "path to a YAML, JSON or TOML config file")
	flags.Int("port", config.DefaultPort, "HTTP listen port")
	flags.String("store-url", config.DefaultStoreURL, "record store: memory://, sqlite:///path or postgres://...")
	flags.String("redis-url", "", "redis URL for the orphaned media ledger")
	flags.StringSlice("allowed-origins", []string{config.DefaultAllowedOrigin}, "origins allowed to call /api")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-format", "json", "json or text")

	bindFlags(v, cmd, map[string]string{
		"port":            config.KeyPort,
		"store-url":       config.KeyStoreURL,
		"redis-url":       config.KeyRedisURL,
		"allowed-origins": config.KeyAllowedOrigins,
		"log-level":       config.KeyLogLevel,
		"log-format":      config.KeyLogFormat,
	})
	return cmd
}

// bindFlags lets an explicitly set flag override env and file values.
func bindFlags(v *viper.Viper, cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}
}
