// Package commands implements portalctl, the operator CLI for the civic
// portal.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"civic/internal/app"
	"civic/internal/platform/config"
	"civic/internal/platform/logger"
)

// timeNow is replaced in tests.
var timeNow = time.Now

var errNoDatabase = errors.New("database_url is required (flag --database-url or CIVIC_DATABASE_URL)")

// env carries the loaded configuration to subcommands.
type env struct {
	v   *viper.Viper
	cfg *config.Config
}

func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Flags override CIVIC_* variables,
// which override the YAML file named by --config.
func NewRootCmd() *cobra.Command {
	e := &env{v: config.NewViper()}
	var configFile string

	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Operate the civic portal: migrations, seed data, budget and billing tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadFile(e.v, configFile); err != nil {
				return err
			}
			cfg, err := config.Load(e.v)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			e.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", envOr("CIVIC_CONFIG", "config.yaml"), "YAML config file")
	pf.String("database-url", "", "Postgres connection URL")
	pf.String("redis-url", "", "Redis connection URL")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	bind(e.v, root, map[string]string{
		"database-url": config.KeyDatabaseURL,
		"redis-url":    config.KeyRedisURL,
		"log-level":    config.KeyLogLevel,
	})

	root.AddCommand(
		migrateCmd(e),
		seedCmd(e),
		simulateBudgetCmd(e),
		reportCmd(e),
		lateFeeCmd(e),
	)
	return root
}

func bind(v *viper.Viper, cmd *cobra.Command, flags map[string]string) {
	for flag, key := range flags {
		_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// open connects the configured backends and wires the portal. Kafka is left
// out; CLI writes do not need to reach the event stream.
func (e *env) open(ctx context.Context) (*app.App, func(), error) {
	cfg := *e.cfg
	cfg.Kafka.Brokers = nil
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)

	b, err := app.Connect(ctx, &cfg, log)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.Build(ctx, &cfg, b, log, prometheus.NewRegistry())
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return a, func() {
		a.Close(context.WithoutCancel(ctx))
		b.Close()
	}, nil
}
