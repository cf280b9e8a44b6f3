package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/couchcryptid/bird-observation-etl/internal/adapter/sqlstore"
	"github.com/couchcryptid/bird-observation-etl/internal/config"
	"github.com/couchcryptid/bird-observation-etl/internal/observability"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v          *viper.Viper
	cfg        *config.Config
	logger     *slog.Logger
	newMetrics func() *observability.Metrics
}

func newRootCommand() *cobra.Command {
	return newRootCommandFor(&app{v: config.New(), newMetrics: observability.NewMetrics})
}

func newRootCommandFor(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "birdetl",
		Short:         "Load bird monitoring workbooks into a relational table and report on it",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file, same as "+config.ConfigFileEnv)
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: json or text")
	flags.String("db-driver", "", "store driver: postgres or sqlite")
	flags.String("db-host", "", "postgres host")
	flags.Int("db-port", 0, "postgres port")
	flags.String("db-name", "", "postgres database")
	flags.String("db-user", "", "postgres user")
	flags.String("db-path", "", "sqlite database file")
	flags.String("db-table", "", "observation table name")
	bindFlags(a.v, flags)

	root.AddCommand(
		newIngestCommand(a),
		newReportCommand(a),
		newServeCommand(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadFrom(a.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) openStore(ctx context.Context) (*sqlstore.Store, error) {
	return sqlstore.Open(ctx, sqlstore.ConfigFrom(a.cfg), a.logger)
}

// bindFlags binds each flag to the config key of the same name, so a flag
// given on the command line overrides the environment and the config file.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if f.Name == "config" {
			key = strings.ToLower(config.ConfigFileEnv)
		}
		// BindPFlag only fails on a nil flag.
		_ = v.BindPFlag(key, f)
	})
}
