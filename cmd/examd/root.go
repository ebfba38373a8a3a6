package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mind-engage/examgrade/internal/config"
	"github.com/mind-engage/examgrade/internal/db"
	"github.com/mind-engage/examgrade/internal/exam"
	"github.com/mind-engage/examgrade/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "examd",
	Short:         "Online exam delivery and grading service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("db-driver", "", "sqlite|postgres|memory (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database DSN (overrides DB_DSN)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

// loadConfig reads the environment, then applies flag overrides.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.FromEnv()
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.DBDriver = v
	}
	if v, _ := cmd.Flags().GetString("db-dsn"); v != "" {
		cfg.DBDSN = v
	}
	return cfg
}

func newLogger(cfg config.Config) *zap.Logger {
	return logger.New(logger.Options{Mode: cfg.LogMode, File: cfg.LogFile})
}

type backend struct {
	store exam.Store
	ready func(ctx context.Context) error
	close func() error
}

// openStore opens the configured backend. SQL backends get their schema
// ensured on open.
func openStore(ctx context.Context, cfg config.Config) (backend, error) {
	switch cfg.DBDriver {
	case "memory":
		return backend{store: exam.NewInMemoryStore(), close: func() error { return nil }}, nil
	case string(db.DriverSQLite), string(db.DriverPostgres):
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			return backend{}, fmt.Errorf("db open: %w", err)
		}
		return backend{
			store: exam.NewSQLStore(dbh, cfg.DBDriver),
			ready: dbh.PingContext,
			close: dbh.Close,
		}, nil
	default:
		return backend{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
