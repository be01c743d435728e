// Package cli provides the sqlward command-line interface: small
// inspection and execution commands layered over the engine.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlward/sqlward/internal/config"
	"github.com/sqlward/sqlward/pkg/conn"
	"github.com/sqlward/sqlward/pkg/engine"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

var (
	cfgFile string
	cfg     *config.Config
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "sqlward",
		Short:   "SQLWard - schema-validated SQL statement engine",
		Long:    `SQLWard builds and executes parameterized SQL statements, validating every table and column name against the live database schema before it reaches SQL text.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" || cmd.Name() == "__complete" {
				return nil
			}
			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			return cfg.Validate()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./sqlward.yaml)")
	rootCmd.PersistentFlags().String("host", "", "database host")
	rootCmd.PersistentFlags().Int("port", 0, "database port")
	rootCmd.PersistentFlags().String("user", "", "database user")
	rootCmd.PersistentFlags().String("password", "", "database password")
	rootCmd.PersistentFlags().String("database", "", "database name")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewTablesCommand())
	rootCmd.AddCommand(NewDescribeCommand())
	rootCmd.AddCommand(NewExecCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger builds the CLI logger; verbose enables debug output.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if cfg != nil && cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openEngine connects per the loaded config and wraps the session in an
// engine. The returned cleanup closes both the engine and the pool.
func openEngine(ctx context.Context) (*engine.Engine, func(), error) {
	log := newLogger()
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLife)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdle)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c, err := conn.New(ctx, db, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	eng := engine.New(c, cfg.Database, log)
	cleanup := func() {
		_ = eng.Close()
		_ = db.Close()
	}
	return eng, cleanup, nil
}
