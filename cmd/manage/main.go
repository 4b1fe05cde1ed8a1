package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/showbase-dev/showbase/backend/internal/config"
	"github.com/showbase-dev/showbase/backend/internal/repository"
	"github.com/spf13/cobra"
)

// app holds what every subcommand needs once the root command has run.
type app struct {
	cfg    *config.Config
	dbpool *sql.DB
	repo   *repository.Repository
}

func main() {
	// logs go to stderr so a backup can be piped from stdout
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "manage",
		Short:         "Showbase maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.dbpool != nil {
				a.dbpool.Close()
			}
		},
	}

	rootCmd.AddCommand(seedCmd(a))
	rootCmd.AddCommand(backupCmd(a))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	dbpool, err := repository.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	a.cfg = cfg
	a.dbpool = dbpool
	a.repo = repository.NewRepository(cfg, dbpool)
	return nil
}
