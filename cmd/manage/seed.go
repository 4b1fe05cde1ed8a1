package main

import (
	"errors"
	"log/slog"

	"github.com/showbase-dev/showbase/backend/internal/seed"
	"github.com/spf13/cobra"
)

func seedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample data",
	}

	cmd.AddCommand(seedRandomCmd(a))
	cmd.AddCommand(seedFileCmd(a))
	return cmd
}

func logResult(res *seed.Result) {
	slog.Info("seeding finished",
		slog.Int("workers", res.Workers),
		slog.Int("events", res.Events),
		slog.Int("crews", res.Crews),
		slog.Int("assignments", res.Assignments),
	)
}

func seedRandomCmd(a *app) *cobra.Command {
	var n int
	var firstShowNumber int64

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Insert random workers, events and crews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return errors.New("--n must be positive")
			}

			res, err := seed.Random(a.repo, n, a.cfg.Seed.Worker.Password, a.cfg.Email.WorkerDomain, firstShowNumber)
			if res != nil {
				logResult(res)
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&n, "n", "n", 20, "number of workers to create")
	cmd.Flags().Int64Var(&firstShowNumber, "first-show-number", 10000, "show number of the first generated event")
	return cmd
}

func seedFileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "file <path.yaml>",
		Short: "Insert the workers, events and crews described in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := seed.Load(args[0])
			if err != nil {
				return err
			}

			res, err := seed.Apply(a.repo, f, a.cfg.Seed.Worker.Password)
			if res != nil {
				logResult(res)
			}
			return err
		},
	}
}
