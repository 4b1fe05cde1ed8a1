package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/repository"
	"github.com/spf13/cobra"
)

type eventBackup struct {
	*domain.Event
	Crews     []*domain.Crew     `json:"crews"`
	Notes     []*domain.Note     `json:"notes"`
	Documents []*domain.Document `json:"documents"`
}

type backup struct {
	CreatedAt time.Time          `json:"createdAt"`
	Workers   []*domain.Worker   `json:"workers"`
	Events    []eventBackup      `json:"events"`
	Shifts    []*domain.Shift    `json:"shifts"`
	Expenses  []*domain.Expense  `json:"expenses"`
	HelpPosts []*domain.HelpPost `json:"helpPosts"`
}

func collectBackup(repo *repository.Repository) (*backup, error) {
	b := &backup{CreatedAt: time.Now()}

	var err error
	if b.Workers, err = repo.GetAllWorkers(); err != nil {
		return nil, err
	}

	events, err := repo.GetAllEvents(false)
	if err != nil {
		return nil, err
	}
	for _, event := range events {
		eb := eventBackup{Event: event}
		if eb.Crews, err = repo.GetCrewsByEventID(event.ID); err != nil {
			return nil, err
		}
		if eb.Notes, err = repo.GetNotesByEventID(event.ID); err != nil {
			return nil, err
		}
		if eb.Documents, err = repo.GetDocumentsByEventID(event.ID); err != nil {
			return nil, err
		}
		b.Events = append(b.Events, eb)
	}

	all := domain.LedgerScope{All: true}
	if b.Shifts, err = repo.GetShifts(all, time.Time{}, time.Time{}); err != nil {
		return nil, err
	}
	if b.Expenses, err = repo.GetExpenses(all, time.Time{}, time.Time{}); err != nil {
		return nil, err
	}
	if b.HelpPosts, err = repo.GetHelpPosts(); err != nil {
		return nil, err
	}

	return b, nil
}

func backupCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Dump the database as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := collectBackup(a.repo)
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			if err := enc.Encode(b); err != nil {
				return err
			}

			slog.Info("backup written", slog.String("out", out), slog.Int("workers", len(b.Workers)), slog.Int("events", len(b.Events)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file, stdout when empty")
	return cmd
}
