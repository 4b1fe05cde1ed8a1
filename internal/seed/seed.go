package seed

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Store is the part of the repository seeding writes through.
type Store interface {
	GetWorkerByEmail(email string) (*domain.Worker, error)
	CreateWorker(worker *domain.Worker) error
	GetEventByShowNumber(showNumber int64) (*domain.Event, error)
	CreateEvent(event *domain.Event) error
	CreateCrew(crew *domain.Crew) error
	AssignWorker(crewID, workerID int64, role string) (*domain.CrewAssignment, error)
	UpdateAssignmentStatus(a *domain.CrewAssignment) error
}

type File struct {
	Workers []Worker `yaml:"workers"`
	Events  []Event  `yaml:"events"`
}

type Worker struct {
	FirstName      string   `yaml:"firstName"`
	LastName       string   `yaml:"lastName"`
	Email          string   `yaml:"email"`
	PhoneNumber    string   `yaml:"phoneNumber"`
	Admin          bool     `yaml:"admin"`
	AccountManager bool     `yaml:"accountManager"`
	Roles          []string `yaml:"roles"`
}

type Event struct {
	ShowName       string `yaml:"showName"`
	ShowNumber     int64  `yaml:"showNumber"`
	AccountManager string `yaml:"accountManager"` // e-mail of a seeded or existing worker
	Location       string `yaml:"location"`
	Inactive       bool   `yaml:"inactive"`
	Crews          []Crew `yaml:"crews"`
}

type Crew struct {
	Start       time.Time        `yaml:"start"`
	End         time.Time        `yaml:"end"`
	Roles       map[string]int32 `yaml:"roles"`
	ShiftTypes  []string         `yaml:"shiftTypes"`
	Description string           `yaml:"description"`
	Assignments []Assignment     `yaml:"assignments"`
}

type Assignment struct {
	Worker string                  `yaml:"worker"` // e-mail
	Role   string                  `yaml:"role"`
	Status domain.AssignmentStatus `yaml:"status"`
}

// Result counts what a seeding run created.
type Result struct {
	Workers     int
	Events      int
	Crews       int
	Assignments int
}

func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, err
	}

	return f, nil
}

// Apply writes the file through store. Workers whose e-mail already exists and
// events whose show number already exists are reused rather than duplicated.
// New workers get password with the temporary flag set.
func Apply(store Store, f *File, password string) (*Result, error) {
	res := &Result{}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	workers := make(map[string]*domain.Worker)
	for _, w := range f.Workers {
		if err := utils.ValidateWorkerRoles(w.Roles); err != nil {
			return res, fmt.Errorf("worker %s: %w", w.Email, err)
		}

		existing, err := store.GetWorkerByEmail(w.Email)
		switch {
		case err == nil:
			workers[w.Email] = existing
			continue
		case !errors.Is(err, sql.ErrNoRows):
			return res, err
		}

		worker := &domain.Worker{
			FirstName:        w.FirstName,
			LastName:         w.LastName,
			Email:            w.Email,
			PhoneNumber:      w.PhoneNumber,
			PasswordHash:     string(passwordHash),
			PasswordIsTemp:   true,
			IsAdmin:          w.Admin,
			IsAccountManager: w.AccountManager,
			Roles:            w.Roles,
		}
		if err := store.CreateWorker(worker); err != nil {
			return res, fmt.Errorf("worker %s: %w", w.Email, err)
		}
		workers[w.Email] = worker
		res.Workers++
	}

	lookup := func(email string) (*domain.Worker, error) {
		if w, ok := workers[email]; ok {
			return w, nil
		}
		w, err := store.GetWorkerByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("worker %s: %w", email, err)
		}
		workers[email] = w
		return w, nil
	}

	for _, e := range f.Events {
		event, err := store.GetEventByShowNumber(e.ShowNumber)
		switch {
		case err == nil:
			slog.Info("event already exists", slog.Int64("showNumber", e.ShowNumber))
		case errors.Is(err, sql.ErrNoRows):
			event = &domain.Event{
				ShowName:   e.ShowName,
				ShowNumber: e.ShowNumber,
				Location:   e.Location,
				Active:     !e.Inactive,
			}
			if e.AccountManager != "" {
				am, err := lookup(e.AccountManager)
				if err != nil {
					return res, err
				}
				if !am.IsAccountManager {
					return res, fmt.Errorf("event %d: %s is not an account manager", e.ShowNumber, am.Email)
				}
				event.AccountManagerID = &am.ID
			}
			if err := store.CreateEvent(event); err != nil {
				return res, fmt.Errorf("event %d: %w", e.ShowNumber, err)
			}
			res.Events++
		default:
			return res, err
		}

		for _, c := range e.Crews {
			crew := &domain.Crew{
				EventID:     event.ID,
				StartTime:   c.Start,
				EndTime:     c.End,
				Roles:       c.Roles,
				ShiftTypes:  c.ShiftTypes,
				Description: c.Description,
			}
			if err := utils.ValidateCrew(crew); err != nil {
				return res, fmt.Errorf("event %d crew: %w", e.ShowNumber, err)
			}
			if err := store.CreateCrew(crew); err != nil {
				return res, fmt.Errorf("event %d crew: %w", e.ShowNumber, err)
			}
			res.Crews++

			for _, a := range c.Assignments {
				if err := assign(store, crew, a, lookup); err != nil {
					return res, fmt.Errorf("event %d crew %d: %w", e.ShowNumber, crew.ID, err)
				}
				res.Assignments++
			}
		}
	}

	return res, nil
}

func assign(store Store, crew *domain.Crew, a Assignment, lookup func(string) (*domain.Worker, error)) error {
	worker, err := lookup(a.Worker)
	if err != nil {
		return err
	}

	assignment, err := store.AssignWorker(crew.ID, worker.ID, a.Role)
	if err != nil {
		return fmt.Errorf("assign %s as %s: %w", a.Worker, a.Role, err)
	}

	switch a.Status {
	case "", domain.AssignmentOffered:
		return nil
	default:
		if err := assignment.Transition(a.Status); err != nil {
			return err
		}
		return store.UpdateAssignmentStatus(assignment)
	}
}

// Random seeds n workers and n/4 (at least one) events with two crews each.
// Show numbers start at firstShowNumber.
func Random(store Store, n int, password, emailDomain string, firstShowNumber int64) (*Result, error) {
	res := &Result{}

	var managers []*domain.Worker
	for i := 0; i < n; i++ {
		worker, err := utils.GenerateRandomWorker(password, emailDomain)
		if err != nil {
			return res, err
		}
		worker.PasswordIsTemp = true
		if err := store.CreateWorker(worker); err != nil {
			slog.Error("failed to create worker", slog.String("email", worker.Email), slog.String("error", err.Error()))
			continue
		}
		if worker.IsAccountManager {
			managers = append(managers, worker)
		}
		res.Workers++
	}

	events := max(n/4, 1)
	for i := 0; i < events; i++ {
		var managerID *int64
		if len(managers) > 0 {
			managerID = &managers[i%len(managers)].ID
		}

		event := utils.GenerateRandomEvent(firstShowNumber+int64(i), managerID)
		if err := store.CreateEvent(event); err != nil {
			slog.Error("failed to create event", slog.Int64("showNumber", event.ShowNumber), slog.String("error", err.Error()))
			continue
		}
		res.Events++

		for j := 0; j < 2; j++ {
			if err := store.CreateCrew(utils.GenerateRandomCrew(event.ID)); err != nil {
				slog.Error("failed to create crew", slog.Int64("eventID", event.ID), slog.String("error", err.Error()))
				continue
			}
			res.Crews++
		}
	}

	return res, nil
}
