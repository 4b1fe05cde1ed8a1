package repository

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/showbase-dev/showbase/backend/internal/config"
	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// idListConverter lets the crew ID lists bound to ANY($1) through to the mock.
type idListConverter struct{}

func (idListConverter) ConvertValue(v any) (driver.Value, error) {
	if ids, ok := v.([]int64); ok {
		return ids, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(idListConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 5

	return NewRepository(cfg, db), mock
}

var (
	crewStart = time.Date(2024, 7, 5, 10, 0, 0, 0, time.UTC)
	crewEnd   = crewStart.Add(8 * time.Hour)
)

const (
	lockWorker      = `FROM workers WHERE id = .1 FOR UPDATE`
	lockCrew        = `FROM crews WHERE id = .1 FOR UPDATE`
	loadCrewMembers = `FROM crew_assignments ca JOIN workers w ON w.id = ca.worker_id WHERE ca.crew_id = ANY`
)

func workerRows(id int64, active bool, roles string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "phone_number", "password_hash", "password_is_temp",
		"is_admin", "is_account_manager", "is_active", "theme", "roles", "created_at", "version",
	}).AddRow(id, "Jo", "Doe", "jo@showbase.ca", "", "hash", false, false, false, active, domain.ThemeLight, []byte(roles), crewStart, 1)
}

func crewRows(id int64, roles string, version int32) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "event_id", "start_time", "end_time", "roles", "shift_types", "description", "created_at", "version",
	}).AddRow(id, 1, crewStart, crewEnd, []byte(roles), []byte(`["Show"]`), "", crewStart, version)
}

// heldRows returns one assignment per worker ID, all in status for role.
func heldRows(crewID int64, role string, status domain.AssignmentStatus, workerIDs ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "crew_id", "worker_id", "name", "role", "status", "assigned_at", "responded_at", "version",
	})
	for i, workerID := range workerIDs {
		rows.AddRow(int64(100+i), crewID, workerID, "Someone Else", role, string(status), crewStart, nil, 1)
	}
	return rows
}

func TestAssignWorker(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockWorker).WithArgs(7).WillReturnRows(workerRows(7, true, `["Audio"]`))
	mock.ExpectQuery(lockCrew).WithArgs(3).WillReturnRows(crewRows(3, `{"Audio": 2}`, 1))
	mock.ExpectQuery(loadCrewMembers).WillReturnRows(heldRows(3, "Audio", domain.AssignmentOffered, 8))
	mock.ExpectQuery(`SELECT EXISTS`).WithArgs(7, 3, crewStart, crewEnd).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO crew_assignments`).WithArgs(3, 7, "Audio", domain.AssignmentOffered).
		WillReturnRows(sqlmock.NewRows([]string{"id", "assigned_at", "version"}).AddRow(55, crewStart, 1))
	mock.ExpectCommit()

	a, err := repo.AssignWorker(3, 7, "Audio")
	require.NoError(t, err)
	assert.Equal(t, int64(55), a.ID)
	assert.Equal(t, domain.AssignmentOffered, a.Status)
	assert.Equal(t, "Jo Doe", a.WorkerName)
}

func TestAssignWorker_Refused(t *testing.T) {
	t.Run("inactive worker", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockWorker).WithArgs(7).WillReturnRows(workerRows(7, false, `["Audio"]`))
		mock.ExpectRollback()

		_, err := repo.AssignWorker(3, 7, "Audio")
		assert.ErrorIs(t, err, domain.ErrWorkerInactive)
	})

	t.Run("worker without the role", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockWorker).WithArgs(7).WillReturnRows(workerRows(7, true, `["TD"]`))
		mock.ExpectRollback()

		_, err := repo.AssignWorker(3, 7, "Audio")
		assert.ErrorIs(t, err, domain.ErrWorkerCannotFill)
	})

	t.Run("role filled", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockWorker).WithArgs(7).WillReturnRows(workerRows(7, true, `["Audio"]`))
		mock.ExpectQuery(lockCrew).WithArgs(3).WillReturnRows(crewRows(3, `{"Audio": 1}`, 1))
		mock.ExpectQuery(loadCrewMembers).WillReturnRows(heldRows(3, "Audio", domain.AssignmentAccepted, 8))
		mock.ExpectRollback()

		_, err := repo.AssignWorker(3, 7, "Audio")
		assert.ErrorIs(t, err, domain.ErrRoleFilled)
	})

	t.Run("already on the crew", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockWorker).WithArgs(7).WillReturnRows(workerRows(7, true, `["Audio"]`))
		mock.ExpectQuery(lockCrew).WithArgs(3).WillReturnRows(crewRows(3, `{"Audio": 2}`, 1))
		mock.ExpectQuery(loadCrewMembers).WillReturnRows(heldRows(3, "Audio", domain.AssignmentOffered, 7))
		mock.ExpectRollback()

		_, err := repo.AssignWorker(3, 7, "Audio")
		assert.ErrorIs(t, err, domain.ErrWorkerAlreadyOnCrew)
	})

	t.Run("booked elsewhere", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockWorker).WithArgs(7).WillReturnRows(workerRows(7, true, `["Audio"]`))
		mock.ExpectQuery(lockCrew).WithArgs(3).WillReturnRows(crewRows(3, `{"Audio": 2}`, 1))
		mock.ExpectQuery(loadCrewMembers).WillReturnRows(heldRows(3, "Audio", domain.AssignmentOffered))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(7, 3, crewStart, crewEnd).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		_, err := repo.AssignWorker(3, 7, "Audio")
		assert.ErrorIs(t, err, domain.ErrWorkerUnavailable)
	})
}

func TestUpdateCrew(t *testing.T) {
	update := func() *domain.Crew {
		return &domain.Crew{
			ID:         3,
			StartTime:  crewStart,
			EndTime:    crewEnd,
			Roles:      map[string]int32{"Audio": 1},
			ShiftTypes: []string{"Show"},
			Version:    4,
		}
	}

	t.Run("held slots fit", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockCrew).WithArgs(3).WillReturnRows(crewRows(3, `{"Audio": 2}`, 4))
		mock.ExpectQuery(loadCrewMembers).WillReturnRows(heldRows(3, "Audio", domain.AssignmentOffered, 8))
		mock.ExpectQuery(`UPDATE crews`).WithArgs(crewStart, crewEnd, `{"Audio":1}`, `["Show"]`, "", 3).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(5))
		mock.ExpectCommit()

		crew := update()
		require.NoError(t, repo.UpdateCrew(crew))
		assert.Equal(t, int32(5), crew.Version)
		assert.Len(t, crew.Assignments, 1)
	})

	t.Run("slot taken since the crew was loaded", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockCrew).WithArgs(3).WillReturnRows(crewRows(3, `{"Audio": 2}`, 4))
		mock.ExpectQuery(loadCrewMembers).WillReturnRows(heldRows(3, "Audio", domain.AssignmentOffered, 8, 9))
		mock.ExpectRollback()

		err := repo.UpdateCrew(update())
		var below *domain.RoleBelowHeld
		require.ErrorAs(t, err, &below)
		assert.Equal(t, "Audio", below.Role)
		assert.Equal(t, int32(2), below.Held)
	})

	t.Run("stale version", func(t *testing.T) {
		repo, mock := newMockRepository(t)

		mock.ExpectBegin()
		mock.ExpectQuery(lockCrew).WithArgs(3).WillReturnRows(crewRows(3, `{"Audio": 2}`, 6))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.UpdateCrew(update()), sql.ErrNoRows)
	})
}

func TestUpdateAssignmentStatus(t *testing.T) {
	answer := func(status domain.AssignmentStatus) *domain.CrewAssignment {
		a := &domain.CrewAssignment{ID: 55, CrewID: 3, WorkerID: 7, Role: "Audio", Status: domain.AssignmentOffered, Version: 1}
		require.NoError(t, a.Transition(status))
		return a
	}
	const answerOffer = `UPDATE crew_assignments .* WHERE id = .3 AND version = .4 AND status = 'offered'`

	t.Run("accepting records the shift", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		a := answer(domain.AssignmentAccepted)

		mock.ExpectBegin()
		mock.ExpectQuery(answerOffer).WithArgs(domain.AssignmentAccepted, a.RespondedAt, 55, 1).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
		mock.ExpectExec(`INSERT INTO shifts .* WHERE ca.id = .1`).WithArgs(55).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.UpdateAssignmentStatus(a))
		assert.Equal(t, int32(2), a.Version)
	})

	t.Run("rejecting records nothing", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		a := answer(domain.AssignmentRejected)

		mock.ExpectBegin()
		mock.ExpectQuery(answerOffer).WithArgs(domain.AssignmentRejected, a.RespondedAt, 55, 1).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(2))
		mock.ExpectCommit()

		require.NoError(t, repo.UpdateAssignmentStatus(a))
	})

	t.Run("already answered", func(t *testing.T) {
		repo, mock := newMockRepository(t)
		a := answer(domain.AssignmentAccepted)

		mock.ExpectBegin()
		mock.ExpectQuery(answerOffer).WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.UpdateAssignmentStatus(a), sql.ErrNoRows)
	})
}

func TestDeleteAssignment(t *testing.T) {
	repo, mock := newMockRepository(t)

	// the derived shift goes through ON DELETE CASCADE on shifts.crew_assignment_id
	mock.ExpectExec(`DELETE FROM crew_assignments WHERE id = .1`).WithArgs(55).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM crew_assignments WHERE id = .1`).WithArgs(56).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteAssignment(55))
	assert.ErrorIs(t, repo.DeleteAssignment(56), sql.ErrNoRows)
}
