package seed

import (
	"database/sql"
	"testing"
	"time"

	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore keeps seeded records in memory and enforces crew capacity
// through domain.Crew the same way the repository does.
type memoryStore struct {
	workers     map[string]*domain.Worker
	events      map[int64]*domain.Event
	crews       map[int64]*domain.Crew
	assignments []*domain.CrewAssignment
	nextID      int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		workers: map[string]*domain.Worker{},
		events:  map[int64]*domain.Event{},
		crews:   map[int64]*domain.Crew{},
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) GetWorkerByEmail(email string) (*domain.Worker, error) {
	if w, ok := m.workers[email]; ok {
		return w, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) CreateWorker(worker *domain.Worker) error {
	worker.ID = m.id()
	worker.IsActive = true
	m.workers[worker.Email] = worker
	return nil
}

func (m *memoryStore) GetEventByShowNumber(showNumber int64) (*domain.Event, error) {
	if e, ok := m.events[showNumber]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) CreateEvent(event *domain.Event) error {
	event.ID = m.id()
	m.events[event.ShowNumber] = event
	return nil
}

func (m *memoryStore) CreateCrew(crew *domain.Crew) error {
	crew.ID = m.id()
	m.crews[crew.ID] = crew
	return nil
}

func (m *memoryStore) AssignWorker(crewID, workerID int64, role string) (*domain.CrewAssignment, error) {
	a, err := m.crews[crewID].AssignWorker(workerID, role)
	if err != nil {
		return nil, err
	}
	a.ID = m.id()
	copied := *a
	m.assignments = append(m.assignments, &copied)
	return &copied, nil
}

func (m *memoryStore) UpdateAssignmentStatus(a *domain.CrewAssignment) error {
	for _, stored := range m.assignments {
		if stored.ID == a.ID {
			*stored = *a
		}
	}
	return nil
}

func TestLoadAndApply(t *testing.T) {
	f, err := Load("testdata/sample.yaml")
	require.NoError(t, err)
	require.Len(t, f.Workers, 3)
	require.Len(t, f.Events, 1)
	assert.Equal(t, 8*time.Hour, f.Events[0].Crews[0].End.Sub(f.Events[0].Crews[0].Start))

	store := newMemoryStore()
	res, err := Apply(store, f, "TempPassword123")
	require.NoError(t, err)
	assert.Equal(t, &Result{Workers: 3, Events: 1, Crews: 1, Assignments: 2}, res)

	event := store.events[4521]
	require.NotNil(t, event.AccountManagerID)
	assert.Equal(t, store.workers["dana.roy@crew.example.com"].ID, *event.AccountManagerID)
	assert.True(t, event.Active)

	require.Len(t, store.assignments, 2)
	assert.Equal(t, domain.AssignmentAccepted, store.assignments[0].Status)
	assert.Equal(t, domain.AssignmentOffered, store.assignments[1].Status)
	assert.True(t, store.workers["sam.lee@crew.example.com"].PasswordIsTemp)
}

func TestApply_IsIdempotentForWorkersAndEvents(t *testing.T) {
	store := newMemoryStore()
	f := &File{
		Workers: []Worker{{FirstName: "Sam", LastName: "Lee", Email: "sam.lee@crew.example.com"}},
		Events:  []Event{{ShowName: "Gala", ShowNumber: 1}},
	}

	_, err := Apply(store, f, "pw")
	require.NoError(t, err)

	res, err := Apply(store, f, "pw")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Workers)
	assert.Equal(t, 0, res.Events)
	assert.Len(t, store.workers, 1)
}

func TestApply_RejectsOverfilledCrew(t *testing.T) {
	store := newMemoryStore()
	start := time.Date(2024, 7, 5, 10, 0, 0, 0, time.UTC)
	f := &File{
		Workers: []Worker{
			{FirstName: "A", LastName: "One", Email: "a@crew.example.com", Roles: []string{"Audio"}},
			{FirstName: "B", LastName: "Two", Email: "b@crew.example.com", Roles: []string{"Audio"}},
		},
		Events: []Event{{
			ShowName:   "Gala",
			ShowNumber: 1,
			Crews: []Crew{{
				Start: start,
				End:   start.Add(time.Hour),
				Roles: map[string]int32{"Audio": 1},
				Assignments: []Assignment{
					{Worker: "a@crew.example.com", Role: "Audio"},
					{Worker: "b@crew.example.com", Role: "Audio"},
				},
			}},
		}},
	}

	_, err := Apply(store, f, "pw")
	assert.ErrorIs(t, err, domain.ErrRoleFilled)
}

func TestApply_RequiresAccountManagerFlag(t *testing.T) {
	store := newMemoryStore()
	f := &File{
		Workers: []Worker{{FirstName: "Sam", LastName: "Lee", Email: "sam.lee@crew.example.com"}},
		Events:  []Event{{ShowName: "Gala", ShowNumber: 1, AccountManager: "sam.lee@crew.example.com"}},
	}

	_, err := Apply(store, f, "pw")
	assert.Error(t, err)
	assert.Empty(t, store.events)
}

func TestRandom(t *testing.T) {
	store := newMemoryStore()

	res, err := Random(store, 4, "pw", "crew.example.com", 9000)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Events)
	assert.Equal(t, 2, res.Crews)
	assert.Contains(t, store.events, int64(9000))
}
