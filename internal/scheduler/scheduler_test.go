package scheduler

import (
	"testing"
	"time"

	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func testCrew(roles map[string]int32) *domain.Crew {
	start := time.Date(2024, 7, 5, 10, 0, 0, 0, time.UTC)
	return &domain.Crew{ID: 1, StartTime: start, EndTime: start.Add(6 * time.Hour), Roles: roles}
}

func worker(id int64, roles ...string) *domain.Worker {
	return &domain.Worker{ID: id, FirstName: "W", LastName: string(rune('A' + id)), IsActive: true, Roles: roles}
}

func TestSuggest_FewestHoursFirst(t *testing.T) {
	crew := testCrew(map[string]int32{"Audio": 1})
	workers := []*domain.Worker{worker(1, "Audio"), worker(2, "Audio"), worker(3, "Audio")}
	hours := map[int64]float64{1: 20, 2: 4, 3: 4}

	got := New(crew, workers, nil, hours).Suggest()

	assert.Equal(t, []Suggestion{{Role: "Audio", WorkerID: 2, WorkerName: "W C"}}, got)
}

func TestSuggest_SkipsBusyInactiveAndAssigned(t *testing.T) {
	crew := testCrew(map[string]int32{"TD": 2})
	crew.Assignments = []domain.CrewAssignment{{WorkerID: 1, Role: "TD", Status: domain.AssignmentOffered}}

	inactive := worker(3, "TD")
	inactive.IsActive = false
	workers := []*domain.Worker{worker(1, "TD"), worker(2, "TD"), inactive, worker(4, "TD")}

	got := New(crew, workers, map[int64]bool{2: true}, nil).Suggest()

	assert.Len(t, got, 1)
	assert.Equal(t, int64(4), got[0].WorkerID)
}

func TestSuggest_WorkerUsedOnce(t *testing.T) {
	crew := testCrew(map[string]int32{"Audio": 1, "Video": 1})
	workers := []*domain.Worker{worker(1, "Audio", "Video"), worker(2, "Video")}

	got := New(crew, workers, nil, nil).Suggest()

	assert.Equal(t, []Suggestion{
		{Role: "Audio", WorkerID: 1, WorkerName: "W B"},
		{Role: "Video", WorkerID: 2, WorkerName: "W C"},
	}, got)
}

func TestSuggest_LeavesUnfillableSlotsOut(t *testing.T) {
	crew := testCrew(map[string]int32{"Rigger": 3})
	workers := []*domain.Worker{worker(1, "Rigger"), worker(2, "Audio")}

	got := New(crew, workers, nil, nil).Suggest()

	assert.Len(t, got, 1)
	assert.Equal(t, "Rigger", got[0].Role)
}

func TestSuggest_FulfilledCrewNeedsNothing(t *testing.T) {
	crew := testCrew(map[string]int32{"TD": 1})
	crew.Assignments = []domain.CrewAssignment{{WorkerID: 9, Role: "TD", Status: domain.AssignmentAccepted}}

	assert.Empty(t, New(crew, []*domain.Worker{worker(1, "TD")}, nil, nil).Suggest())
}
