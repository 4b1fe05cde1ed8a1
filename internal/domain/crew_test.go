package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCrew(roles map[string]int32) *Crew {
	start := time.Date(2024, 7, 5, 10, 0, 0, 0, time.UTC)
	return &Crew{
		ID:        1,
		EventID:   1,
		StartTime: start,
		EndTime:   start.Add(8 * time.Hour),
		Roles:     roles,
	}
}

func TestParseRoles(t *testing.T) {
	roles, err := ParseRoles([]byte(`{"TD": 2, "Audio": 3, "Lighting": 0}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]int32{"TD": 2, "Audio": 3}, roles)

	roles, err = ParseRoles(nil)
	require.NoError(t, err)
	assert.Empty(t, roles)

	_, err = ParseRoles([]byte(`["TD"]`))
	assert.Error(t, err)
}

func TestCrew_FulfilledAfterTwoAcceptedAssignments(t *testing.T) {
	crew := newCrew(map[string]int32{"A": 2})
	assert.False(t, crew.IsFulfilled())

	for _, workerID := range []int64{10, 11} {
		a, err := crew.AssignWorker(workerID, "A")
		require.NoError(t, err)
		require.NoError(t, a.Transition(AssignmentAccepted))
	}

	assert.True(t, crew.IsFulfilled())
	assert.Equal(t, int32(2), crew.AssignedRoleCount("A"))
	assert.Empty(t, crew.UnassignedRoles())

	_, err := crew.AssignWorker(12, "A")
	assert.ErrorIs(t, err, ErrRoleFilled)
	assert.Len(t, crew.Assignments, 2)
}

func TestCrew_OfferedAssignmentsHoldSlots(t *testing.T) {
	crew := newCrew(map[string]int32{"TD": 1, "Audio": 2})

	_, err := crew.AssignWorker(1, "TD")
	require.NoError(t, err)
	_, err = crew.AssignWorker(2, "Audio")
	require.NoError(t, err)

	assert.Equal(t, map[string]int32{"Audio": 1}, crew.UnassignedRoles())
	assert.False(t, crew.IsFulfilled())

	_, err = crew.AssignWorker(3, "TD")
	assert.ErrorIs(t, err, ErrRoleFilled)
}

func TestCrew_RejectedAndRevokedDoNotCount(t *testing.T) {
	crew := newCrew(map[string]int32{"A": 1})

	a, err := crew.AssignWorker(1, "A")
	require.NoError(t, err)
	require.NoError(t, a.Transition(AssignmentRejected))
	assert.Equal(t, int32(0), crew.AssignedRoleCount("A"))
	assert.False(t, crew.IsFulfilled())

	_, err = crew.AssignWorker(2, "A")
	require.NoError(t, err)
	assert.True(t, crew.IsFulfilled())

	// revoking the offer removes the record entirely
	crew.Assignments = crew.Assignments[:1]
	assert.Equal(t, int32(0), crew.AssignedRoleCount("A"))
	assert.Equal(t, map[string]int32{"A": 1}, crew.UnassignedRoles())
}

func TestCrew_AssignWorkerUnknownRole(t *testing.T) {
	crew := newCrew(map[string]int32{"A": 1})

	_, err := crew.AssignWorker(1, "B")
	assert.ErrorIs(t, err, ErrRoleNotRequested)
	assert.Empty(t, crew.Assignments)
}

func TestCrew_AssignWorkerTwiceOnSameCrew(t *testing.T) {
	crew := newCrew(map[string]int32{"A": 1, "B": 1})

	_, err := crew.AssignWorker(1, "A")
	require.NoError(t, err)

	_, err = crew.AssignWorker(1, "B")
	assert.ErrorIs(t, err, ErrWorkerAlreadyOnCrew)
	assert.NotErrorIs(t, err, ErrWorkerUnavailable)
}

func TestCrew_SetRoles(t *testing.T) {
	t.Run("lowered to the held count", func(t *testing.T) {
		crew := newCrew(map[string]int32{"A": 2})
		_, err := crew.AssignWorker(1, "A")
		require.NoError(t, err)

		require.NoError(t, crew.SetRoles(map[string]int32{"A": 1}))
		assert.Equal(t, map[string]int32{"A": 1}, crew.GetRoles())
		assert.True(t, crew.IsFulfilled())
	})

	t.Run("lowered below the held count", func(t *testing.T) {
		crew := newCrew(map[string]int32{"A": 2})
		for _, workerID := range []int64{1, 2} {
			_, err := crew.AssignWorker(workerID, "A")
			require.NoError(t, err)
		}

		err := crew.SetRoles(map[string]int32{"A": 1})
		assert.ErrorIs(t, err, ErrRoleBelowHeld)
		var below *RoleBelowHeld
		require.ErrorAs(t, err, &below)
		assert.Equal(t, "A", below.Role)
		assert.Equal(t, int32(2), below.Held)
		assert.Equal(t, map[string]int32{"A": 2}, crew.GetRoles())
	})

	t.Run("held role dropped", func(t *testing.T) {
		crew := newCrew(map[string]int32{"A": 2, "B": 1})
		_, err := crew.AssignWorker(1, "A")
		require.NoError(t, err)

		assert.ErrorIs(t, crew.SetRoles(map[string]int32{"B": 1}), ErrRoleBelowHeld)
	})

	t.Run("rejected offers do not hold", func(t *testing.T) {
		crew := newCrew(map[string]int32{"A": 2})
		a, err := crew.AssignWorker(1, "A")
		require.NoError(t, err)
		require.NoError(t, a.Transition(AssignmentRejected))

		require.NoError(t, crew.SetRoles(map[string]int32{"B": 1}))
		assert.Equal(t, map[string]int32{"B": 1}, crew.GetRoles())
	})
}

func TestCrew_UnassignedRolesNeverNegative(t *testing.T) {
	crew := newCrew(map[string]int32{"A": 1, "B": 3})
	// assignments loaded from storage can exceed the requirement if the
	// requirement was lowered after the offers went out
	crew.Assignments = []CrewAssignment{
		{WorkerID: 1, Role: "A", Status: AssignmentAccepted},
		{WorkerID: 2, Role: "A", Status: AssignmentOffered},
		{WorkerID: 3, Role: "A", Status: AssignmentOffered},
		{WorkerID: 4, Role: "B", Status: AssignmentOffered},
	}

	open := crew.UnassignedRoles()
	assert.Equal(t, map[string]int32{"B": 2}, open)
	for role, count := range open {
		assert.Positive(t, count, role)
	}
}

func TestCrew_EmptyRequirementIsFulfilled(t *testing.T) {
	crew := newCrew(map[string]int32{})
	assert.True(t, crew.IsFulfilled())
	assert.Empty(t, crew.UnassignedRoles())
}

func TestCrew_Overlaps(t *testing.T) {
	crew := newCrew(nil)

	assert.True(t, crew.Overlaps(crew.StartTime.Add(-time.Hour), crew.StartTime.Add(time.Hour)))
	assert.True(t, crew.Overlaps(crew.StartTime.Add(time.Hour), crew.EndTime.Add(-time.Hour)))
	assert.False(t, crew.Overlaps(crew.EndTime, crew.EndTime.Add(time.Hour)))
	assert.False(t, crew.Overlaps(crew.StartTime.Add(-time.Hour), crew.StartTime))
	assert.Equal(t, 8.0, crew.Hours())
}

func TestSortedRoleNames(t *testing.T) {
	assert.Equal(t, []string{"Audio", "Lift Op", "TD"}, SortedRoleNames(map[string]int32{"TD": 1, "Audio": 2, "Lift Op": 1}))
}
