package payperiod

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var anchor = time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

func TestCalendar_Containing(t *testing.T) {
	cal, err := New(anchor, 2)
	require.NoError(t, err)

	p, err := cal.Containing(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, anchor, p.Start)
	assert.Equal(t, time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), p.End)

	// the boundary belongs to the next period
	p, err = cal.Containing(time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), p.Start)
	assert.True(t, p.Contains(p.Start))
	assert.False(t, p.Contains(p.End))

	_, err = cal.Containing(anchor.Add(-time.Second))
	assert.ErrorIs(t, err, ErrBeforeAnchor)
}

func TestCalendar_Recent(t *testing.T) {
	cal, err := New(anchor, 2)
	require.NoError(t, err)

	now := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) // inside Mar 3 - Mar 17
	periods := cal.Recent(now, 3)

	require.Len(t, periods, 3)
	assert.Equal(t, time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC), periods[0].Start)
	assert.Equal(t, time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC), periods[1].Start)
	assert.Equal(t, time.Date(2024, 2, 18, 0, 0, 0, 0, time.UTC), periods[2].Start)
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), periods[2].End)
	for _, p := range periods {
		assert.False(t, p.End.After(now))
	}
}

func TestCalendar_RecentStopsAtAnchor(t *testing.T) {
	cal, err := New(anchor, 2)
	require.NoError(t, err)

	periods := cal.Recent(time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC), 5)
	require.Len(t, periods, 1)
	assert.Equal(t, anchor, periods[0].Start)

	assert.Empty(t, cal.Recent(anchor.Add(-time.Hour), 5))
}

func TestPeriod_Label(t *testing.T) {
	p := Period{Start: anchor, End: anchor.AddDate(0, 0, 14)}
	assert.Equal(t, "2024-01-07 to 2024-01-20", p.Label())
}

func TestNew_RejectsNonPositiveLength(t *testing.T) {
	_, err := New(anchor, 0)
	assert.Error(t, err)
}
