package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCrewAssignment_Transition(t *testing.T) {
	tests := []struct {
		name    string
		from    AssignmentStatus
		to      AssignmentStatus
		wantErr bool
	}{
		{"offered to accepted", AssignmentOffered, AssignmentAccepted, false},
		{"offered to rejected", AssignmentOffered, AssignmentRejected, false},
		{"offered to offered", AssignmentOffered, AssignmentOffered, true},
		{"accepted to rejected", AssignmentAccepted, AssignmentRejected, true},
		{"rejected to accepted", AssignmentRejected, AssignmentAccepted, true},
		{"unknown target", AssignmentOffered, AssignmentStatus("revoked"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &CrewAssignment{Status: tt.from}
			err := a.Transition(tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, a.Status)
				assert.Nil(t, a.RespondedAt)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, a.Status)
			assert.NotNil(t, a.RespondedAt)
		})
	}
}

func TestAssignmentStatus_Holds(t *testing.T) {
	assert.True(t, AssignmentOffered.Holds())
	assert.True(t, AssignmentAccepted.Holds())
	assert.False(t, AssignmentRejected.Holds())
}
