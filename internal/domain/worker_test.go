package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorker_CheckAssignable(t *testing.T) {
	worker := &Worker{IsActive: true, Roles: []string{EventRoleAudio}}
	assert.NoError(t, worker.CheckAssignable(EventRoleAudio))
	assert.ErrorIs(t, worker.CheckAssignable(EventRoleTD), ErrWorkerCannotFill)

	worker.IsActive = false
	assert.ErrorIs(t, worker.CheckAssignable(EventRoleAudio), ErrWorkerInactive)
}
