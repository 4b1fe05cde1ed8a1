package domain

import (
	"errors"
	"time"
)

var ErrInvalidTransition = errors.New("assignment can no longer change to this status")

type AssignmentStatus string

const (
	AssignmentOffered  AssignmentStatus = "offered"
	AssignmentAccepted AssignmentStatus = "accepted"
	AssignmentRejected AssignmentStatus = "rejected"
)

// Holds reports whether an assignment in this status occupies a role slot.
func (s AssignmentStatus) Holds() bool {
	return s == AssignmentOffered || s == AssignmentAccepted
}

type CrewAssignment struct {
	ID          int64            `json:"id"`
	CrewID      int64            `json:"crewID"`
	WorkerID    int64            `json:"workerID"`
	WorkerName  string           `json:"workerName"`
	Role        string           `json:"role"`
	Status      AssignmentStatus `json:"status"`
	AssignedAt  time.Time        `json:"assignedAt"`
	RespondedAt *time.Time       `json:"respondedAt"`
	Version     int32            `json:"-"`
}

// Transition moves an offered assignment to accepted or rejected. Any other
// move is refused; revoking is a delete, not a transition.
func (a *CrewAssignment) Transition(to AssignmentStatus) error {
	if a.Status != AssignmentOffered {
		return ErrInvalidTransition
	}

	switch to {
	case AssignmentAccepted, AssignmentRejected:
		now := time.Now()
		a.Status = to
		a.RespondedAt = &now
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Offer is an assignment joined with the crew and event details shown to the worker.
type Offer struct {
	CrewAssignment
	EventID     int64     `json:"eventID"`
	ShowName    string    `json:"showName"`
	ShowNumber  int64     `json:"showNumber"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Description string    `json:"description"`
}
