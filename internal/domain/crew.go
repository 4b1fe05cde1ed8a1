package domain

import (
	"encoding/json"
	"errors"
	"sort"
	"time"
)

var (
	ErrRoleNotRequested    = errors.New("role is not requested by this crew")
	ErrRoleFilled          = errors.New("role is already filled")
	ErrRoleBelowHeld       = errors.New("role count is below the slots already offered or accepted")
	ErrWorkerUnavailable   = errors.New("worker is already booked during this crew's time window")
	ErrWorkerAlreadyOnCrew = errors.New("worker already holds a slot on this crew")
)

const (
	ShiftTypeSetup  = "Setup"
	ShiftTypeShow   = "Show"
	ShiftTypeStrike = "Strike"
)

var ShiftTypes = []string{ShiftTypeSetup, ShiftTypeShow, ShiftTypeStrike}

// Crew is a staffing request for one event time window.
type Crew struct {
	ID          int64            `json:"id"`
	EventID     int64            `json:"eventID"`
	StartTime   time.Time        `json:"startTime"`
	EndTime     time.Time        `json:"endTime"`
	Roles       map[string]int32 `json:"roles"` // role -> required count
	ShiftTypes  []string         `json:"shiftTypes"`
	Description string           `json:"description"`
	Assignments []CrewAssignment `json:"assignments"`
	CreatedAt   time.Time        `json:"createdAt"`
	Version     int32            `json:"-"`
}

// ParseRoles decodes a stored role requirement map. Roles with a
// non-positive count are dropped.
func ParseRoles(raw []byte) (map[string]int32, error) {
	roles := map[string]int32{}
	if len(raw) == 0 {
		return roles, nil
	}

	if err := json.Unmarshal(raw, &roles); err != nil {
		return nil, err
	}

	for role, count := range roles {
		if count <= 0 {
			delete(roles, role)
		}
	}
	return roles, nil
}

// GetRoles returns a copy of the required role counts.
func (c *Crew) GetRoles() map[string]int32 {
	roles := make(map[string]int32, len(c.Roles))
	for role, count := range c.Roles {
		if count > 0 {
			roles[role] = count
		}
	}
	return roles
}

// RoleBelowHeld names a role whose new count would drop under its held
// slots. A role removed from roles counts as zero.
type RoleBelowHeld struct {
	Role string
	Held int32
}

func (e *RoleBelowHeld) Error() string {
	return "role " + e.Role + " " + ErrRoleBelowHeld.Error()
}

func (e *RoleBelowHeld) Unwrap() error {
	return ErrRoleBelowHeld
}

// SetRoles replaces the required role counts. Held slots cannot be taken
// away, so a role may not drop below its offered and accepted assignments.
func (c *Crew) SetRoles(roles map[string]int32) error {
	for _, role := range SortedRoleNames(c.GetRoles()) {
		if held := c.AssignedRoleCount(role); roles[role] < held {
			return &RoleBelowHeld{Role: role, Held: held}
		}
	}

	c.Roles = make(map[string]int32, len(roles))
	for role, count := range roles {
		c.Roles[role] = count
	}
	return nil
}

// AssignedRoleCount counts offered and accepted assignments for role.
func (c *Crew) AssignedRoleCount(role string) int32 {
	var n int32
	for _, a := range c.Assignments {
		if a.Role == role && a.Status.Holds() {
			n++
		}
	}
	return n
}

// UnassignedRoles returns the open slots per role. Satisfied roles are omitted,
// so every returned count is positive.
func (c *Crew) UnassignedRoles() map[string]int32 {
	open := map[string]int32{}
	for role, required := range c.GetRoles() {
		if left := required - c.AssignedRoleCount(role); left > 0 {
			open[role] = left
		}
	}
	return open
}

func (c *Crew) IsFulfilled() bool {
	for role, required := range c.GetRoles() {
		if c.AssignedRoleCount(role) < required {
			return false
		}
	}
	return true
}

// AssignWorker offers a slot of role to the worker. The crew's assignment list
// is extended with the new offer so later calls see the reduced capacity.
func (c *Crew) AssignWorker(workerID int64, role string) (*CrewAssignment, error) {
	required, ok := c.GetRoles()[role]
	if !ok {
		return nil, ErrRoleNotRequested
	}
	if c.AssignedRoleCount(role) >= required {
		return nil, ErrRoleFilled
	}
	for _, a := range c.Assignments {
		if a.WorkerID == workerID && a.Status.Holds() {
			return nil, ErrWorkerAlreadyOnCrew
		}
	}

	a := CrewAssignment{
		CrewID:   c.ID,
		WorkerID: workerID,
		Role:     role,
		Status:   AssignmentOffered,
	}
	c.Assignments = append(c.Assignments, a)

	return &c.Assignments[len(c.Assignments)-1], nil
}

// Overlaps reports whether the crew window intersects [start, end).
func (c *Crew) Overlaps(start, end time.Time) bool {
	return c.StartTime.Before(end) && start.Before(c.EndTime)
}

func (c *Crew) Hours() float64 {
	return c.EndTime.Sub(c.StartTime).Hours()
}

// SortedRoleNames is used wherever open slots are processed in a stable order.
func SortedRoleNames(roles map[string]int32) []string {
	names := make([]string, 0, len(roles))
	for role := range roles {
		names = append(names, role)
	}
	sort.Strings(names)
	return names
}
