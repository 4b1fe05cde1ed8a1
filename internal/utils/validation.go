package utils

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

const (
	ShiftTimeLayout   = "01/02/2006 03:04 PM"
	ExpenseDateLayout = "2006-01-02"
)

// ParseShiftTime accepts either "MM/DD/YYYY hh:mm AM" or RFC 3339.
func ParseShiftTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(ShiftTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected MM/DD/YYYY hh:mm AM", s)
}

func ParseExpenseDate(s string) (time.Time, error) {
	t, err := time.Parse(ExpenseDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

func ValidateTimeWindow(start, end time.Time) error {
	if !end.After(start) {
		return errors.New("end time must be after start time")
	}
	return nil
}

// ValidateCrew checks the window, the requested roles and the shift types.
func ValidateCrew(crew *domain.Crew) error {
	if err := ValidateTimeWindow(crew.StartTime, crew.EndTime); err != nil {
		return err
	}

	for role, count := range crew.Roles {
		if !slices.Contains(domain.EventRoles, role) {
			return fmt.Errorf("unknown role %q", role)
		}
		if count < 0 {
			return fmt.Errorf("role %q has a negative count", role)
		}
	}

	seen := make(map[string]bool)
	for _, shiftType := range crew.ShiftTypes {
		if !slices.Contains(domain.ShiftTypes, shiftType) {
			return fmt.Errorf("unknown shift type %q", shiftType)
		}
		if seen[shiftType] {
			return fmt.Errorf("shift type %q is listed twice", shiftType)
		}
		seen[shiftType] = true
	}

	return nil
}

func ValidateWorkerRoles(roles []string) error {
	seen := make(map[string]bool)
	for _, role := range roles {
		if !slices.Contains(domain.EventRoles, role) {
			return fmt.Errorf("unknown role %q", role)
		}
		if seen[role] {
			return fmt.Errorf("role %q is listed twice", role)
		}
		seen[role] = true
	}
	return nil
}
