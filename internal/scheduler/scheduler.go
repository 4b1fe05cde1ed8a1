package scheduler

import (
	"slices"
	"sort"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

// Scheduler fills the open slots of one crew from a pool of workers.
type Scheduler struct {
	crew       *domain.Crew
	candidates []*candidate
}

// New prepares a scheduler. busy holds workers already booked in an
// overlapping window, hours the load each worker carries in the current
// pay period. Inactive, busy and already assigned workers never become candidates.
func New(crew *domain.Crew, workers []*domain.Worker, busy map[int64]bool, hours map[int64]float64) *Scheduler {
	s := &Scheduler{
		crew:       crew,
		candidates: make([]*candidate, 0, len(workers)),
	}

	onCrew := make(map[int64]bool)
	for _, a := range crew.Assignments {
		if a.Status.Holds() {
			onCrew[a.WorkerID] = true
		}
	}

	for _, w := range workers {
		if !w.IsActive || busy[w.ID] || onCrew[w.ID] {
			continue
		}
		s.candidates = append(s.candidates, &candidate{
			id:    w.ID,
			name:  w.FullName(),
			roles: w.Roles,
			hours: hours[w.ID],
		})
	}

	// fewest hours first, ties broken by ID so results are stable
	sort.SliceStable(s.candidates, func(i, j int) bool {
		if s.candidates[i].hours != s.candidates[j].hours {
			return s.candidates[i].hours < s.candidates[j].hours
		}
		return s.candidates[i].id < s.candidates[j].id
	})

	return s
}

// Suggest walks the open roles in name order and takes the least loaded
// capable worker for each slot. A worker is suggested at most once. Slots
// nobody can fill are left out.
func (s *Scheduler) Suggest() []Suggestion {
	open := s.crew.UnassignedRoles()
	taken := make(map[int64]bool)
	suggestions := make([]Suggestion, 0)

	for _, role := range domain.SortedRoleNames(open) {
		for slot := int32(0); slot < open[role]; slot++ {
			c := s.pick(role, taken)
			if c == nil {
				break
			}
			taken[c.id] = true
			suggestions = append(suggestions, Suggestion{
				Role:       role,
				WorkerID:   c.id,
				WorkerName: c.name,
			})
		}
	}

	return suggestions
}

func (s *Scheduler) pick(role string, taken map[int64]bool) *candidate {
	for _, c := range s.candidates {
		if !taken[c.id] && slices.Contains(c.roles, role) {
			return c
		}
	}
	return nil
}
