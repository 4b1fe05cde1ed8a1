package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/scheduler"
	"github.com/showbase-dev/showbase/backend/internal/utils"
)

type crewView struct {
	*domain.Crew
	Fulfilled       bool             `json:"fulfilled"`
	UnassignedRoles map[string]int32 `json:"unassignedRoles"`
}

func newCrewView(crew *domain.Crew) crewView {
	return crewView{
		Crew:            crew,
		Fulfilled:       crew.IsFulfilled(),
		UnassignedRoles: crew.UnassignedRoles(),
	}
}

func crewViews(crews []*domain.Crew) []crewView {
	views := make([]crewView, 0, len(crews))
	for _, crew := range crews {
		views = append(views, newCrewView(crew))
	}
	return views
}

func (h *Handler) GetEventCrews(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(EventCtx).(*domain.Event)

	crews, err := h.repository.GetCrewsByEventID(event.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched crews", crewViews(crews))
}

func (h *Handler) CreateCrew(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(EventCtx).(*domain.Event)

	var req struct {
		StartTime   string           `json:"startTime" validate:"required"`
		EndTime     string           `json:"endTime" validate:"required"`
		Roles       map[string]int32 `json:"roles" validate:"required"`
		ShiftTypes  []string         `json:"shiftTypes"`
		Description string           `json:"description" validate:"max=1000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start, err := utils.ParseShiftTime(req.StartTime)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	end, err := utils.ParseShiftTime(req.EndTime)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	crew := &domain.Crew{
		EventID:     event.ID,
		StartTime:   start,
		EndTime:     end,
		Roles:       req.Roles,
		ShiftTypes:  req.ShiftTypes,
		Description: req.Description,
	}
	if crew.ShiftTypes == nil {
		crew.ShiftTypes = []string{}
	}

	if err := utils.ValidateCrew(crew); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateCrew(crew); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Crew created", newCrewView(crew))
}

func (h *Handler) GetCrew(w http.ResponseWriter, r *http.Request) {
	crew := r.Context().Value(CrewCtx).(*domain.Crew)
	h.successResponse(w, r, "Fetched crew", newCrewView(crew))
}

func (h *Handler) UpdateCrew(w http.ResponseWriter, r *http.Request) {
	crew := r.Context().Value(CrewCtx).(*domain.Crew)

	var req struct {
		StartTime   *string           `json:"startTime"`
		EndTime     *string           `json:"endTime"`
		Roles       *map[string]int32 `json:"roles"`
		ShiftTypes  *[]string         `json:"shiftTypes"`
		Description *string           `json:"description" validate:"omitempty,max=1000"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.StartTime != nil {
		start, err := utils.ParseShiftTime(*req.StartTime)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		crew.StartTime = start
	}
	if req.EndTime != nil {
		end, err := utils.ParseShiftTime(*req.EndTime)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		crew.EndTime = end
	}
	if req.Roles != nil {
		if err := crew.SetRoles(*req.Roles); err != nil {
			h.crewWriteError(w, r, err)
			return
		}
	}
	if req.ShiftTypes != nil {
		crew.ShiftTypes = *req.ShiftTypes
	}
	if req.Description != nil {
		crew.Description = *req.Description
	}

	if err := utils.ValidateCrew(crew); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.UpdateCrew(crew); err != nil {
		h.crewWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "Crew updated", newCrewView(crew))
}

// crewWriteError answers a failed crew update.
func (h *Handler) crewWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var below *domain.RoleBelowHeld
	switch {
	case errors.As(err, &below):
		h.errorResponse(w, r, "Revoke assignments of "+below.Role+" before lowering its count")
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "The crew was changed by someone else, please retry")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) DeleteCrew(w http.ResponseWriter, r *http.Request) {
	crew := r.Context().Value(CrewCtx).(*domain.Crew)

	if err := h.repository.DeleteCrew(crew.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Crew deleted", nil)
}

func (h *Handler) GetUnfulfilledCrews(w http.ResponseWriter, r *http.Request) {
	crews, err := h.repository.GetAllCrews()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	unfulfilled := make([]*domain.Crew, 0)
	for _, crew := range crews {
		if !crew.IsFulfilled() {
			unfulfilled = append(unfulfilled, crew)
		}
	}

	h.successResponse(w, r, "Fetched unfulfilled crews", crewViews(unfulfilled))
}

func (h *Handler) AssignWorker(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(EventCtx).(*domain.Event)
	crew := r.Context().Value(CrewCtx).(*domain.Crew)

	var req struct {
		WorkerID int64  `json:"workerID" validate:"required,gt=0"`
		Role     string `json:"role" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	worker, err := h.repository.GetWorkerByID(req.WorkerID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "Worker not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if err := worker.CheckAssignable(req.Role); err != nil {
		h.assignError(w, r, err)
		return
	}

	a, err := h.repository.AssignWorker(crew.ID, worker.ID, req.Role)
	if err != nil {
		h.assignError(w, r, err)
		return
	}

	h.mailOffer(worker, event, crew, a)

	h.successResponse(w, r, "Worker offered the role", a)
}

// suggest runs the scheduler for the crew against the current worker pool.
func (h *Handler) suggest(crew *domain.Crew) ([]scheduler.Suggestion, map[int64]*domain.Worker, error) {
	workers, err := h.repository.GetAllWorkers()
	if err != nil {
		return nil, nil, err
	}

	busy, err := h.repository.GetBusyWorkerIDs(crew.StartTime, crew.EndTime)
	if err != nil {
		return nil, nil, err
	}

	hours := map[int64]float64{}
	if period, err := h.payPeriods.Containing(time.Now()); err == nil {
		hours, err = h.repository.GetWorkerHours(period.Start, period.End)
		if err != nil {
			return nil, nil, err
		}
	}

	byID := make(map[int64]*domain.Worker, len(workers))
	for _, worker := range workers {
		byID[worker.ID] = worker
	}

	return scheduler.New(crew, workers, busy, hours).Suggest(), byID, nil
}

func (h *Handler) GetCrewSuggestions(w http.ResponseWriter, r *http.Request) {
	crew := r.Context().Value(CrewCtx).(*domain.Crew)

	suggestions, _, err := h.suggest(crew)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched suggestions", suggestions)
}

// AutoFillCrew offers every suggested slot. A slot lost to a concurrent
// change is skipped rather than failing the whole request.
func (h *Handler) AutoFillCrew(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(EventCtx).(*domain.Event)
	crew := r.Context().Value(CrewCtx).(*domain.Crew)

	suggestions, workers, err := h.suggest(crew)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	offered := make([]*domain.CrewAssignment, 0, len(suggestions))
	for _, s := range suggestions {
		a, err := h.repository.AssignWorker(crew.ID, s.WorkerID, s.Role)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrRoleFilled),
				errors.Is(err, domain.ErrWorkerUnavailable),
				errors.Is(err, domain.ErrWorkerAlreadyOnCrew),
				errors.Is(err, domain.ErrWorkerInactive):
				continue
			default:
				h.assignError(w, r, err)
				return
			}
		}
		offered = append(offered, a)
		h.mailOffer(workers[s.WorkerID], event, crew, a)
	}

	h.successResponse(w, r, "Crew auto-filled", offered)
}
