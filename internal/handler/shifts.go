package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/report"
	"github.com/showbase-dev/showbase/backend/internal/utils"
)

// ledgerWindow returns the pay period bounds when ?payPeriod is given and
// zero times otherwise, which lists everything.
func (h *Handler) ledgerWindow(r *http.Request) (time.Time, time.Time, error) {
	if r.URL.Query().Get("payPeriod") == "" {
		return time.Time{}, time.Time{}, nil
	}

	period, err := h.selectedPeriod(r)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return period.Start, period.End, nil
}

// ledgerScope resolves the viewer's scope and the requested window.
func (h *Handler) ledgerScope(w http.ResponseWriter, r *http.Request) (domain.LedgerScope, time.Time, time.Time, bool) {
	from, to, err := h.ledgerWindow(r)
	if err != nil {
		h.badRequest(w, r, err)
		return domain.LedgerScope{}, from, to, false
	}

	viewer, err := h.viewer(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return domain.LedgerScope{}, from, to, false
	}

	return domain.ScopeFor(viewer), from, to, true
}

func (h *Handler) GetShifts(w http.ResponseWriter, r *http.Request) {
	scope, from, to, ok := h.ledgerScope(w, r)
	if !ok {
		return
	}

	shifts, err := h.repository.GetShifts(scope, from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched shifts", shifts)
}

func (h *Handler) GetTimesheetReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	scope, from, to, ok := h.ledgerScope(w, r)
	if !ok {
		return
	}

	shifts, err := h.repository.GetShifts(scope, from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeReport(w, r, report.TimesheetTable(shifts), format)
}

// eventByShowNumber loads the event a ledger entry refers to and checks the
// current worker may book against it.
func (h *Handler) eventByShowNumber(w http.ResponseWriter, r *http.Request, showNumber int64) (*domain.Event, bool) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	event, err := h.repository.GetEventByShowNumber(showNumber)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "No event with this show number")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}

	if !event.ManagedBy(myInfo) {
		h.errorResponse(w, r, "Only an admin or the event's account manager can do this")
		return nil, false
	}

	return event, true
}

// ledgerWorker checks the worker a ledger entry is recorded for.
func (h *Handler) ledgerWorker(w http.ResponseWriter, r *http.Request, workerID int64) (*domain.Worker, bool) {
	worker, err := h.repository.GetWorkerByID(workerID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "Worker not found")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}
	return worker, true
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShowNumber int64  `json:"showNumber" validate:"required,gt=0"`
		WorkerID   int64  `json:"workerID" validate:"required,gt=0"`
		Role       string `json:"role" validate:"omitempty,max=64"`
		Start      string `json:"start" validate:"required"`
		End        string `json:"end" validate:"required"`
		Location   string `json:"location" validate:"max=200"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	start, err := utils.ParseShiftTime(req.Start)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	end, err := utils.ParseShiftTime(req.End)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateTimeWindow(start, end); err != nil {
		h.badRequest(w, r, err)
		return
	}

	event, ok := h.eventByShowNumber(w, r, req.ShowNumber)
	if !ok {
		return
	}
	worker, ok := h.ledgerWorker(w, r, req.WorkerID)
	if !ok {
		return
	}

	location := req.Location
	if location == "" {
		location = event.Location
	}

	shift := &domain.Shift{
		WorkerID:       &worker.ID,
		WorkerName:     worker.FullName(),
		EventID:        event.ID,
		ShowName:       event.ShowName,
		ShowNumber:     event.ShowNumber,
		AccountManager: event.AccountManagerName,
		Role:           req.Role,
		Start:          start,
		End:            end,
		Location:       location,
	}

	if err := h.repository.CreateShift(shift); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Shift created", shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	if shift.CrewAssignmentID != nil {
		h.errorResponse(w, r, "This shift comes from a crew assignment, revoke the assignment instead")
		return
	}

	if err := h.repository.DeleteShift(shift.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Shift deleted", nil)
}
