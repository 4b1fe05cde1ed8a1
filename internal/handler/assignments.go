package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/utils"
)

// assignError turns a failed AssignWorker into a response.
func (h *Handler) assignError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrRoleNotRequested):
		h.errorResponse(w, r, "This crew does not request that role")
	case errors.Is(err, domain.ErrRoleFilled):
		h.errorResponse(w, r, "All slots of this role are already taken")
	case errors.Is(err, domain.ErrWorkerUnavailable):
		h.errorResponse(w, r, "The worker is already booked during this crew's time")
	case errors.Is(err, domain.ErrWorkerAlreadyOnCrew):
		h.errorResponse(w, r, "The worker already has a slot on this crew")
	case errors.Is(err, domain.ErrWorkerInactive):
		h.errorResponse(w, r, "The worker is deactivated")
	case errors.Is(err, domain.ErrWorkerCannotFill):
		h.errorResponse(w, r, "The worker cannot fill this role")
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "Crew not found")
	default:
		h.internalServerError(w, r, err)
	}
}

// mailOffer tells the worker about a new offer. The assignment stands even
// when the mail cannot be queued.
func (h *Handler) mailOffer(worker *domain.Worker, event *domain.Event, crew *domain.Crew, a *domain.CrewAssignment) {
	err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeCrewOffer,
		To:   worker.Email,
		Data: domain.CrewOfferMailData{
			FullName:  worker.FullName(),
			ShowName:  event.ShowName,
			Role:      a.Role,
			Location:  event.Location,
			StartTime: crew.StartTime.Format(utils.ShiftTimeLayout),
			EndTime:   crew.EndTime.Format(utils.ShiftTimeLayout),
		},
	})
	if err != nil {
		slog.Warn("failed to queue crew offer mail", "assignmentID", a.ID, "workerID", worker.ID, "error", err)
	}
}

func (h *Handler) respondToAssignment(w http.ResponseWriter, r *http.Request, status domain.AssignmentStatus) {
	a := r.Context().Value(AssignmentCtx).(*domain.CrewAssignment)

	if err := a.Transition(status); err != nil {
		h.errorResponse(w, r, "This offer has already been answered")
		return
	}

	if err := h.repository.UpdateAssignmentStatus(a); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "The offer was changed by someone else, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	msg := "Offer accepted"
	if status == domain.AssignmentRejected {
		msg = "Offer rejected"
	}
	h.successResponse(w, r, msg, a)
}

// UpdateAssignmentStatus lets an admin answer an offer for the worker.
func (h *Handler) UpdateAssignmentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status" validate:"required,oneof=accepted rejected"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.respondToAssignment(w, r, domain.AssignmentStatus(req.Status))
}

func (h *Handler) RevokeAssignment(w http.ResponseWriter, r *http.Request) {
	a := r.Context().Value(AssignmentCtx).(*domain.CrewAssignment)

	if err := h.repository.DeleteAssignment(a.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "Assignment not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Assignment revoked", nil)
}
