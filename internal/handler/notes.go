package handler

import (
	"net/http"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

// visibleNotes returns the notes of the event the current viewer may read.
func (h *Handler) visibleNotes(r *http.Request, event *domain.Event) ([]*domain.Note, error) {
	viewer, err := h.viewer(r)
	if err != nil {
		return nil, err
	}

	notes, err := h.repository.GetNotesByEventID(event.ID)
	if err != nil {
		return nil, err
	}

	var isTD, checked bool
	visible := make([]*domain.Note, 0, len(notes))
	for _, note := range notes {
		// the TD lookup only matters for notes flagged for account managers and TDs
		if note.AccountManagerAndTDOnly && !checked {
			isTD, err = h.repository.IsAcceptedTD(event.ID, viewer.ID)
			if err != nil {
				return nil, err
			}
			checked = true
		}
		if note.VisibleTo(viewer, isTD) {
			visible = append(visible, note)
		}
	}

	return visible, nil
}

func (h *Handler) GetNotes(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(EventCtx).(*domain.Event)

	notes, err := h.visibleNotes(r, event)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched notes", notes)
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)
	event := r.Context().Value(EventCtx).(*domain.Event)

	var req struct {
		Content                 string `json:"content" validate:"required,max=5000"`
		AccountManagerOnly      bool   `json:"accountManagerOnly"`
		AccountManagerAndTDOnly bool   `json:"accountManagerAndTDOnly"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if (req.AccountManagerOnly || req.AccountManagerAndTDOnly) && !event.ManagedBy(myInfo) {
		h.errorResponse(w, r, "Only an admin or the event's account manager can restrict a note")
		return
	}

	note := &domain.Note{
		EventID:                 event.ID,
		WorkerID:                myInfo.ID,
		AuthorName:              myInfo.FullName(),
		Content:                 req.Content,
		AccountManagerOnly:      req.AccountManagerOnly,
		AccountManagerAndTDOnly: req.AccountManagerAndTDOnly,
	}

	if err := h.repository.CreateNote(note); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Note created", note)
}
