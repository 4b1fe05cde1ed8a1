package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/report"
)

// accountManager resolves an account manager ID and checks the AM flag.
func (h *Handler) accountManager(id int64) (*domain.Worker, error) {
	am, err := h.repository.GetWorkerByID(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("account manager not found")
		}
		return nil, err
	}
	if !am.IsAccountManager {
		return nil, errors.New("the selected worker is not an account manager")
	}
	return am, nil
}

func (h *Handler) eventWriteError(w http.ResponseWriter, r *http.Request, err error) {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.ConstraintName == "events_show_number_key":
		h.errorResponse(w, r, "Show number already exists")
	case errors.Is(err, sql.ErrNoRows):
		h.errorResponse(w, r, "The event was changed by someone else, please retry")
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	var req struct {
		ShowName         string `json:"showName" validate:"required,max=200"`
		ShowNumber       int64  `json:"showNumber" validate:"required,gt=0"`
		AccountManagerID *int64 `json:"accountManagerID"`
		Location         string `json:"location" validate:"max=200"`
		SharepointLink   string `json:"sharepointLink" validate:"omitempty,url"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// account managers create events for themselves
	managerID := req.AccountManagerID
	if !myInfo.IsAdmin {
		managerID = &myInfo.ID
	}

	event := &domain.Event{
		ShowName:         req.ShowName,
		ShowNumber:       req.ShowNumber,
		AccountManagerID: managerID,
		Location:         req.Location,
		Active:           true,
		SharepointLink:   req.SharepointLink,
	}

	if managerID != nil {
		am, err := h.accountManager(*managerID)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		event.AccountManagerName = am.FullName()
	}

	if err := h.repository.CreateEvent(event); err != nil {
		h.eventWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "Event created", event)
}

func eventFilter(r *http.Request) (activeOnly bool, err error) {
	switch r.URL.Query().Get("filter") {
	case "", "active":
		return true, nil
	case "all":
		return false, nil
	default:
		return false, errors.New("filter must be active or all")
	}
}

func (h *Handler) GetAllEvents(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := eventFilter(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	events, err := h.repository.GetAllEvents(activeOnly)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched events", events)
}

func (h *Handler) GetEventReport(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := eventFilter(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	events, err := h.repository.GetAllEvents(activeOnly)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeReport(w, r, report.EventTable(events), format)
}

type eventDetail struct {
	*domain.Event
	Crews     []crewView         `json:"crews"`
	Notes     []*domain.Note     `json:"notes"`
	Documents []*domain.Document `json:"documents"`
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(EventCtx).(*domain.Event)

	crews, err := h.repository.GetCrewsByEventID(event.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	notes, err := h.visibleNotes(r, event)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	documents, err := h.repository.GetDocumentsByEventID(event.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched event", eventDetail{
		Event:     event,
		Crews:     crewViews(crews),
		Notes:     notes,
		Documents: documents,
	})
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)
	event := r.Context().Value(EventCtx).(*domain.Event)

	var req struct {
		ShowName         *string `json:"showName" validate:"omitempty,min=1,max=200"`
		ShowNumber       *int64  `json:"showNumber" validate:"omitempty,gt=0"`
		AccountManagerID *int64  `json:"accountManagerID"`
		Location         *string `json:"location" validate:"omitempty,max=200"`
		SharepointLink   *string `json:"sharepointLink" validate:"omitempty,url"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.ShowName != nil {
		event.ShowName = *req.ShowName
	}
	if req.ShowNumber != nil {
		event.ShowNumber = *req.ShowNumber
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.SharepointLink != nil {
		event.SharepointLink = *req.SharepointLink
	}
	if req.AccountManagerID != nil {
		if !myInfo.IsAdmin {
			h.errorResponse(w, r, "Only admins can change the account manager")
			return
		}
		am, err := h.accountManager(*req.AccountManagerID)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}
		event.AccountManagerID = &am.ID
		event.AccountManagerName = am.FullName()
	}

	if err := h.repository.UpdateEvent(event); err != nil {
		h.eventWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "Event updated", event)
}

func (h *Handler) SetEventStatus(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(EventCtx).(*domain.Event)

	var req struct {
		Active *bool `json:"active" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	event.Active = *req.Active
	if err := h.repository.UpdateEvent(event); err != nil {
		h.eventWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, "Event status updated", event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	event := r.Context().Value(EventCtx).(*domain.Event)

	documents, receipts, err := h.repository.DeleteEvent(event.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// rows are gone already; a file that fails to delete is only logged
	for _, name := range documents {
		if err := h.documents.Remove(name); err != nil {
			slog.Warn("failed to remove document file", "eventID", event.ID, "file", name, "error", err)
		}
	}
	for _, name := range receipts {
		if err := h.receipts.Remove(name); err != nil {
			slog.Warn("failed to remove receipt file", "eventID", event.ID, "file", name, "error", err)
		}
	}

	h.successResponse(w, r, "Event deleted", nil)
}

// writeReport streams a rendered table as a download.
func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, table *report.Table, format report.Format) {
	w.Header().Set("Content-Type", format.ContentType())
	if format != report.FormatHTML {
		w.Header().Set("Content-Disposition", `attachment; filename="`+table.Filename(format)+`"`)
	}

	if err := table.Write(w, format); err != nil {
		// headers are out, so the client sees a truncated body
		h.logInternalServerError(r, err)
	}
}
