package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/payperiod"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)
	h.successResponse(w, r, "Fetched your profile", myInfo)
}

func (h *Handler) UpdateMyInfo(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	var req struct {
		FirstName   *string `json:"firstName" validate:"omitempty,min=1,max=64"`
		LastName    *string `json:"lastName" validate:"omitempty,min=1,max=64"`
		PhoneNumber *string `json:"phoneNumber" validate:"omitempty,max=32"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.FirstName != nil {
		myInfo.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		myInfo.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		myInfo.PhoneNumber = *req.PhoneNumber
	}

	if err := h.repository.UpdateWorker(myInfo); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "Failed to update your profile, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Profile updated", myInfo)
}

func (h *Handler) UpdateMyPassword(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	var req struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(myInfo.PasswordHash), []byte(req.OldPassword)); err != nil {
		h.errorResponse(w, r, "Old password is wrong")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	myInfo.PasswordHash = string(hashedPassword)
	myInfo.PasswordIsTemp = false

	if err := h.repository.UpdateWorker(myInfo); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "Failed to update your password, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Password updated", nil)
}

func (h *Handler) UpdateMyTheme(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	var req struct {
		Theme string `json:"theme" validate:"required,oneof=light dark"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	myInfo.Theme = req.Theme
	if err := h.repository.UpdateWorker(myInfo); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "Failed to update the theme, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Theme updated", map[string]string{"theme": myInfo.Theme})
}

func viewModeKey(workerID int64) string {
	return fmt.Sprintf("view_mode_%d", workerID)
}

func (h *Handler) loadViewMode(r *http.Request, workerID int64) (domain.ViewMode, error) {
	ctx, cancel := h.redisContext(r.Context())
	defer cancel()

	mode := domain.ViewMode{}
	raw, err := h.redisClient.Get(ctx, viewModeKey(workerID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return mode, nil
	case err != nil:
		return mode, err
	}

	if err := json.Unmarshal(raw, &mode); err != nil {
		return domain.ViewMode{}, err
	}
	return mode, nil
}

// viewer is the current worker with privileges reduced by the chosen view mode.
// Listings are scoped by the viewer; permission checks still use the real worker.
func (h *Handler) viewer(r *http.Request) (*domain.Worker, error) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)
	if !myInfo.IsAdmin && !myInfo.IsAccountManager {
		return myInfo, nil
	}

	mode, err := h.loadViewMode(r, myInfo.ID)
	if err != nil {
		return nil, err
	}

	return applyViewMode(myInfo, mode), nil
}

func applyViewMode(w *domain.Worker, mode domain.ViewMode) *domain.Worker {
	v := *w
	switch {
	case mode.ViewAsEmployee:
		v.IsAdmin = false
		v.IsAccountManager = false
	case mode.ViewAsManager && v.IsAdmin:
		v.IsAdmin = false
		v.IsAccountManager = true
	}
	return &v
}

func (h *Handler) GetViewMode(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	mode, err := h.loadViewMode(r, myInfo.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched view mode", mode)
}

func (h *Handler) SetViewMode(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	var req domain.ViewMode
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	switch {
	case req.ViewAsEmployee && req.ViewAsManager:
		h.errorResponse(w, r, "Choose one view mode")
		return
	case req.ViewAsManager && !myInfo.IsAdmin:
		h.errorResponse(w, r, "Only admins can switch to the manager view")
		return
	case req.ViewAsEmployee && !myInfo.IsAdmin && !myInfo.IsAccountManager:
		h.errorResponse(w, r, "You already see the employee view")
		return
	}

	raw, err := json.Marshal(req)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := h.redisContext(r.Context())
	defer cancel()

	if err := h.redisClient.Set(ctx, viewModeKey(myInfo.ID), raw, 0).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "View mode updated", req)
}

// selectedPeriod reads ?payPeriod=YYYY-MM-DD and returns the period holding
// that date, or the current period when the parameter is absent.
func (h *Handler) selectedPeriod(r *http.Request) (payperiod.Period, error) {
	day := time.Now()
	if raw := r.URL.Query().Get("payPeriod"); raw != "" {
		parsed, err := time.ParseInLocation(payperiod.DateLayout, raw, time.Local)
		if err != nil {
			return payperiod.Period{}, fmt.Errorf("invalid pay period %q, expected YYYY-MM-DD", raw)
		}
		day = parsed
	}
	return h.payPeriods.Containing(day)
}

type dashboard struct {
	Period        payperiod.Period   `json:"period"`
	PayPeriods    []payperiod.Period `json:"payPeriods"`
	Offers        []*domain.Offer    `json:"offers"`
	Shifts        []*domain.Shift    `json:"shifts"`
	TotalHours    float64            `json:"totalHours"`
	Expenses      []*domain.Expense  `json:"expenses"`
	TotalExpenses float64            `json:"totalExpenses"`
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	period, err := h.selectedPeriod(r)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	viewer, err := h.viewer(r)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	scope := domain.ScopeFor(viewer)

	offers, err := h.repository.GetOffersByWorkerID(myInfo.ID, true)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	shifts, err := h.repository.GetShifts(scope, period.Start, period.End)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	expenses, err := h.repository.GetExpenses(scope, period.Start, period.End)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	d := dashboard{
		Period:     period,
		PayPeriods: h.payPeriods.Recent(time.Now(), h.config.PayPeriod.Count),
		Offers:     offers,
		Shifts:     shifts,
		Expenses:   expenses,
	}
	for _, s := range shifts {
		d.TotalHours += s.Hours()
	}
	for _, e := range expenses {
		d.TotalExpenses += e.Total()
	}

	h.successResponse(w, r, "Fetched dashboard", d)
}

func (h *Handler) GetUpcomingShifts(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	shifts, err := h.repository.GetUpcomingShifts(myInfo.ID, time.Now())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched upcoming shifts", shifts)
}

func (h *Handler) GetMyOffers(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)

	offers, err := h.repository.GetOffersByWorkerID(myInfo.ID, r.URL.Query().Get("pending") == "true")
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched offers", offers)
}

func (h *Handler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	h.respondToAssignment(w, r, domain.AssignmentAccepted)
}

func (h *Handler) RejectOffer(w http.ResponseWriter, r *http.Request) {
	h.respondToAssignment(w, r, domain.AssignmentRejected)
}
