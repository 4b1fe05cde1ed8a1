package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const emailAttempts = 5

func (h *Handler) GetAllWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.repository.GetAllWorkers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched workers", workers)
}

func (h *Handler) GetAccountManagers(w http.ResponseWriter, r *http.Request) {
	managers, err := h.repository.GetAccountManagers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Fetched account managers", managers)
}

// freeWorkerEmail finds an unused address on the worker domain, adding a
// numeric suffix when "first.last" is taken.
func (h *Handler) freeWorkerEmail(firstName, lastName string) (string, error) {
	for i := 0; i < emailAttempts; i++ {
		email := utils.GenerateWorkerEmail(firstName, lastName, h.config.Email.WorkerDomain, i > 0)
		exists, err := h.repository.CheckEmailIfExists(email)
		if err != nil {
			return "", err
		}
		if !exists {
			return email, nil
		}
	}
	return "", errors.New("could not generate a free email address, please supply one")
}

func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName        string   `json:"firstName" validate:"required,max=64"`
		LastName         string   `json:"lastName" validate:"required,max=64"`
		Email            string   `json:"email" validate:"omitempty,email"`
		PhoneNumber      string   `json:"phoneNumber" validate:"omitempty,max=32"`
		IsAdmin          bool     `json:"isAdmin"`
		IsAccountManager bool     `json:"isAccountManager"`
		Roles            []string `json:"roles"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := utils.ValidateWorkerRoles(req.Roles); err != nil {
		h.badRequest(w, r, err)
		return
	}

	email := strings.ToLower(req.Email)
	if email == "" {
		generated, err := h.freeWorkerEmail(req.FirstName, req.LastName)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		email = generated
	}

	password := utils.GenerateRandomPassword(h.config.NewWorker.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	worker := &domain.Worker{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            email,
		PhoneNumber:      req.PhoneNumber,
		PasswordHash:     string(hashedPassword),
		PasswordIsTemp:   true,
		IsAdmin:          req.IsAdmin,
		IsAccountManager: req.IsAccountManager,
		Roles:            req.Roles,
	}

	if err := h.repository.CreateWorker(worker); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "workers_email_key":
			h.errorResponse(w, r, "Email already exists")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeCreateWorker,
		To:   worker.Email,
		Data: domain.CreateWorkerMailData{
			FullName: worker.FullName(),
			Email:    worker.Email,
			Password: password,
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Worker created", worker)
}

func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker := r.Context().Value(WorkerInfoCtx).(*domain.Worker)
	h.successResponse(w, r, "Fetched worker", worker)
}

func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName        *string   `json:"firstName" validate:"omitempty,min=1,max=64"`
		LastName         *string   `json:"lastName" validate:"omitempty,min=1,max=64"`
		Email            *string   `json:"email" validate:"omitempty,email"`
		PhoneNumber      *string   `json:"phoneNumber" validate:"omitempty,max=32"`
		IsAdmin          *bool     `json:"isAdmin"`
		IsAccountManager *bool     `json:"isAccountManager"`
		IsActive         *bool     `json:"isActive"`
		Roles            *[]string `json:"roles"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	worker := r.Context().Value(WorkerInfoCtx).(*domain.Worker)

	if req.FirstName != nil {
		worker.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		worker.LastName = *req.LastName
	}
	if req.Email != nil {
		worker.Email = strings.ToLower(*req.Email)
	}
	if req.PhoneNumber != nil {
		worker.PhoneNumber = *req.PhoneNumber
	}
	if req.IsAdmin != nil {
		worker.IsAdmin = *req.IsAdmin
	}
	if req.IsAccountManager != nil {
		worker.IsAccountManager = *req.IsAccountManager
	}
	if req.IsActive != nil {
		worker.IsActive = *req.IsActive
	}
	if req.Roles != nil {
		if err := utils.ValidateWorkerRoles(*req.Roles); err != nil {
			h.badRequest(w, r, err)
			return
		}
		worker.Roles = *req.Roles
	}

	if err := h.repository.UpdateWorker(worker); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "workers_email_key":
			h.errorResponse(w, r, "Email already exists")
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "Failed to update the worker, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Worker updated", worker)
}

func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	worker := r.Context().Value(WorkerInfoCtx).(*domain.Worker)

	if err := h.repository.DeleteWorker(worker.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := h.redisContext(r.Context())
	defer cancel()
	if err := h.redisClient.Del(ctx, viewModeKey(worker.ID)).Err(); err != nil {
		slog.Warn("failed to delete view mode", "workerID", worker.ID, "error", err)
	}

	h.successResponse(w, r, "Worker deleted", nil)
}

func (h *Handler) UpdateWorkerPassword(w http.ResponseWriter, r *http.Request) {
	worker := r.Context().Value(WorkerInfoCtx).(*domain.Worker)

	var req struct {
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	worker.PasswordHash = string(hashedPassword)
	worker.PasswordIsTemp = true
	if err := h.repository.UpdateWorker(worker); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "Password updated", nil)
}
