package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) redisContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, time.Duration(h.config.Redis.OperationExpiration)*time.Second)
}

func resetPasswordKey(email string) string {
	return fmt.Sprintf("otp_%s_reset_password", strings.ToLower(email))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	worker, err := h.repository.GetWorkerByEmail(strings.ToLower(req.Email))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "Wrong email or password")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(worker.PasswordHash), []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.errorResponse(w, r, "Wrong email or password")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if !worker.IsActive {
		h.errorResponse(w, r, "Your account is deactivated")
		return
	}

	expiration := time.Now().Add(time.Duration(h.config.JWT.Expiration) * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(worker.Role()),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   strconv.FormatInt(worker.ID, 10),
		},
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    ss,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)

	h.successResponse(w, r, "Logged in", worker)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:    tokenCookieName,
		Value:   "",
		Expires: time.Now().Add(-time.Hour),
		Path:    "/",
	})

	h.successResponse(w, r, "Logged out", nil)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName   string `json:"firstName" validate:"required,max=64"`
		LastName    string `json:"lastName" validate:"required,max=64"`
		Email       string `json:"email" validate:"required,email"`
		PhoneNumber string `json:"phoneNumber" validate:"omitempty,max=32"`
		Password    string `json:"password" validate:"required,min=8"`
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

	worker := &domain.Worker{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        strings.ToLower(req.Email),
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hashedPassword),
	}

	if err := h.repository.CreateWorker(worker); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "workers_email_key":
			h.errorResponse(w, r, "Email is already registered")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "Registered", worker)
}

func (h *Handler) RequireResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	const sent = "A reset code has been sent to your email"

	worker, err := h.repository.GetWorkerByEmail(strings.ToLower(req.Email))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// same answer as for a real account so the endpoint does not reveal which addresses exist
			h.successResponse(w, r, sent, nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	otp := utils.GenerateRandomOTP()

	ctx, cancel := h.redisContext(r.Context())
	defer cancel()

	if err := h.redisClient.Set(ctx, resetPasswordKey(worker.Email), otp, time.Duration(h.config.OTP.Expiration)*time.Second).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.publishMail(domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   worker.Email,
		Data: domain.ResetPasswordMailData{
			FullName:   worker.FullName(),
			OTP:        otp,
			Expiration: h.config.OTP.Expiration / 60, // minutes in the mail
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, sent, nil)
}

func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		OTP      string `json:"otp" validate:"required,len=6,numeric"`
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

	email := strings.ToLower(req.Email)

	ctx, cancel := h.redisContext(r.Context())
	defer cancel()

	otp, err := h.redisClient.Get(ctx, resetPasswordKey(email)).Result()
	if err != nil || otp != req.OTP {
		h.errorResponse(w, r, "Wrong or expired code")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	worker, err := h.repository.GetWorkerByEmail(email)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	worker.PasswordHash = string(hashedPassword)
	worker.PasswordIsTemp = false

	if err := h.repository.UpdateWorker(worker); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "Please try again")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.redisClient.Del(ctx, resetPasswordKey(email)).Err(); err != nil {
		// the password is already changed; a stale code simply expires
		slog.Warn("failed to delete reset code", "email", email, "error", err)
	}

	h.successResponse(w, r, "Password reset", nil)
}
