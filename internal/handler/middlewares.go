package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/showbase-dev/showbase/backend/internal/domain"
)

const tokenCookieName = "__showbase_token"

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("request handled", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				fmt.Print(string(debug.Stack()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// rateLimit allows at most limit requests per client IP per minute for the named action.
func (h *Handler) rateLimit(action string, limit int) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := fmt.Sprintf("rate_limit_%s_%s", action, ip)

			ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
			defer cancel()

			count, err := h.redisClient.Incr(ctx, key).Result()
			if err != nil {
				h.internalServerError(w, r, err)
				return
			}
			if count == 1 {
				if err := h.redisClient.Expire(ctx, key, time.Minute).Err(); err != nil {
					h.internalServerError(w, r, err)
					return
				}
			}

			if count > int64(limit) {
				h.writeJSON(w, r, http.StatusTooManyRequests, Response{
					Success: false,
					Message: "Too many attempts, try again in a minute",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(tokenCookieName)
		if err != nil {
			switch {
			case errors.Is(err, http.ErrNoCookie):
				h.errorResponse(w, r, "Not logged in")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		claims := &AuthClaims{}
		_, err = jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(h.config.JWT.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			h.errorResponse(w, r, "Invalid token")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, RoleCtxKey, claims.Role)
		ctx = context.WithValue(ctx, SubCtxKey, claims.Subject)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) myInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subString := r.Context().Value(SubCtxKey).(string)

		sub, err := strconv.ParseInt(subString, 10, 64)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}

		myInfo, err := h.repository.GetWorkerByID(sub)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "Your account no longer exists")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), MyInfoCtx, myInfo)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) preventInactiveWorker(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)
		if !myInfo.IsActive {
			h.errorResponse(w, r, "Your account is deactivated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequiredRole checks the current worker's flags as stored, so a demotion
// takes effect before the token expires.
func (h *Handler) RequiredRole(roles []domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)
			if !slices.Contains(roles, myInfo.Role()) {
				h.errorResponse(w, r, "Permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) workerInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workerID, err := idParam(r, "id")
		if err != nil {
			h.errorResponse(w, r, "Invalid worker ID")
			return
		}

		worker, err := h.repository.GetWorkerByID(workerID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "Worker not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), WorkerInfoCtx, worker)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) preventOperateInitialAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		worker := r.Context().Value(WorkerInfoCtx).(*domain.Worker)
		if worker.Email == h.config.InitialAdmin.Email {
			h.errorResponse(w, r, "The initial admin cannot be modified")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) withEvent(w http.ResponseWriter, r *http.Request, eventID int64) (context.Context, bool) {
	event, err := h.repository.GetEventByID(eventID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "Event not found")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}

	return context.WithValue(r.Context(), EventCtx, event), true
}

func (h *Handler) event(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		eventID, err := idParam(r, "id")
		if err != nil {
			h.errorResponse(w, r, "Invalid event ID")
			return
		}

		ctx, ok := h.withEvent(w, r, eventID)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireEventManager lets admins and the account manager of the event in
// the context through.
func (h *Handler) requireEventManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)
		event := r.Context().Value(EventCtx).(*domain.Event)
		if !event.ManagedBy(myInfo) {
			h.errorResponse(w, r, "Only an admin or the event's account manager can do this")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// crew loads the crew and its event.
func (h *Handler) crew(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		crewID, err := idParam(r, "id")
		if err != nil {
			h.errorResponse(w, r, "Invalid crew ID")
			return
		}

		crew, err := h.repository.GetCrewByID(crewID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "Crew not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx, ok := h.withEvent(w, r, crew.EventID)
		if !ok {
			return
		}
		ctx = context.WithValue(ctx, CrewCtx, crew)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) assignment(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := idParam(r, "id")
		if err != nil {
			h.errorResponse(w, r, "Invalid assignment ID")
			return
		}

		a, err := h.repository.GetAssignmentByID(assignmentID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "Assignment not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), AssignmentCtx, a)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// assignmentCrew loads the crew and event of the assignment in the context.
func (h *Handler) assignmentCrew(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a := r.Context().Value(AssignmentCtx).(*domain.CrewAssignment)

		crew, err := h.repository.GetCrewByID(a.CrewID)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}

		ctx, ok := h.withEvent(w, r, crew.EventID)
		if !ok {
			return
		}
		ctx = context.WithValue(ctx, CrewCtx, crew)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireOwnAssignment(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		myInfo := r.Context().Value(MyInfoCtx).(*domain.Worker)
		a := r.Context().Value(AssignmentCtx).(*domain.CrewAssignment)
		if a.WorkerID != myInfo.ID {
			h.errorResponse(w, r, "Assignment not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) shift(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shiftID, err := idParam(r, "id")
		if err != nil {
			h.errorResponse(w, r, "Invalid shift ID")
			return
		}

		shift, err := h.repository.GetShiftByID(shiftID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "Shift not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx, ok := h.withEvent(w, r, shift.EventID)
		if !ok {
			return
		}
		ctx = context.WithValue(ctx, ShiftCtx, shift)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) expense(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		expenseID, err := idParam(r, "id")
		if err != nil {
			h.errorResponse(w, r, "Invalid expense ID")
			return
		}

		expense, err := h.repository.GetExpenseByID(expenseID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "Expense not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx, ok := h.withEvent(w, r, expense.EventID)
		if !ok {
			return
		}
		ctx = context.WithValue(ctx, ExpenseCtx, expense)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) document(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		event := r.Context().Value(EventCtx).(*domain.Event)

		documentID, err := idParam(r, "documentID")
		if err != nil {
			h.errorResponse(w, r, "Invalid document ID")
			return
		}

		doc, err := h.repository.GetDocumentByID(documentID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.errorResponse(w, r, "Document not found")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}
		if doc.EventID != event.ID {
			h.errorResponse(w, r, "Document not found")
			return
		}

		ctx := context.WithValue(r.Context(), DocumentCtx, doc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
