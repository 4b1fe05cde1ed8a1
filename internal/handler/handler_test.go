package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/showbase-dev/showbase/backend/internal/config"
	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.MaxSize = 1
	cfg.Upload.DocumentExtensions = []string{"pdf", "docx"}
	cfg.Upload.ReceiptExtensions = []string{"pdf", "png"}
	cfg.PayPeriod.Anchor = "2024-01-07"
	cfg.PayPeriod.Weeks = 2

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	return h
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()

	var res Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, sub string) string {
	t.Helper()

	token := jwt.NewWithClaims(method, AuthClaims{
		Role: string(domain.RoleWorker),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	ss, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return ss
}

// echoSubject writes back the subject the auth middleware stored.
var echoSubject = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(r.Context().Value(SubCtxKey).(string)))
})

var passThrough = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func withValues(r *http.Request, kv ...any) *http.Request {
	ctx := r.Context()
	for i := 0; i+1 < len(kv); i += 2 {
		ctx = context.WithValue(ctx, kv[i], kv[i+1])
	}
	return r.WithContext(ctx)
}

func TestRoutes_RequireLogin(t *testing.T) {
	h := newTestHandler(t)
	h.RegisterRoutes()

	for _, path := range []string{"/my-info/", "/events/", "/shifts/", "/crews/1/"} {
		rec := httptest.NewRecorder()
		h.Mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, rec.Code, path)
		res := decodeResponse(t, rec)
		assert.False(t, res.Success, path)
		assert.Equal(t, "Not logged in", res.Message, path)
	}
}

func TestAuth(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, "other-secret", "7"), "Invalid token"},
		{"unexpected algorithm", signToken(t, jwt.SigningMethodHS512, testSecret, "7"), "Invalid token"},
		{"garbage", "not-a-token", "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: tt.token})
			rec := httptest.NewRecorder()

			h.auth(echoSubject).ServeHTTP(rec, req)

			res := decodeResponse(t, rec)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Message)
		})
	}

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: signToken(t, jwt.SigningMethodHS256, testSecret, "42")})
		rec := httptest.NewRecorder()

		h.auth(echoSubject).ServeHTTP(rec, req)

		assert.Equal(t, "42", rec.Body.String())
	})
}

func TestRequiredRole(t *testing.T) {
	h := newTestHandler(t)

	admin := &domain.Worker{ID: 1, IsAdmin: true, IsActive: true}
	manager := &domain.Worker{ID: 2, IsAccountManager: true, IsActive: true}
	worker := &domain.Worker{ID: 3, IsActive: true}

	tests := []struct {
		name    string
		roles   []domain.Role
		who     *domain.Worker
		allowed bool
	}{
		{"admin on admin route", adminOnly, admin, true},
		{"manager on admin route", adminOnly, manager, false},
		{"manager on manager route", managerRoles, manager, true},
		{"worker on manager route", managerRoles, worker, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withValues(httptest.NewRequest(http.MethodGet, "/", nil), MyInfoCtx, tt.who)
			rec := httptest.NewRecorder()

			h.RequiredRole(tt.roles)(passThrough).ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, http.StatusNoContent, rec.Code)
				return
			}
			res := decodeResponse(t, rec)
			assert.False(t, res.Success)
			assert.Equal(t, "Permission denied", res.Message)
		})
	}
}

func TestPreventInactiveWorker(t *testing.T) {
	h := newTestHandler(t)

	req := withValues(httptest.NewRequest(http.MethodGet, "/", nil), MyInfoCtx, &domain.Worker{ID: 5})
	rec := httptest.NewRecorder()
	h.preventInactiveWorker(passThrough).ServeHTTP(rec, req)

	res := decodeResponse(t, rec)
	assert.Equal(t, "Your account is deactivated", res.Message)
}

func TestRequireEventManager(t *testing.T) {
	h := newTestHandler(t)

	amID := int64(7)
	event := &domain.Event{ID: 1, AccountManagerID: &amID}

	tests := []struct {
		name    string
		who     *domain.Worker
		allowed bool
	}{
		{"admin", &domain.Worker{ID: 1, IsAdmin: true}, true},
		{"own account manager", &domain.Worker{ID: 7, IsAccountManager: true}, true},
		{"other account manager", &domain.Worker{ID: 8, IsAccountManager: true}, false},
		{"worker with the manager's ID but no flag", &domain.Worker{ID: 7}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withValues(httptest.NewRequest(http.MethodPatch, "/", nil), MyInfoCtx, tt.who, EventCtx, event)
			rec := httptest.NewRecorder()

			h.requireEventManager(passThrough).ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, http.StatusNoContent, rec.Code)
			} else {
				assert.False(t, decodeResponse(t, rec).Success)
			}
		})
	}
}

func TestRequireOwnAssignment(t *testing.T) {
	h := newTestHandler(t)
	a := &domain.CrewAssignment{ID: 3, WorkerID: 11, Status: domain.AssignmentOffered}

	req := withValues(httptest.NewRequest(http.MethodPost, "/", nil), MyInfoCtx, &domain.Worker{ID: 11}, AssignmentCtx, a)
	rec := httptest.NewRecorder()
	h.requireOwnAssignment(passThrough).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = withValues(httptest.NewRequest(http.MethodPost, "/", nil), MyInfoCtx, &domain.Worker{ID: 12}, AssignmentCtx, a)
	rec = httptest.NewRecorder()
	h.requireOwnAssignment(passThrough).ServeHTTP(rec, req)
	assert.Equal(t, "Assignment not found", decodeResponse(t, rec).Message)
}

func TestRespondToAssignment_RefusesAnsweredOffer(t *testing.T) {
	h := newTestHandler(t)
	a := &domain.CrewAssignment{ID: 3, WorkerID: 11, Status: domain.AssignmentRejected}

	req := withValues(httptest.NewRequest(http.MethodPost, "/", nil), AssignmentCtx, a)
	rec := httptest.NewRecorder()
	h.respondToAssignment(rec, req, domain.AssignmentAccepted)

	res := decodeResponse(t, rec)
	assert.False(t, res.Success)
	assert.Equal(t, "This offer has already been answered", res.Message)
	assert.Equal(t, domain.AssignmentRejected, a.Status)
}

func TestAssignError(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrRoleNotRequested, "This crew does not request that role"},
		{domain.ErrRoleFilled, "All slots of this role are already taken"},
		{domain.ErrWorkerUnavailable, "The worker is already booked during this crew's time"},
		{domain.ErrWorkerAlreadyOnCrew, "The worker already has a slot on this crew"},
		{domain.ErrWorkerInactive, "The worker is deactivated"},
		{domain.ErrWorkerCannotFill, "The worker cannot fill this role"},
		{sql.ErrNoRows, "Crew not found"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.assignError(rec, httptest.NewRequest(http.MethodPost, "/", nil), tt.err)

			res := decodeResponse(t, rec)
			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Message)
		})
	}
}

func TestUpdateCrew_RefusesCountBelowHeldSlots(t *testing.T) {
	h := newTestHandler(t)
	crew := &domain.Crew{
		ID:    3,
		Roles: map[string]int32{domain.EventRoleAudio: 2},
		Assignments: []domain.CrewAssignment{
			{WorkerID: 1, Role: domain.EventRoleAudio, Status: domain.AssignmentOffered},
			{WorkerID: 2, Role: domain.EventRoleAudio, Status: domain.AssignmentAccepted},
		},
	}

	body := strings.NewReader(`{"roles": {"Audio": 1}}`)
	req := withValues(httptest.NewRequest(http.MethodPatch, "/", body), CrewCtx, crew)
	rec := httptest.NewRecorder()
	h.UpdateCrew(rec, req)

	res := decodeResponse(t, rec)
	assert.False(t, res.Success)
	assert.Equal(t, "Revoke assignments of Audio before lowering its count", res.Message)
	assert.Equal(t, map[string]int32{domain.EventRoleAudio: 2}, crew.Roles)
}

func TestCrewWriteError(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.crewWriteError(rec, httptest.NewRequest(http.MethodPatch, "/", nil), &domain.RoleBelowHeld{Role: domain.EventRoleTD, Held: 1})
	assert.Equal(t, "Revoke assignments of TD before lowering its count", decodeResponse(t, rec).Message)

	rec = httptest.NewRecorder()
	h.crewWriteError(rec, httptest.NewRequest(http.MethodPatch, "/", nil), sql.ErrNoRows)
	assert.Equal(t, "The crew was changed by someone else, please retry", decodeResponse(t, rec).Message)
}

func TestBadRequest(t *testing.T) {
	h := newTestHandler(t)

	var req struct {
		Email string `validate:"required,email"`
	}
	err := h.validate.Struct(req)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	h.badRequest(rec, httptest.NewRequest(http.MethodPost, "/", nil), err)
	assert.Equal(t, "Email is a required field", decodeResponse(t, rec).Message)

	rec = httptest.NewRecorder()
	h.badRequest(rec, httptest.NewRequest(http.MethodPost, "/", nil), errors.New("end time must be after start time"))
	assert.Equal(t, "end time must be after start time", decodeResponse(t, rec).Message)
}

func TestRecoverer(t *testing.T) {
	h := newTestHandler(t)

	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	rec := httptest.NewRecorder()
	h.recoverer(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, internalErrorMessage, decodeResponse(t, rec).Message)
}

func TestApplyViewMode(t *testing.T) {
	admin := &domain.Worker{ID: 1, IsAdmin: true}
	manager := &domain.Worker{ID: 2, IsAccountManager: true}

	v := applyViewMode(admin, domain.ViewMode{ViewAsEmployee: true})
	assert.Equal(t, domain.RoleWorker, v.Role())
	assert.True(t, admin.IsAdmin, "the real worker keeps its flags")

	v = applyViewMode(admin, domain.ViewMode{ViewAsManager: true})
	assert.Equal(t, domain.RoleAccountManager, v.Role())

	v = applyViewMode(manager, domain.ViewMode{ViewAsManager: true})
	assert.Equal(t, domain.RoleAccountManager, v.Role())

	v = applyViewMode(manager, domain.ViewMode{ViewAsEmployee: true})
	assert.Equal(t, domain.LedgerScope{WorkerID: 2}, domain.ScopeFor(v))
}

func TestNewCrewView(t *testing.T) {
	crew := &domain.Crew{
		ID:    1,
		Roles: map[string]int32{domain.EventRoleTD: 1, domain.EventRoleAudio: 2},
		Assignments: []domain.CrewAssignment{
			{WorkerID: 1, Role: domain.EventRoleTD, Status: domain.AssignmentAccepted},
			{WorkerID: 2, Role: domain.EventRoleAudio, Status: domain.AssignmentOffered},
			{WorkerID: 3, Role: domain.EventRoleAudio, Status: domain.AssignmentRejected},
		},
	}

	view := newCrewView(crew)
	assert.False(t, view.Fulfilled)
	assert.Equal(t, map[string]int32{domain.EventRoleAudio: 1}, view.UnassignedRoles)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"fulfilled":false`)
	assert.Contains(t, string(raw), `"eventID":0`)
}

func TestEventFilter(t *testing.T) {
	for query, want := range map[string]bool{"": true, "?filter=active": true, "?filter=all": false} {
		activeOnly, err := eventFilter(httptest.NewRequest(http.MethodGet, "/events"+query, nil))
		require.NoError(t, err)
		assert.Equal(t, want, activeOnly, query)
	}

	_, err := eventFilter(httptest.NewRequest(http.MethodGet, "/events?filter=archived", nil))
	assert.Error(t, err)
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("Net", " 12.50 ")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, v, 1e-9)

	v, err = parseAmount("HST", "")
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = parseAmount("Net", "-1")
	assert.EqualError(t, err, "Net must be a non-negative amount")
	_, err = parseAmount("Net", "ten")
	assert.Error(t, err)
}

func TestSelectedPeriod(t *testing.T) {
	h := newTestHandler(t)

	period, err := h.selectedPeriod(httptest.NewRequest(http.MethodGet, "/?payPeriod=2024-01-10", nil))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-07", period.Start.Format("2006-01-02"))
	assert.Equal(t, "2024-01-21", period.End.Format("2006-01-02"))

	_, err = h.selectedPeriod(httptest.NewRequest(http.MethodGet, "/?payPeriod=01/10/2024", nil))
	assert.Error(t, err)

	from, to, err := h.ledgerWindow(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())
}

func TestWriteReport(t *testing.T) {
	h := newTestHandler(t)
	table := &report.Table{
		Title:   "timesheet",
		Headers: []string{"Date", "Hours"},
		Rows:    [][]string{{"01/08/2024", "8.00"}},
	}

	rec := httptest.NewRecorder()
	h.writeReport(rec, httptest.NewRequest(http.MethodGet, "/", nil), table, report.FormatCSV)

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="timesheet.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date,Hours\n01/08/2024,8.00\n", rec.Body.String())

	rec = httptest.NewRecorder()
	h.writeReport(rec, httptest.NewRequest(http.MethodGet, "/", nil), table, report.FormatHTML)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<table class="table table-striped table-hover">`))
}
