package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ptcms/pkg/logger"
	"ptcms/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims AccessClaims, method jwt.SigningMethod, secret string) string {
	t.Helper()
	tok := jwt.NewWithClaims(method, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func validClaims(roles ...string) AccessClaims {
	return AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "lan.nguyen",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 17,
		Roles:  roles,
	}
}

func TestAuthentication(t *testing.T) {
	log := logger.Discard()
	verifier := NewTokenVerifier(testSecret)

	expired := validClaims("ROLE_ADMIN")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantRole   model.Role
	}{
		{
			name: "valid consultant token",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, validClaims("ROLE_CONSULTANT"), jwt.SigningMethodHS256, testSecret))
			},
			wantStatus: http.StatusOK,
			wantRole:   model.RoleConsultant,
		},
		{
			name: "most privileged role wins",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, validClaims("CONSULTANT", "MANAGER"), jwt.SigningMethodHS256, testSecret))
			},
			wantStatus: http.StatusOK,
			wantRole:   model.RoleManager,
		},
		{
			name:       "missing token",
			setup:      func(r *http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "wrong secret",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, validClaims("ADMIN"), jwt.SigningMethodHS256, "other"))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "expired",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, expired, jwt.SigningMethodHS256, testSecret))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "hs512 refused",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+signToken(t, validClaims("ADMIN"), jwt.SigningMethodHS512, testSecret))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "query token only on websocket upgrade",
			setup: func(r *http.Request) {
				q := r.URL.Query()
				q.Set("access_token", signToken(t, validClaims("ADMIN"), jwt.SigningMethodHS256, testSecret))
				r.URL.RawQuery = q.Encode()
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "query token on websocket upgrade",
			setup: func(r *http.Request) {
				r.Header.Set("Upgrade", "websocket")
				q := r.URL.Query()
				q.Set("access_token", signToken(t, validClaims("COORDINATOR"), jwt.SigningMethodHS256, testSecret))
				r.URL.RawQuery = q.Encode()
			},
			wantStatus: http.StatusOK,
			wantRole:   model.RoleCoordinator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotRole model.Role
			h := Authentication(verifier, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p, ok := PrincipalFromContext(r.Context())
				if !ok {
					t.Fatal("principal missing from context")
				}
				if p.Username != "lan.nguyen" || p.UserID != 17 || p.Token == "" {
					t.Errorf("unexpected principal %+v", p)
				}
				gotRole = p.Role
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/id/1", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if gotRole != tt.wantRole {
				t.Errorf("role = %q, want %q", gotRole, tt.wantRole)
			}
		})
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute, nil, logger.Discard())
	defer rl.Stop()

	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("user:1") || !rl.Allow("user:1") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("user:1") {
		t.Fatal("third request in window should be refused")
	}
	if !rl.Allow("user:2") {
		t.Fatal("other callers have their own bucket")
	}
	if !rl.Allow("") {
		t.Fatal("empty key bypasses the limiter")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("user:1") {
		t.Fatal("window should have slid")
	}
}

func TestRateLimit_Rejects(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, func(r *http.Request) string { return "k" }, logger.Discard())
	defer rl.Stop()

	h := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestPrincipalOrIPExtractor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:5555"
	if got := PrincipalOrIPExtractor(r); got != "ip:10.1.2.3" {
		t.Errorf("got %q", got)
	}

	r = r.WithContext(WithPrincipal(r.Context(), &Principal{UserID: 9}))
	if got := PrincipalOrIPExtractor(r); got != "user:9" {
		t.Errorf("got %q", got)
	}
}

func TestIdempotency_ReplaysSuccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"call":` + string(rune('0'+n)) + `}`))
	}))

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
		req.Header.Set(IdempotencyHeader, "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	first := send("/api/v1/orders/id/1/assign")
	second := send("/api/v1/orders/id/1/assign")
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replayed body differs: %q vs %q", first.Body.String(), second.Body.String())
	}
	if second.Header().Get("Idempotent-Replay") != "true" {
		t.Error("missing replay marker")
	}

	send("/api/v1/orders/id/2/assign")
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("same key on another route must not replay")
	}
}

func TestIdempotency_DoesNotCacheFailures(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	var calls int32
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set(IdempotencyHeader, "k")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("handler called %d times, want 2", calls)
	}
}

func TestRequestTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})

	rec := httptest.NewRecorder()
	RequestTimeout(20*time.Millisecond)(slow).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}

func TestRequestTimeout_SkipsWebSocket(t *testing.T) {
	var hasDeadline bool
	h := RequestTimeout(time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	req.Header.Set("Upgrade", "websocket")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if hasDeadline {
		t.Error("websocket upgrade should not get a deadline")
	}
}

func TestContentTypeValidation(t *testing.T) {
	h := ContentTypeValidation(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{"json post", http.MethodPost, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"form post", http.MethodPost, `a=b`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"bodiless post", http.MethodPost, ``, "", http.StatusOK},
		{"get", http.MethodGet, ``, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRecovery_LiveUpgradeWritesNothing(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/id/1/live", nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestRecovery_RepanicsOnAbort(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want ErrAbortHandler", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	const incoming = "4f7c2b8e-7e0c-4c61-9d0b-1d3b7f0f6a11"
	var seen string
	h := RequestLogging(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != incoming || rec.Header().Get(RequestIDHeader) != incoming {
		t.Errorf("request id not propagated: ctx %q header %q", seen, rec.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "not-a-uuid" || seen == "" {
		t.Errorf("expected a generated id, got %q", seen)
	}
}
