package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/api"
	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/memory"
)

type server struct {
	t      *testing.T
	srv    *httptest.Server
	issuer *identity.JWTProvider
}

func newServer(t *testing.T) *server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := dreambiz.New(memory.New(), dreambiz.WithLogger(logger))
	require.NoError(t, eng.Start(t.Context()))
	t.Cleanup(func() { _ = eng.Stop() })

	auth := identity.NewJWTProvider("test-secret", "dreambiz", time.Hour)
	reg := prometheus.NewRegistry()
	a := api.New(eng, auth,
		api.WithLogger(logger),
		api.WithBasePath("/api/v1"),
		api.WithPrometheus(reg, reg),
	)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return &server{t: t, srv: srv, issuer: auth}
}

func (s *server) token(userID string) string {
	s.t.Helper()
	tok, err := s.issuer.Issue(identity.Principal{UserID: userID})
	require.NoError(s.t, err)
	return tok
}

func (s *server) do(method, path, token string, body any) (*http.Response, map[string]any) {
	s.t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(s.t.Context(), method, s.srv.URL+path, r)
	require.NoError(s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func profile(name string) map[string]any {
	return map[string]any{
		"name":          name,
		"business_type": "retail",
		"currency":      "usd",
		"owner_name":    "Tariro",
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get(api.HeaderRequestID))

	resp, _ = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, s.srv.URL+"/metrics", nil)
	require.NoError(t, err)
	res, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	text, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), "dreambiz_http_requests_total")
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newServer(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, s.srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(api.HeaderRequestID, "req-123")

	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(api.HeaderRequestID))
}

func TestAuthentication(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(http.MethodGet, "/api/v1/tenants", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "unauthenticated", body["error"])
	assert.NotEmpty(t, body["request_id"])

	resp, _ = s.do(http.MethodGet, "/api/v1/tenants", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = s.do(http.MethodGet, "/api/v1/tenants", s.token("user-1"), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["tenants"])
}

func TestTenantLifecycle(t *testing.T) {
	s := newServer(t)
	tok := s.token("user-1")

	resp, created := s.do(http.MethodPost, "/api/v1/tenants", tok, profile("Mbare Groceries"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, created)
	tenantID, _ := created["id"].(string)
	require.NotEmpty(t, tenantID)
	assert.Equal(t, "USD", created["currency"])
	assert.Equal(t, "user-1", created["owner_id"])

	t.Run("free plan limit", func(t *testing.T) {
		resp, body := s.do(http.MethodPost, "/api/v1/tenants", tok, profile("Second Shop"))
		require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Equal(t, "limit_exceeded", body["error"])
		limit, ok := body["limit"].(map[string]any)
		require.True(t, ok, body)
		assert.InDelta(t, 1, limit["max_tenants"], 0)
	})

	t.Run("default and get", func(t *testing.T) {
		resp, body := s.do(http.MethodGet, "/api/v1/tenants/default", tok, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, tenantID, body["id"])

		resp, body = s.do(http.MethodGet, "/api/v1/tenants/"+tenantID, tok, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Mbare Groceries", body["name"])
	})

	t.Run("other users are forbidden", func(t *testing.T) {
		resp, body := s.do(http.MethodGet, "/api/v1/tenants/"+tenantID, s.token("user-2"), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "forbidden", body["error"])
	})

	t.Run("patch", func(t *testing.T) {
		resp, body := s.do(http.MethodPatch, "/api/v1/tenants/"+tenantID, tok, map[string]any{"location": "Harare"})
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		assert.Equal(t, "Harare", body["location"])
		assert.Equal(t, "Mbare Groceries", body["name"])
	})

	t.Run("malformed id", func(t *testing.T) {
		resp, body := s.do(http.MethodGet, "/api/v1/tenants/nope", tok, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "invalid_input", body["error"])
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := s.do(http.MethodDelete, "/api/v1/tenants/"+tenantID, tok, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = s.do(http.MethodGet, "/api/v1/tenants/"+tenantID, tok, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCreateTenantValidation(t *testing.T) {
	s := newServer(t)

	in := profile("Shop")
	delete(in, "owner_name")
	resp, body := s.do(http.MethodPost, "/api/v1/tenants", s.token("user-1"), in)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", body["error"])
	assert.Contains(t, body["message"], "owner_name")
}

func TestShiftFlow(t *testing.T) {
	s := newServer(t)
	tok := s.token("user-1")

	_, created := s.do(http.MethodPost, "/api/v1/tenants", tok, profile("Kiosk"))
	tenantID, _ := created["id"].(string)
	require.NotEmpty(t, tenantID)

	resp, opened := s.do(http.MethodPost, "/api/v1/tenants/"+tenantID+"/shifts", tok, map[string]any{"date": "2024-03-01"})
	require.Equal(t, http.StatusOK, resp.StatusCode, opened)
	shiftID, _ := opened["id"].(string)
	require.NotEmpty(t, shiftID)
	assert.Equal(t, "open", opened["status"])

	// Opening again returns the same shift.
	_, again := s.do(http.MethodPost, "/api/v1/tenants/"+tenantID+"/shifts", tok, map[string]any{"date": "2024-03-01"})
	assert.Equal(t, shiftID, again["id"])

	resp, recorded := s.do(http.MethodPost, "/api/v1/tenants/"+tenantID+"/sales", tok, map[string]any{
		"date":   "2024-03-01",
		"method": "cash",
		"total":  "12.50",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, recorded)
	sh, ok := recorded["shift"].(map[string]any)
	require.True(t, ok, recorded)
	assert.Equal(t, shiftID, sh["id"])

	resp, totals := s.do(http.MethodGet, "/api/v1/shifts/"+shiftID+"/totals", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, totals)
	assert.Equal(t, "12.5", totals["expected_cash"])

	resp, body := s.do(http.MethodPost, "/api/v1/shifts/"+shiftID+"/close", tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)

	resp, closed := s.do(http.MethodPost, "/api/v1/shifts/"+shiftID+"/close", tok, map[string]any{"actual_cash": "12.00"})
	require.Equal(t, http.StatusOK, resp.StatusCode, closed)
	assert.Equal(t, "closed", closed["status"])
	assert.Equal(t, "-0.5", closed["cash_discrepancy"])

	resp, body = s.do(http.MethodPost, "/api/v1/shifts/"+shiftID+"/close", tok, map[string]any{"actual_cash": "12.00"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_state", body["error"])

	resp, byDate := s.do(http.MethodGet, "/api/v1/tenants/"+tenantID+"/shifts/2024-03-01", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, shiftID, byDate["id"])

	resp, list := s.do(http.MethodGet, "/api/v1/tenants/"+tenantID+"/shifts?status=closed", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	shifts, _ := list["shifts"].([]any)
	assert.Len(t, shifts, 1)

	resp, _ = s.do(http.MethodGet, "/api/v1/tenants/"+tenantID+"/shifts?limit=-1", tok, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/v1/tenants/"+tenantID+"/shifts/2024-03-02", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEntitlement(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(http.MethodGet, "/api/v1/me/entitlement", s.token("user-1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user-1", body["user_id"])
	assert.InDelta(t, 1, body["max_tenants"], 0)
}

func TestWithoutRoutes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := dreambiz.New(memory.New(), dreambiz.WithLogger(logger))
	require.NoError(t, eng.Start(t.Context()))
	t.Cleanup(func() { _ = eng.Stop() })

	reg := prometheus.NewRegistry()
	h := api.New(eng, identity.NewJWTProvider("k", "", time.Hour),
		api.WithLogger(logger),
		api.WithPrometheus(reg, reg),
		api.WithoutRoutes(),
	).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tenants", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
