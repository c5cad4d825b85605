package extension

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/api"
	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/memory"
	"github.com/blyssafrica-alt/dreambiz-sub006/tenant"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestMergeWithDefaults(t *testing.T) {
	e := New()
	cfg := e.mergeWithDefaults(Config{EntitlementCacheTTL: time.Minute})

	assert.Equal(t, "/api/v1", cfg.BasePath)
	assert.Equal(t, dreambiz.DefaultOperationTimeout, cfg.OperationTimeout)
	assert.Equal(t, time.Minute, cfg.EntitlementCacheTTL)
	assert.Equal(t, "UTC", cfg.Location)
}

func TestMergeConfigurations(t *testing.T) {
	e := New()
	file := Config{BasePath: "/biz", OperationTimeout: 3 * time.Second}
	programmatic := Config{
		BasePath:            "/ignored",
		DisableMigrate:      true,
		EntitlementCacheTTL: 5 * time.Second,
		Location:            "Africa/Harare",
	}

	cfg := e.mergeConfigurations(file, programmatic)

	assert.Equal(t, "/biz", cfg.BasePath, "file wins for strings")
	assert.True(t, cfg.DisableMigrate, "programmatic flags stick")
	assert.False(t, cfg.DisableRoutes)
	assert.Equal(t, 3*time.Second, cfg.OperationTimeout)
	assert.Equal(t, 5*time.Second, cfg.EntitlementCacheTTL, "programmatic fills gaps")
	assert.Equal(t, "Africa/Harare", cfg.Location)
}

func TestBuildStartStop(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	auth := identity.NewJWTProvider("test-secret", "dreambiz", time.Hour)

	e := New(
		WithStore(memory.New()),
		WithEngineOption(dreambiz.WithLogger(discard())),
		WithAuthProvider(auth),
		WithAPIOption(api.WithPrometheus(reg, reg)),
		WithAPIOption(api.WithLogger(discard())),
		WithLocation("Africa/Harare"),
	)
	e.config = e.mergeWithDefaults(e.config)
	require.NoError(t, e.build())
	require.NotNil(t, e.Engine())
	require.NotNil(t, e.API())

	require.NoError(t, e.Start(ctx))
	require.NoError(t, e.Health(ctx))

	p := identity.Principal{UserID: "user_1", ExpiresAt: time.Now().Add(time.Hour)}
	biz, err := e.Engine().CreateTenant(ctx, p, "user_1", tenant.Input{
		Name:         "Kiosk",
		BusinessType: "retail",
		Currency:     "USD",
		OwnerName:    "Tariro",
	})
	require.NoError(t, err)
	assert.Equal(t, "Kiosk", biz.Name)

	srv := httptest.NewServer(e.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/tenants")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.NoError(t, e.Stop(ctx))
	assert.ErrorIs(t, e.Health(ctx), dreambiz.ErrStoreClosed)
}

func TestRoutesNeedAuthProvider(t *testing.T) {
	e := New(WithEngineOption(dreambiz.WithLogger(discard())))
	e.config = e.mergeWithDefaults(e.config)
	require.NoError(t, e.build())

	assert.NotNil(t, e.Engine(), "memory store is the fallback")
	assert.Nil(t, e.API())
	assert.Nil(t, e.Handler())

	off := New(
		WithAuthProvider(identity.NewJWTProvider("s", "dreambiz", time.Hour)),
		WithDisableRoutes(),
	)
	off.config = off.mergeWithDefaults(off.config)
	require.NoError(t, off.build())
	assert.Nil(t, off.API())
}

func TestBuildRejectsUnknownLocation(t *testing.T) {
	e := New(WithLocation("Mars/Olympus"))
	e.config = e.mergeWithDefaults(e.config)

	err := e.build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mars/Olympus")
}

func TestStartBeforeRegister(t *testing.T) {
	e := New()

	assert.Error(t, e.Start(context.Background()))
	assert.Error(t, e.Health(context.Background()))
	assert.Nil(t, e.Engine())
}
