// Package api exposes the engine over HTTP with echo.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
)

// API serves the tenant registry and shift ledger.
type API struct {
	eng      *dreambiz.Engine
	auth     identity.Provider
	logger   *slog.Logger
	basePath string
	noRoutes bool

	namespace  string
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
	metrics    *httpMetrics
}

// Option configures an API.
type Option func(*API)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) { a.logger = logger }
}

// WithBasePath mounts the business routes under path, e.g. "/api/v1".
func WithBasePath(path string) Option {
	return func(a *API) { a.basePath = "/" + strings.Trim(path, "/") }
}

// WithPrometheus registers HTTP metrics on reg and serves gatherer at
// /metrics. By default the global prometheus registry is used.
func WithPrometheus(reg prometheus.Registerer, gatherer prometheus.Gatherer) Option {
	return func(a *API) {
		a.registerer = reg
		a.gatherer = gatherer
	}
}

// WithNamespace sets the Prometheus namespace of the HTTP metrics.
func WithNamespace(ns string) Option {
	return func(a *API) { a.namespace = ns }
}

// WithoutRoutes serves only /healthz and /metrics.
func WithoutRoutes() Option {
	return func(a *API) { a.noRoutes = true }
}

// New creates an API for eng. auth turns bearer tokens into principals.
func New(eng *dreambiz.Engine, auth identity.Provider, opts ...Option) *API {
	a := &API{
		eng:        eng,
		auth:       auth,
		logger:     slog.Default(),
		namespace:  "dreambiz",
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.basePath == "/" {
		a.basePath = ""
	}
	a.metrics = newHTTPMetrics(a.namespace, a.registerer)
	return a
}

// Echo builds the echo instance with every route and middleware installed.
func (a *API) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = a.handleError

	// Order matters: ids first so every later layer can log them.
	e.Use(echomiddleware.Recover())
	e.Use(requestID)
	e.Use(a.logRequests)
	e.Use(a.metrics.middleware)

	e.GET("/healthz", a.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})))

	if a.noRoutes {
		return e
	}

	g := e.Group(a.basePath, a.authenticate)

	g.GET("/me/entitlement", a.entitlement)

	g.GET("/tenants", a.listTenants)
	g.POST("/tenants", a.createTenant)
	g.GET("/tenants/default", a.defaultTenant)
	g.GET("/tenants/:tenant_id", a.getTenant)
	g.PATCH("/tenants/:tenant_id", a.updateTenant)
	g.DELETE("/tenants/:tenant_id", a.deleteTenant)

	g.GET("/tenants/:tenant_id/shifts", a.listShifts)
	g.POST("/tenants/:tenant_id/shifts", a.openShift)
	g.GET("/tenants/:tenant_id/shifts/:date", a.shiftForDate)
	g.POST("/tenants/:tenant_id/sales", a.recordSale)

	g.GET("/shifts/:shift_id", a.getShift)
	g.GET("/shifts/:shift_id/totals", a.shiftTotals)
	g.POST("/shifts/:shift_id/close", a.closeShift)

	return e
}

// Handler returns the API as a plain http.Handler.
func (a *API) Handler() http.Handler {
	return a.Echo()
}
