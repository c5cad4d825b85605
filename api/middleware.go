package api

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
)

// Header names.
const (
	HeaderRequestID    = "X-Request-ID"
	HeaderActiveTenant = "X-Active-Tenant"
)

const (
	ctxRequestID = "request_id"
	ctxPrincipal = "principal"
)

// requestID reuses the caller's request id or assigns a new one.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rid := c.Request().Header.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.New().String()
		}

		c.Request().Header.Set(HeaderRequestID, rid)
		c.Response().Header().Set(HeaderRequestID, rid)
		c.Set(ctxRequestID, rid)

		return next(c)
	}
}

func requestIDOf(c echo.Context) string {
	rid, _ := c.Get(ctxRequestID).(string)
	return rid
}

// logRequests writes one line per request.
func (a *API) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			// Let the error handler set the status before it is logged.
			c.Error(err)
		}

		req := c.Request()
		attrs := []any{
			"request_id", requestIDOf(c),
			"method", req.Method,
			"path", c.Path(),
			"status", c.Response().Status,
			"latency", time.Since(start),
		}
		if p, ok := c.Get(ctxPrincipal).(identity.Principal); ok {
			attrs = append(attrs, "user_id", p.UserID)
		}
		if c.Response().Status >= 500 {
			a.logger.Error("http request", append(attrs, "error", err)...)
		} else {
			a.logger.Info("http request", attrs...)
		}
		return nil
	}
}

// authenticate verifies the bearer token and stores the principal.
func (a *API) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			token = ""
		}

		p, err := a.auth.Authenticate(c.Request().Context(), strings.TrimSpace(token))
		if err != nil {
			return errUnauthenticated(err)
		}
		if active := c.Request().Header.Get(HeaderActiveTenant); active != "" {
			p = p.WithActiveTenant(active)
		}

		c.Set(ctxPrincipal, p)
		c.SetRequest(c.Request().WithContext(identity.NewContext(c.Request().Context(), p)))
		return next(c)
	}
}

func principalOf(c echo.Context) identity.Principal {
	p, _ := identity.FromContext(c.Request().Context())
	return p
}

// ──────────────────────────────────────────────────
// Metrics
// ──────────────────────────────────────────────────

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(namespace string, reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "path", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
	m.requests = registerVec(reg, m.requests)
	m.duration = registerVec(reg, m.duration)
	return m
}

func registerVec[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if reg == nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}

func (m *httpMetrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		if err != nil {
			status = statusOf(err)
		}
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}

		m.requests.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
		return err
	}
}
