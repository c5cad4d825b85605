package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	audithook "github.com/blyssafrica-alt/dreambiz-sub006/audit_hook"
	"github.com/blyssafrica-alt/dreambiz-sub006/config"
	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
	"github.com/blyssafrica-alt/dreambiz-sub006/observability"
	"github.com/blyssafrica-alt/dreambiz-sub006/store"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/memory"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/mongo"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/mysql"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/postgres"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/sqlite"
)

// app is everything a command needs, built from the loaded config.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	engine   *dreambiz.Engine
	registry *prometheus.Registry
}

func loadConfig() (*config.Config, error) {
	var envFiles []string
	if global.envFile != "" {
		envFiles = append(envFiles, global.envFile)
	}
	return config.Load(global.configFile, envFiles...)
}

// newApp loads the config, opens the store and starts the engine with the
// audit and metrics plugins installed. Callers must call close.
func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return startApp(ctx, cfg, logOut)
}

func startApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	logger := cfg.Log.NewLogger(logOut)

	s, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := cfg.EngineOptions(logger)
	opts = append(opts,
		dreambiz.WithPlugin(audithook.New(auditLog(logger), audithook.WithLogger(logger))),
		dreambiz.WithPlugin(observability.NewMetricsExtension(
			observability.NewPrometheusFactory(cfg.Metrics.Namespace, registry),
		)),
	)

	eng := dreambiz.New(s, opts...)
	if err := eng.Start(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	return &app{cfg: cfg, logger: logger, engine: eng, registry: registry}, nil
}

func (a *app) close() {
	if err := a.engine.Stop(); err != nil {
		a.logger.Warn("engine stop", "error", err)
	}
}

// openStore opens the backend selected by database.driver.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	db := cfg.Database
	switch db.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverPostgres:
		return postgres.Open(ctx, db.DSN, cfg.PoolOptions())
	case config.DriverMySQL:
		return mysql.Open(ctx, db.DSN, cfg.PoolOptions())
	case config.DriverSQLite:
		return sqlite.Open(ctx, db.DSN)
	case config.DriverMongo:
		return mongo.Open(ctx, db.DSN, db.MongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", db.Driver)
	}
}

// auditLog records audit events as structured log lines.
func auditLog(logger *slog.Logger) audithook.RecorderFunc {
	return func(ctx context.Context, ev *audithook.AuditEvent) error {
		level := slog.LevelInfo
		switch ev.Severity {
		case audithook.SeverityWarning:
			level = slog.LevelWarn
		case audithook.SeverityError, audithook.SeverityCritical:
			level = slog.LevelError
		}
		logger.LogAttrs(ctx, level, "audit",
			slog.String("action", ev.Action),
			slog.String("resource", ev.Resource),
			slog.String("resource_id", ev.ResourceID),
			slog.String("outcome", ev.Outcome),
			slog.Any("metadata", ev.Metadata),
		)
		return nil
	}
}

func (a *app) tokens() *identity.JWTProvider {
	return identity.NewJWTProvider(a.cfg.Auth.JWTSecret, a.cfg.Auth.Issuer, a.cfg.Auth.TokenTTL)
}

// cliPrincipal is the caller for administrative commands. It has no
// expiry; ownership checks still apply.
func cliPrincipal(userID string) identity.Principal {
	return identity.Principal{UserID: userID}
}

func requireUser() (string, error) {
	if global.user == "" {
		return "", errors.New("--user is required")
	}
	return global.user, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
