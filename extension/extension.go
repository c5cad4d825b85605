// Package extension provides the Forge extension adapter for DreamBiz.
//
// It implements the forge.Extension interface to integrate the tenant
// registry and shift ledger into a Forge application with DI registration
// and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.dreambiz" or "dreambiz" keys.
package extension

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
	"github.com/blyssafrica-alt/dreambiz-sub006/api"
	"github.com/blyssafrica-alt/dreambiz-sub006/identity"
	"github.com/blyssafrica-alt/dreambiz-sub006/store"
	"github.com/blyssafrica-alt/dreambiz-sub006/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "dreambiz"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Business profiles and daily cash shifts"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts DreamBiz as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *dreambiz.Engine
	store      store.Store
	engineOpts []dreambiz.Option

	auth    identity.Provider
	apiOpts []api.Option
	api     *api.API
}

// New creates a new DreamBiz Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *dreambiz.Engine { return e.engine }

// API returns the HTTP API, or nil when routes are disabled or no auth
// provider was given.
func (e *Extension) API() *api.API { return e.api }

// Handler returns the HTTP API as an http.Handler for the host to mount.
func (e *Extension) Handler() http.Handler {
	if e.api == nil {
		return nil
	}
	return e.api.Handler()
}

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.build(); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*dreambiz.Engine, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}
	if e.api == nil {
		return nil
	}
	return vessel.Provide(fapp.Container(), func() (*api.API, error) {
		return e.api, nil
	})
}

// build constructs the engine and, when enabled, the HTTP API from the
// resolved config.
func (e *Extension) build() error {
	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}
	e.engine = dreambiz.New(e.store, opts...)

	if !e.config.DisableRoutes && e.auth != nil {
		apiOpts := append([]api.Option{api.WithBasePath(e.config.BasePath)}, e.apiOpts...)
		e.api = api.New(e.engine, e.auth, apiOpts...)
	}
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("dreambiz: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("dreambiz: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs dreambiz.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]dreambiz.Option, error) {
	opts := make([]dreambiz.Option, 0, len(e.engineOpts)+4)

	opts = append(opts, dreambiz.WithAutoMigrate(!e.config.DisableMigrate))

	if e.config.OperationTimeout > 0 {
		opts = append(opts, dreambiz.WithOperationTimeout(e.config.OperationTimeout))
	}
	if e.config.EntitlementCacheTTL > 0 {
		opts = append(opts, dreambiz.WithEntitlementCacheTTL(e.config.EntitlementCacheTTL))
	}
	if e.config.Location != "" {
		loc, err := time.LoadLocation(e.config.Location)
		if err != nil {
			return nil, fmt.Errorf("dreambiz: location %q: %w", e.config.Location, err)
		}
		opts = append(opts, dreambiz.WithLocation(loc))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("dreambiz: configuration is required but not found in config files; " +
				"ensure 'extensions.dreambiz' or 'dreambiz' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("dreambiz: configuration loaded",
		forge.F("disable_routes", e.config.DisableRoutes),
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("base_path", e.config.BasePath),
		forge.F("operation_timeout", e.config.OperationTimeout),
		forge.F("entitlement_cache_ttl", e.config.EntitlementCacheTTL),
		forge.F("location", e.config.Location),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	for _, key := range []string{"extensions.dreambiz", "dreambiz"} {
		if !cm.IsSet(key) {
			continue
		}
		if err := cm.Bind(key, &cfg); err == nil {
			e.Logger().Debug("dreambiz: loaded config from file",
				forge.F("key", key),
			)
			return cfg, true
		}
		e.Logger().Warn("dreambiz: failed to bind config",
			forge.F("key", key),
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.BasePath == "" {
		cfg.BasePath = defaults.BasePath
	}
	if cfg.OperationTimeout == 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.EntitlementCacheTTL == 0 {
		cfg.EntitlementCacheTTL = defaults.EntitlementCacheTTL
	}
	if cfg.Location == "" {
		cfg.Location = defaults.Location
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableRoutes {
		yamlConfig.DisableRoutes = true
	}
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.BasePath == "" && programmaticConfig.BasePath != "" {
		yamlConfig.BasePath = programmaticConfig.BasePath
	}
	if yamlConfig.Location == "" && programmaticConfig.Location != "" {
		yamlConfig.Location = programmaticConfig.Location
	}

	// Duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.OperationTimeout == 0 && programmaticConfig.OperationTimeout != 0 {
		yamlConfig.OperationTimeout = programmaticConfig.OperationTimeout
	}
	if yamlConfig.EntitlementCacheTTL == 0 && programmaticConfig.EntitlementCacheTTL != 0 {
		yamlConfig.EntitlementCacheTTL = programmaticConfig.EntitlementCacheTTL
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
