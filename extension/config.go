package extension

import (
	"time"

	dreambiz "github.com/blyssafrica-alt/dreambiz-sub006"
)

// Config holds the DreamBiz extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.dreambiz" or "dreambiz" keys).
type Config struct {
	// DisableRoutes skips building the HTTP API.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for the business routes (default: "/api/v1").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// OperationTimeout bounds a single store call (default: 10s).
	OperationTimeout time.Duration `json:"operation_timeout" mapstructure:"operation_timeout" yaml:"operation_timeout"`

	// EntitlementCacheTTL controls how long a resolved entitlement is
	// reused before the subscription is read again (default: 30s).
	EntitlementCacheTTL time.Duration `json:"entitlement_cache_ttl" mapstructure:"entitlement_cache_ttl" yaml:"entitlement_cache_ttl"`

	// Location is the IANA zone business dates are taken in (default: "UTC").
	Location string `json:"location" mapstructure:"location" yaml:"location"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:            "/api/v1",
		OperationTimeout:    dreambiz.DefaultOperationTimeout,
		EntitlementCacheTTL: dreambiz.DefaultEntitlementCacheTTL,
		Location:            "UTC",
	}
}
