// Package config layers process configuration: struct defaults, then a
// YAML file, then environment variable overrides, via koanf. The
// evaluation core consumes an already-assembled context and policy tree
// and never reads configuration itself; this is for anything that runs
// the PDP as a service.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	koanfyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/dotrongnhan/xacml-pdp/model"
)

// EnvPrefix is the environment-variable prefix this service reads
// overrides from, e.g. PDP__SERVER__PORT -> server.port.
const EnvPrefix = "PDP__"

// Server holds the HTTP listener settings for cmd/pdpserver.
type Server struct {
	BindAddress string `koanf:"bind_address"`
	Port        int    `koanf:"port"`
}

// Database holds the PostgreSQL connection settings for the policy/audit
// store.
type Database struct {
	Host         string `koanf:"host"`
	Port         int    `koanf:"port"`
	User         string `koanf:"user"`
	Password     string `koanf:"password"`
	DatabaseName string `koanf:"database_name"`
	SSLMode      string `koanf:"ssl_mode"`
}

// Service is the top-level configuration a deployed PDP reads at startup.
type Service struct {
	Server   Server   `koanf:"server"`
	Database Database `koanf:"database"`

	// Strategy names the decision strategy the PDP reduces evaluation
	// results with.
	Strategy model.Strategy `koanf:"strategy"`

	// PredicateBackend selects the predicate.Engine implementation:
	// "cel" (default, production) or "simple" (the operator-table mock).
	PredicateBackend string `koanf:"predicate_backend"`

	// AuditEnabled toggles writing AuditRecords to the database in
	// addition to the structured log line audit.Logger always emits.
	AuditEnabled bool `koanf:"audit_enabled"`

	// Enforcement mirrors pep.Config's tunables so they can be set from
	// the same configuration file/environment.
	Enforcement Enforcement `koanf:"enforcement"`
}

// Enforcement mirrors the pep.Config fields relevant to process
// configuration (package pep itself is the authority on defaults not
// overridable here, such as the circuit breaker's state machine constants).
type Enforcement struct {
	CacheEnabled       bool          `koanf:"cache_enabled"`
	CacheTTL           time.Duration `koanf:"cache_ttl"`
	CacheMaxSize       int           `koanf:"cache_max_size"`
	RateLimitEnabled   bool          `koanf:"rate_limit_enabled"`
	RateLimitPerSecond int           `koanf:"rate_limit_per_second"`
	RateLimitBurst     int           `koanf:"rate_limit_burst"`
}

// Defaults returns the baseline configuration, applied before any file or
// environment overrides.
func Defaults() Service {
	return Service{
		Server: Server{BindAddress: "0.0.0.0", Port: 8080},
		Database: Database{
			Host: "localhost", Port: 5432, User: "postgres",
			Password: "postgres", DatabaseName: "pdp", SSLMode: "disable",
		},
		Strategy:         model.StrategyDefaultDeny,
		PredicateBackend: "cel",
		AuditEnabled:     false,
		Enforcement: Enforcement{
			CacheEnabled: true, CacheTTL: 30 * time.Second, CacheMaxSize: 10_000,
			RateLimitEnabled: true, RateLimitPerSecond: 1_000, RateLimitBurst: 2_000,
		},
	}
}

// Load builds a Service by layering Defaults(), then path (a YAML file,
// if non-empty), then PDP__-prefixed environment variables, last writer
// winning.
func Load(path string) (*Service, error) {
	k := koanf.New(".")

	defaults := Defaults()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file not found: %s", path)
		}
		if err := k.Load(file.Provider(path), koanfyaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: loading environment variables: %w", err)
	}

	var service Service
	if err := k.Unmarshal("", &service); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	return &service, nil
}

// Addr renders the server's bind address and port as "host:port".
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}

// DSN renders the database settings as a libpq connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.DatabaseName, d.Port, d.SSLMode)
}
