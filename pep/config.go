package pep

import "time"

// Config configures an Enforcer's ambient behavior. The pdp.Engine and
// decision strategy themselves are configured separately (package pdp);
// this only tunes the enforcement helpers wrapped around it.
type Config struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	CacheMaxSize int

	RateLimitEnabled   bool
	RateLimitPerSecond int
	RateLimitBurst     int

	CircuitBreakerEnabled     bool
	CircuitBreakerThreshold   int
	CircuitBreakerRecovery    time.Duration
	CircuitBreakerMaxInFlight int

	// FailSafeDeny controls what Authorize returns when the circuit
	// breaker is open or the rate limiter rejects the request: true
	// (default) denies. The caller always gets a binary PERMIT/DENY,
	// never an error, for these ambient-layer rejections.
	FailSafeDeny bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheEnabled:              true,
		CacheTTL:                  30 * time.Second,
		CacheMaxSize:              10_000,
		RateLimitEnabled:          true,
		RateLimitPerSecond:        1_000,
		RateLimitBurst:            2_000,
		CircuitBreakerEnabled:     true,
		CircuitBreakerThreshold:   5,
		CircuitBreakerRecovery:    10 * time.Second,
		CircuitBreakerMaxInFlight: 256,
		FailSafeDeny:              true,
	}
}
