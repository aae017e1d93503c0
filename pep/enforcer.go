// Package pep provides the enforcement-point helpers a real PEP wants
// around a pdp.Engine: a TTL decision cache, a token-bucket rate
// limiter, a circuit breaker, and Prometheus metrics. None of this
// changes the pdp.Engine's decision; it only decides whether/how quickly
// to ask for one.
package pep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dotrongnhan/xacml-pdp/audit"
	"github.com/dotrongnhan/xacml-pdp/model"
	"github.com/dotrongnhan/xacml-pdp/pdp"
)

// Enforcer is the method a real PEP calls. It is a thin, fail-safe
// wrapper: a request turned away by the rate limiter or an open circuit
// gets the configured fail-safe decision, while an error from pdp.Engine
// is returned to the caller. Authorize never changes what pdp.Engine
// would have decided, only whether it is asked at all.
type Enforcer struct {
	engine  *pdp.Engine
	config  Config
	cache   *DecisionCache
	limiter *rateLimiter
	breaker *circuitBreaker
	metrics *Metrics
	audit   *audit.Logger
}

// New builds an Enforcer around engine. metrics/auditLogger may be nil;
// nil metrics is a no-op, nil auditLogger means no audit trail.
func New(engine *pdp.Engine, config Config, metrics *Metrics, auditLogger *audit.Logger) *Enforcer {
	e := &Enforcer{engine: engine, config: config, metrics: metrics, audit: auditLogger}

	if config.CacheEnabled {
		e.cache = NewDecisionCache(config.CacheMaxSize, config.CacheTTL)
	}
	if config.RateLimitEnabled {
		e.limiter = newRateLimiter(config.RateLimitPerSecond, config.RateLimitBurst)
	}
	if config.CircuitBreakerEnabled {
		e.breaker = newCircuitBreaker(config.CircuitBreakerThreshold, config.CircuitBreakerRecovery, config.CircuitBreakerMaxInFlight)
	}

	return e
}

// Authorize runs req through the rate limiter, cache and circuit breaker
// before (and around) a pdp.Engine.Authorize call, logging the outcome via
// the configured audit.Logger.
func (e *Enforcer) Authorize(ctx context.Context, req *model.AuthzRequest) (*model.AuthzDecision, error) {
	if e.limiter != nil && !e.limiter.Allow() {
		e.metrics.recordRateLimited()
		return e.failSafe("rate limit exceeded")
	}

	if e.cache != nil {
		if cached := e.cache.Get(req); cached != nil {
			e.metrics.recordCacheHit()
			return cached, nil
		}
		e.metrics.recordCacheMiss()
	}

	if e.breaker != nil && !e.breaker.Allow() {
		e.metrics.recordCircuitOpen()
		return e.failSafe("circuit breaker open")
	}

	start := time.Now()
	decision, err := e.engine.Authorize(req)
	e.metrics.recordEvaluationTime(time.Since(start))

	if e.breaker != nil {
		if err != nil {
			e.breaker.RecordFailure()
		} else {
			e.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("pep: authorize: %w", err)
	}

	e.metrics.recordDecision(string(decision.Decision))
	if e.cache != nil {
		e.cache.Set(req, decision)
	}
	if e.audit != nil {
		e.audit.LogDecision(ctx, req, decision)
	}

	return decision, nil
}

// failSafe returns the configured fail-safe decision when a request
// never reaches pdp.Engine. This is an enforcement-layer outcome, not
// one of the core's seven evaluation results, so it carries its own
// Details string rather than a cause tree.
func (e *Enforcer) failSafe(reason string) (*model.AuthzDecision, error) {
	decision := model.DecisionPermit
	if e.config.FailSafeDeny {
		decision = model.DecisionDeny
	}
	return &model.AuthzDecision{
		Decision:  decision,
		Timestamp: time.Now().UTC(),
		Details:   reason,
	}, nil
}

// CacheStats exposes the decision cache's performance counters, or a zero
// value if caching is disabled.
func (e *Enforcer) CacheStats() CacheStats {
	if e.cache == nil {
		return CacheStats{}
	}
	return e.cache.Stats()
}

// rateLimiter is a token bucket gating how often Authorize will ask
// pdp.Engine for a decision at all, independent of the decision itself.
type rateLimiter struct {
	rate       float64
	capacity   int
	tokens     float64
	lastUpdate time.Time
	mu         sync.Mutex
}

func newRateLimiter(requestsPerSecond, burstSize int) *rateLimiter {
	return &rateLimiter{
		rate:       float64(requestsPerSecond),
		capacity:   burstSize,
		tokens:     float64(burstSize),
		lastUpdate: time.Now(),
	}
}

// Allow reports whether the next Authorize call may proceed, refilling the
// bucket for the time elapsed since the last call.
func (rl *rateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.tokens += now.Sub(rl.lastUpdate).Seconds() * rl.rate
	if rl.tokens > float64(rl.capacity) {
		rl.tokens = float64(rl.capacity)
	}
	rl.lastUpdate = now

	if rl.tokens >= 1.0 {
		rl.tokens--
		return true
	}
	return false
}

// circuitBreakerState is the state of a circuitBreaker.
type circuitBreakerState int

const (
	circuitClosed circuitBreakerState = iota
	circuitOpen
	circuitHalfOpen
)

func (s circuitBreakerState) String() string {
	switch s {
	case circuitClosed:
		return "closed"
	case circuitOpen:
		return "open"
	case circuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// circuitBreaker trips when pdp.Engine.Authorize itself starts failing
// (e.g. a programmer-error tree rejected by principle.Validate on every
// call), shedding load instead of calling it again on every request while
// it recovers.
type circuitBreaker struct {
	failureThreshold int
	recoveryTimeout  time.Duration
	maxInFlight      int

	mu              sync.Mutex
	state           circuitBreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	inFlight        int
}

func newCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration, maxInFlight int) *circuitBreaker {
	return &circuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		maxInFlight:      maxInFlight,
		state:            circuitClosed,
	}
}

// Allow reports whether the circuit is closed (or half-open and still
// under its probe limit) for another in-flight pdp.Engine.Authorize call.
func (cb *circuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case circuitClosed:
		if cb.inFlight >= cb.maxInFlight {
			return false
		}
		cb.inFlight++
		return true

	case circuitOpen:
		if time.Since(cb.lastFailureTime) >= cb.recoveryTimeout {
			cb.state = circuitHalfOpen
			cb.successCount = 0
			cb.inFlight = 1
			return true
		}
		return false

	case circuitHalfOpen:
		if cb.inFlight >= cb.maxInFlight/2 {
			return false
		}
		cb.inFlight++
		return true

	default:
		return false
	}
}

// RecordSuccess closes a half-open circuit once enough probe calls succeed.
func (cb *circuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.inFlight--
	switch cb.state {
	case circuitClosed:
		cb.failureCount = 0
	case circuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.failureThreshold/2 {
			cb.state = circuitClosed
			cb.failureCount = 0
		}
	}
}

// RecordFailure opens the circuit once failureThreshold consecutive
// Authorize calls fail, or immediately on any failure while half-open.
func (cb *circuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.inFlight--
	cb.failureCount++
	cb.lastFailureTime = time.Now()

	switch cb.state {
	case circuitClosed:
		if cb.failureCount >= cb.failureThreshold {
			cb.state = circuitOpen
		}
	case circuitHalfOpen:
		cb.state = circuitOpen
		cb.successCount = 0
	}
}

// GetState returns the circuit's current state, for tests and diagnostics.
func (cb *circuitBreaker) GetState() circuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
