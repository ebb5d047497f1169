package pricesource

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrCircuitOpen is returned without calling the source while the breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the state of a CircuitBreaker.
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a CircuitBreaker. Zero values take defaults.
type BreakerConfig struct {
	// FailureThreshold consecutive failures open the circuit.
	FailureThreshold int
	// SuccessThreshold trial successes in half-open close it again.
	SuccessThreshold int
	// Cooldown is how long the circuit stays open before a trial call.
	Cooldown time.Duration
}

// BreakerStats counts calls seen by a CircuitBreaker.
type BreakerStats struct {
	Succeeded    int64 `json:"succeeded"`
	Failed       int64 `json:"failed"`
	Rejected     int64 `json:"rejected"`
	StateChanges int64 `json:"state_changes"`
}

// CircuitBreaker stops hammering a marketplace that keeps failing.
type CircuitBreaker struct {
	name   string
	cfg    BreakerConfig
	logger logrus.FieldLogger
	now    func() time.Time

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	openedAt  time.Time
	stats     BreakerStats
	// trial is set while the single half-open call is running.
	trial bool
}

func NewCircuitBreaker(name string, cfg BreakerConfig, logger logrus.FieldLogger) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = time.Minute
	}

	return &CircuitBreaker{
		name:   name,
		cfg:    cfg,
		logger: logger.WithField("circuit_breaker", name),
		now:    time.Now,
		state:  StateClosed,
	}
}

// Execute runs fn unless the circuit is open. In half-open only one call runs
// at a time; concurrent callers get ErrCircuitOpen. Cancellation of ctx is
// not counted as a failure of the source.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	trial, ok := cb.allow()
	if !ok {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		if trial {
			cb.endTrial()
		}
		return err
	}
	cb.record(err, trial)
	return err
}

func (cb *CircuitBreaker) allow() (trial, ok bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.cfg.Cooldown {
			cb.stats.Rejected++
			return false, false
		}
		cb.setState(StateHalfOpen)
		cb.successes = 0
	}
	if cb.state == StateHalfOpen {
		if cb.trial {
			cb.stats.Rejected++
			return false, false
		}
		cb.trial = true
		return true, true
	}
	return false, true
}

func (cb *CircuitBreaker) endTrial() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.trial = false
}

func (cb *CircuitBreaker) record(err error, trial bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if trial {
		cb.trial = false
	}

	if err == nil {
		cb.stats.Succeeded++
		cb.failures = 0
		if cb.state == StateHalfOpen {
			cb.successes++
			if cb.successes >= cb.cfg.SuccessThreshold {
				cb.setState(StateClosed)
			}
		}
		return
	}

	cb.stats.Failed++
	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		cb.openedAt = cb.now()
		cb.setState(StateOpen)
	}
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(next BreakerState) {
	if cb.state == next {
		return
	}

	cb.logger.WithFields(logrus.Fields{
		"old_state":     cb.state.String(),
		"new_state":     next.String(),
		"failure_count": cb.failures,
	}).Info("Circuit breaker state changed")

	cb.state = next
	cb.stats.StateChanges++
}

func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Stats() BreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.stats
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.setState(StateClosed)
	cb.failures = 0
	cb.successes = 0
	cb.trial = false
}

// GuardedSource runs every fetch of the wrapped source through a breaker.
type GuardedSource struct {
	source  Source
	breaker *CircuitBreaker
}

func NewGuardedSource(source Source, breaker *CircuitBreaker) *GuardedSource {
	return &GuardedSource{source: source, breaker: breaker}
}

func (g *GuardedSource) FetchPrice(ctx context.Context, article string) (float64, error) {
	var price float64
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		price, err = g.source.FetchPrice(ctx, article)
		return err
	})
	return price, err
}

func (g *GuardedSource) Breaker() *CircuitBreaker { return g.breaker }
