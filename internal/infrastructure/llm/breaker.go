package llm

import (
	"context"
	"time"

	cb "github.com/sony/gobreaker"

	"GrowthRanker/internal/config"
	"GrowthRanker/internal/ports"
)

// Breaker trips after repeated collaborator failures so a dead endpoint
// fails the remaining records fast instead of waiting out each timeout.
type Breaker struct {
	next ports.Completer
	cb   *cb.CircuitBreaker
}

var _ ports.Completer = (*Breaker)(nil)

// NewBreaker wraps next with a circuit breaker configured from cfg.
func NewBreaker(name string, next ports.Completer, cfg config.BreakerConfig) *Breaker {
	threshold := cfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 3
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 60 * time.Second
	}

	st := cb.Settings{Name: name}
	st.Timeout = openTimeout
	st.ReadyToTrip = func(counts cb.Counts) bool {
		return counts.ConsecutiveFailures >= threshold
	}

	return &Breaker{next: next, cb: cb.NewCircuitBreaker(st)}
}

// Complete forwards to the wrapped completer unless the breaker is open.
func (b *Breaker) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return b.next.Complete(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state for logs.
func (b *Breaker) State() string {
	return b.cb.State().String()
}
