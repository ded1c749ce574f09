package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/apperrors"
)

// DefaultBackoffBase is the unit of linear backoff between retryable
// failures: sleep = attempts × base, attempts counted across the whole
// budget.
const DefaultBackoffBase = time.Second

// DispatchResult is the outcome of a dispatch: raw response text and the
// credential that produced it. On a fatal upstream failure only
// CredentialUsed is set.
type DispatchResult struct {
	Text           string
	CredentialUsed string
}

// Dispatcher calls the external generation API reliably despite individual
// credentials being rate limited or quota exhausted. It rotates through the
// credential pool, backing off linearly on retryable failures, and aborts
// immediately on fatal ones.
type Dispatcher struct {
	generator   Generator
	pool        *CredentialPool
	backoffBase time.Duration
	logger      *zap.Logger
}

// NewDispatcher creates a dispatcher over a generator and credential pool.
func NewDispatcher(generator Generator, pool *CredentialPool, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		generator:   generator,
		pool:        pool,
		backoffBase: DefaultBackoffBase,
		logger:      logger.Named("dispatcher"),
	}
}

// SetBackoffBase overrides the linear backoff unit. Tests use a tiny value.
func (d *Dispatcher) SetBackoffBase(base time.Duration) {
	d.backoffBase = base
}

// Dispatch issues a generation call with bounded retry and credential
// failover. The pool is refreshed from the store at the start of every
// dispatch, so credentials added, removed, or deactivated between requests
// take effect on the next one. The total attempt budget is
// maxRetriesPerCredential times the pool size at start. Retryable failures
// consume one unit of budget, sleep
// attempts × backoff base, and rotate to the next credential; fatal failures
// return immediately with the underlying error and the credential used.
// Every attempt records a usage outcome against the store, best-effort.
//
// The backoff wait honors ctx cancellation so concurrent dispatches are
// never stalled by each other.
func (d *Dispatcher) Dispatch(ctx context.Context, prompt string, maxRetriesPerCredential int) (*DispatchResult, error) {
	d.pool.Load(ctx)
	poolSize := d.pool.Size(ctx)
	if poolSize == 0 {
		return nil, apperrors.ErrNoCredentials
	}

	attemptBudget := maxRetriesPerCredential * poolSize
	attempts := 0

	for attempts < attemptBudget {
		key, ok := d.pool.Next(ctx)
		if !ok {
			return nil, apperrors.ErrNoCredentials
		}

		text, err := d.generator.Generate(ctx, prompt, key)
		if err == nil {
			d.pool.RecordOutcome(ctx, key, true)
			return &DispatchResult{Text: text, CredentialUsed: key}, nil
		}

		d.pool.RecordOutcome(ctx, key, false)

		if !IsRetryable(err) {
			d.logger.Warn("fatal upstream failure, aborting dispatch", zap.Error(err))
			return &DispatchResult{CredentialUsed: key}, err
		}

		attempts++
		d.logger.Debug("retryable upstream failure, rotating credential",
			zap.Int("attempt", attempts),
			zap.Int("budget", attemptBudget),
			zap.Error(err))

		if attempts >= attemptBudget {
			break
		}

		select {
		case <-time.After(time.Duration(attempts) * d.backoffBase):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, apperrors.ErrRetriesExhausted
}
