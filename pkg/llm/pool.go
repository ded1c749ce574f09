package llm

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/museme-app/museme-engine/pkg/apperrors"
	"github.com/museme-app/museme-engine/pkg/models"
)

// CredentialStore is the persistence boundary the pool needs. Implemented by
// repositories.CredentialRepository.
type CredentialStore interface {
	// ListActive returns active credentials in least-recently-used order.
	ListActive(ctx context.Context) ([]*models.Credential, error)

	// RecordUsage bumps usage bookkeeping for the credential with the given
	// key value. Returns apperrors.ErrNotFound for keys the store does not
	// hold (static fallback keys).
	RecordUsage(ctx context.Context, keyValue string, success bool) error
}

// CredentialPool presents an ordered, rotating view over currently active
// credentials. Load order is least-recently-used, so a credential that errors
// and is skipped still cycles back fairly. The cursor is pool-local and never
// persisted.
//
// Construct one pool per orchestration service instance; all methods are safe
// for concurrent use.
type CredentialPool struct {
	store    CredentialStore
	fallback []string
	logger   *zap.Logger

	mu     sync.Mutex
	keys   []string
	cursor int
}

// NewCredentialPool creates a pool over the given store plus a static
// fallback key list. The pool starts empty; the first Next triggers a load.
func NewCredentialPool(store CredentialStore, fallback []string, logger *zap.Logger) *CredentialPool {
	return &CredentialPool{
		store:    store,
		fallback: fallback,
		logger:   logger.Named("credential-pool"),
	}
}

// Load refreshes the rotation from the store and merges in fallback keys not
// already present, de-duplicated by value. A store failure degrades silently
// to the fallback list alone; callers treat an empty pool as "no credentials
// available".
func (p *CredentialPool) Load(ctx context.Context) {
	var keys []string
	seen := make(map[string]struct{})

	creds, err := p.store.ListActive(ctx)
	if err != nil {
		p.logger.Warn("failed to load credentials from store, using fallback only", zap.Error(err))
	} else {
		for _, c := range creds {
			if _, ok := seen[c.KeyValue]; ok {
				continue
			}
			seen[c.KeyValue] = struct{}{}
			keys = append(keys, c.KeyValue)
		}
	}

	for _, k := range p.fallback {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	p.mu.Lock()
	p.keys = keys
	if p.cursor >= len(keys) {
		p.cursor = 0
	}
	p.mu.Unlock()
}

// Next returns the credential at the cursor and advances the cursor modulo
// pool size. When the pool is empty it attempts one refresh before reporting
// unavailable (ok == false, not an error).
func (p *CredentialPool) Next(ctx context.Context) (string, bool) {
	p.mu.Lock()
	if len(p.keys) == 0 {
		p.mu.Unlock()
		p.Load(ctx)
		p.mu.Lock()
	}

	if len(p.keys) == 0 {
		p.mu.Unlock()
		return "", false
	}

	key := p.keys[p.cursor]
	p.cursor = (p.cursor + 1) % len(p.keys)
	p.mu.Unlock()
	return key, true
}

// Size returns the current pool size, attempting one load when empty.
func (p *CredentialPool) Size(ctx context.Context) int {
	p.mu.Lock()
	n := len(p.keys)
	p.mu.Unlock()

	if n == 0 {
		p.Load(ctx)
		p.mu.Lock()
		n = len(p.keys)
		p.mu.Unlock()
	}
	return n
}

// RecordOutcome writes usage bookkeeping for one dispatch attempt. It is
// best-effort: a failure to persist must never fail the caller's request.
// Fallback keys have no store row and are skipped quietly.
func (p *CredentialPool) RecordOutcome(ctx context.Context, keyValue string, success bool) {
	err := p.store.RecordUsage(ctx, keyValue, success)
	if err == nil {
		return
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		p.logger.Debug("skipping usage bookkeeping for unmanaged credential")
		return
	}
	p.logger.Warn("failed to record credential usage", zap.Error(err))
}
