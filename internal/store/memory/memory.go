// Package memory implementa core.Repository en memoria.
// Para desarrollo y tests; no persiste nada.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dropDatabas3/heimdall/internal/store/core"
)

type Store struct {
	mu      sync.RWMutex
	tokens  map[string]core.IssuedTokenRecord
	revoked map[string]core.RevocationEntry
}

func New() *Store {
	return &Store{
		tokens:  make(map[string]core.IssuedTokenRecord),
		revoked: make(map[string]core.RevocationEntry),
	}
}

func (s *Store) Tokens() core.TokenLedger           { return (*tokenLedger)(s) }
func (s *Store) Revocations() core.RevocationStore  { return (*revocationStore)(s) }
func (s *Store) Ping(ctx context.Context) error     { return nil }
func (s *Store) EnsureIndexes(ctx context.Context) error { return nil }
func (s *Store) Close(ctx context.Context) error    { return nil }

// ───────────────────────── token ledger ─────────────────────────

type tokenLedger Store

func (l *tokenLedger) Record(ctx context.Context, rec *core.IssuedTokenRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.tokens[rec.JTI]; ok {
		return core.ErrConflict
	}
	l.tokens[rec.JTI] = *rec
	return nil
}

func (l *tokenLedger) GetByJTI(ctx context.Context, jti string) (*core.IssuedTokenRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.tokens[jti]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &rec, nil
}

func (l *tokenLedger) UpdateStatus(ctx context.Context, jti string, status core.TokenStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.tokens[jti]
	if !ok {
		return core.ErrNotFound
	}
	rec.Status = status
	l.tokens[jti] = rec
	return nil
}

func (l *tokenLedger) ListForOwner(ctx context.Context, owner string, status core.TokenStatus, limit int) ([]core.IssuedTokenRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []core.IssuedTokenRecord
	for _, rec := range l.tokens {
		if rec.Owner != owner {
			continue
		}
		if status != "" && rec.Status != status {
			continue
		}
		out = append(out, rec)
	}
	// Más recientes primero, como el sort de la colección real
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ─────────────────────── revocation store ───────────────────────

type revocationStore Store

func (s *revocationStore) Upsert(ctx context.Context, e *core.RevocationEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[e.JTI] = *e
	return nil
}

func (s *revocationStore) Find(ctx context.Context, jti string) (*core.RevocationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.revoked[jti]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &e, nil
}

func (s *revocationStore) List(ctx context.Context, limit int) ([]core.RevocationEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.RevocationEntry, 0, len(s.revoked))
	for _, e := range s.revoked {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RevokedAt.After(out[j].RevokedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
