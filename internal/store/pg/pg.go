// Package pg implementa core.Repository sobre Postgres con pgxpool.
// Mismo modelo que el adapter mongo: dos tablas keyed por jti con
// unique constraint (ver migrations/ embebidas en este package).
package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/heimdall/internal/store/core"
)

type Store struct{ pool *pgxpool.Pool }

func New(ctx context.Context, dsn string) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 5
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Tokens() core.TokenLedger          { return (*tokenLedger)(s) }
func (s *Store) Revocations() core.RevocationStore { return (*revocationStore)(s) }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// EnsureIndexes crea el schema si no existe (DDL idempotente, corre la
// migración embebida).
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

func (s *Store) Close(ctx context.Context) error {
	s.pool.Close()
	return nil
}

// Pool expone el pool interno (metrics/migraciones).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ───────────────────────── token ledger ─────────────────────────

type tokenLedger Store

func (l *tokenLedger) Record(ctx context.Context, rec *core.IssuedTokenRecord) error {
	const q = `
		INSERT INTO issued_tokens (jti, owner_id, aid, user_id, audience, purpose, permissions, status, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := l.pool.Exec(ctx, q,
		rec.JTI, rec.Owner, rec.AID, rec.UserID, rec.Audience, rec.Purpose,
		rec.Permissions, string(rec.Status), rec.IssuedAt, rec.ExpiresAt)
	if isUniqueViolation(err) {
		return core.ErrConflict
	}
	return err
}

func (l *tokenLedger) GetByJTI(ctx context.Context, jti string) (*core.IssuedTokenRecord, error) {
	const q = `
		SELECT jti, owner_id, aid, user_id, audience, purpose, permissions, status, issued_at, expires_at
		FROM issued_tokens WHERE jti = $1`
	var rec core.IssuedTokenRecord
	var status string
	err := l.pool.QueryRow(ctx, q, jti).Scan(
		&rec.JTI, &rec.Owner, &rec.AID, &rec.UserID, &rec.Audience, &rec.Purpose,
		&rec.Permissions, &status, &rec.IssuedAt, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Status = core.TokenStatus(status)
	return &rec, nil
}

func (l *tokenLedger) UpdateStatus(ctx context.Context, jti string, status core.TokenStatus) error {
	const q = `UPDATE issued_tokens SET status = $2 WHERE jti = $1`
	ct, err := l.pool.Exec(ctx, q, jti, string(status))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (l *tokenLedger) ListForOwner(ctx context.Context, owner string, status core.TokenStatus, limit int) ([]core.IssuedTokenRecord, error) {
	q := `
		SELECT jti, owner_id, aid, user_id, audience, purpose, permissions, status, issued_at, expires_at
		FROM issued_tokens WHERE owner_id = $1`
	args := []any{owner}
	if status != "" {
		q += ` AND status = $2`
		args = append(args, string(status))
	}
	q += ` ORDER BY issued_at DESC`
	if limit > 0 {
		args = append(args, limit)
		if status != "" {
			q += ` LIMIT $3`
		} else {
			q += ` LIMIT $2`
		}
	}
	rows, err := l.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.IssuedTokenRecord
	for rows.Next() {
		var rec core.IssuedTokenRecord
		var st string
		if err := rows.Scan(&rec.JTI, &rec.Owner, &rec.AID, &rec.UserID, &rec.Audience,
			&rec.Purpose, &rec.Permissions, &st, &rec.IssuedAt, &rec.ExpiresAt); err != nil {
			return nil, err
		}
		rec.Status = core.TokenStatus(st)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ─────────────────────── revocation store ───────────────────────

type revocationStore Store

func (s *revocationStore) Upsert(ctx context.Context, e *core.RevocationEntry) error {
	const q = `
		INSERT INTO revoked_atks (jti, revoked_at, revoked_by, original_exp)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (jti) DO UPDATE SET
			revoked_at = EXCLUDED.revoked_at,
			revoked_by = COALESCE(EXCLUDED.revoked_by, revoked_atks.revoked_by)`
	_, err := s.pool.Exec(ctx, q, e.JTI, e.RevokedAt, e.RevokedBy, e.OriginalExp)
	return err
}

func (s *revocationStore) Find(ctx context.Context, jti string) (*core.RevocationEntry, error) {
	const q = `SELECT jti, revoked_at, COALESCE(revoked_by, ''), original_exp FROM revoked_atks WHERE jti = $1`
	var e core.RevocationEntry
	var origExp *time.Time
	err := s.pool.QueryRow(ctx, q, jti).Scan(&e.JTI, &e.RevokedAt, &e.RevokedBy, &origExp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.OriginalExp = origExp
	return &e, nil
}

func (s *revocationStore) List(ctx context.Context, limit int) ([]core.RevocationEntry, error) {
	q := `SELECT jti, revoked_at, COALESCE(revoked_by, ''), original_exp FROM revoked_atks ORDER BY revoked_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.RevocationEntry
	for rows.Next() {
		var e core.RevocationEntry
		var origExp *time.Time
		if err := rows.Scan(&e.JTI, &e.RevokedAt, &e.RevokedBy, &origExp); err != nil {
			return nil, err
		}
		e.OriginalExp = origExp
		out = append(out, e)
	}
	return out, rows.Err()
}
