package core

import "context"

// TokenLedger guarda un registro por ATK emitido, keyed por jti.
// Los writes son best-effort respecto de la operación criptográfica:
// el caller loguea el error y sigue; el ledger no es la fuente de
// verdad de validez.
type TokenLedger interface {
	Record(ctx context.Context, rec *IssuedTokenRecord) error
	GetByJTI(ctx context.Context, jti string) (*IssuedTokenRecord, error)
	UpdateStatus(ctx context.Context, jti string, status TokenStatus) error
	ListForOwner(ctx context.Context, owner string, status TokenStatus, limit int) ([]IssuedTokenRecord, error)
}

// RevocationStore es el ledger append-only de jtis revocados.
// Upsert es idempotente por jti (la colección lleva unique index).
type RevocationStore interface {
	Upsert(ctx context.Context, e *RevocationEntry) error
	Find(ctx context.Context, jti string) (*RevocationEntry, error)
	List(ctx context.Context, limit int) ([]RevocationEntry, error)
}

// Repository agrupa los dos ledgers sobre un mismo backend.
type Repository interface {
	Tokens() TokenLedger
	Revocations() RevocationStore
	Ping(ctx context.Context) error
	EnsureIndexes(ctx context.Context) error
	Close(ctx context.Context) error
}
