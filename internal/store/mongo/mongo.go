// Package mongo implementa core.Repository sobre MongoDB usando el driver
// oficial. Dos colecciones, ambas keyed por jti con unique index:
//
//	issued_tokens: un documento por ATK emitido
//	revoked_atks:  un documento por jti revocado (upsert idempotente)
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dropDatabas3/heimdall/internal/store/core"
)

const (
	issuedTokensCollection  = "issued_tokens"
	revokedTokensCollection = "revoked_atks"

	connectTimeout = 5 * time.Second
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New conecta al servidor y verifica la conexión con un ping.
func New(ctx context.Context, uri, database string) (*Store, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Tokens() core.TokenLedger          { return &tokenLedger{c: s.db.Collection(issuedTokensCollection)} }
func (s *Store) Revocations() core.RevocationStore { return &revocationStore{c: s.db.Collection(revokedTokensCollection)} }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// EnsureIndexes crea los unique index por jti en ambas colecciones.
// Idempotente; se corre en el arranque o via `heimdall indexes`.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "jti", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("jti_1"),
	}
	for _, name := range []string{issuedTokensCollection, revokedTokensCollection} {
		if _, err := s.db.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ───────────────────────── token ledger ─────────────────────────

type tokenLedger struct {
	c *mongo.Collection
}

func (l *tokenLedger) Record(ctx context.Context, rec *core.IssuedTokenRecord) error {
	_, err := l.c.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return core.ErrConflict
	}
	return err
}

func (l *tokenLedger) GetByJTI(ctx context.Context, jti string) (*core.IssuedTokenRecord, error) {
	var rec core.IssuedTokenRecord
	err := l.c.FindOne(ctx, bson.M{"jti": jti}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (l *tokenLedger) UpdateStatus(ctx context.Context, jti string, status core.TokenStatus) error {
	res, err := l.c.UpdateOne(ctx, bson.M{"jti": jti}, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (l *tokenLedger) ListForOwner(ctx context.Context, owner string, status core.TokenStatus, limit int) ([]core.IssuedTokenRecord, error) {
	filter := bson.M{"owner": owner}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "issued_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := l.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []core.IssuedTokenRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ─────────────────────── revocation store ───────────────────────

type revocationStore struct {
	c *mongo.Collection
}

func (s *revocationStore) Upsert(ctx context.Context, e *core.RevocationEntry) error {
	set := bson.M{
		"jti":        e.JTI,
		"revoked_at": e.RevokedAt,
	}
	if e.RevokedBy != "" {
		set["revoked_by"] = e.RevokedBy
	}
	if e.OriginalExp != nil {
		set["original_exp"] = e.OriginalExp
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"jti": e.JTI},
		bson.M{"$set": set},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *revocationStore) Find(ctx context.Context, jti string) (*core.RevocationEntry, error) {
	var e core.RevocationEntry
	err := s.c.FindOne(ctx, bson.M{"jti": jti}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *revocationStore) List(ctx context.Context, limit int) ([]core.RevocationEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "revoked_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []core.RevocationEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
