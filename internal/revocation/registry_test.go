package revocation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/heimdall/internal/revocation"
	"github.com/dropDatabas3/heimdall/internal/store/core"
	"github.com/dropDatabas3/heimdall/internal/store/memory"
)

var errDown = errors.New("store down")

// brokenRevocations falla todas las operaciones, para probar que los
// fallos de storage nunca se coercionan a "no revocado".
type brokenRevocations struct{}

func (brokenRevocations) Upsert(context.Context, *core.RevocationEntry) error { return errDown }
func (brokenRevocations) Find(context.Context, string) (*core.RevocationEntry, error) {
	return nil, errDown
}
func (brokenRevocations) List(context.Context, int) ([]core.RevocationEntry, error) {
	return nil, errDown
}

type brokenLedger struct{}

func (brokenLedger) Record(context.Context, *core.IssuedTokenRecord) error { return errDown }
func (brokenLedger) GetByJTI(context.Context, string) (*core.IssuedTokenRecord, error) {
	return nil, errDown
}
func (brokenLedger) UpdateStatus(context.Context, string, core.TokenStatus) error { return errDown }
func (brokenLedger) ListForOwner(context.Context, string, core.TokenStatus, int) ([]core.IssuedTokenRecord, error) {
	return nil, errDown
}

func seedToken(t *testing.T, st *memory.Store, jti, owner string) {
	t.Helper()
	err := st.Tokens().Record(context.Background(), &core.IssuedTokenRecord{
		JTI:       jti,
		Owner:     owner,
		AID:       "iss/m/u/" + jti,
		Audience:  "sp",
		Purpose:   "p",
		Status:    core.TokenActive,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	st := memory.New()
	seedToken(t, st, "jti-1", "owner-a")
	reg := revocation.NewRegistry(st.Revocations(), st.Tokens())
	ctx := context.Background()

	if err := reg.Revoke(ctx, "jti-1", "owner-a", nil); err != nil {
		t.Fatalf("first revoke: %v", err)
	}
	if err := reg.Revoke(ctx, "jti-1", "owner-a", nil); err != nil {
		t.Fatalf("second revoke not idempotent: %v", err)
	}
	if got := reg.IsRevoked(ctx, "jti-1"); got != revocation.Revoked {
		t.Fatalf("status = %v, want Revoked", got)
	}
}

func TestRevokePropagatesStatusToLedger(t *testing.T) {
	st := memory.New()
	seedToken(t, st, "jti-2", "owner-a")
	reg := revocation.NewRegistry(st.Revocations(), st.Tokens())
	ctx := context.Background()

	if err := reg.Revoke(ctx, "jti-2", "owner-a", nil); err != nil {
		t.Fatal(err)
	}
	rec, err := st.Tokens().GetByJTI(ctx, "jti-2")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != core.TokenRevoked {
		t.Fatalf("ledger status = %v, want revoked", rec.Status)
	}
}

func TestIsRevokedTriState(t *testing.T) {
	ctx := context.Background()

	st := memory.New()
	seedToken(t, st, "known", "o")
	reg := revocation.NewRegistry(st.Revocations(), st.Tokens())

	if got := reg.IsRevoked(ctx, "known"); got != revocation.NotRevoked {
		t.Fatalf("fresh token: %v, want NotRevoked", got)
	}
	if err := reg.Revoke(ctx, "known", "o", nil); err != nil {
		t.Fatal(err)
	}
	if got := reg.IsRevoked(ctx, "known"); got != revocation.Revoked {
		t.Fatalf("after revoke: %v, want Revoked", got)
	}

	broken := revocation.NewRegistry(brokenRevocations{}, brokenLedger{})
	if got := broken.IsRevoked(ctx, "anything"); got != revocation.StatusLookupFailed {
		t.Fatalf("broken store: %v, want StatusLookupFailed", got)
	}
	if got := reg.IsRevoked(ctx, ""); got != revocation.StatusLookupFailed {
		t.Fatalf("empty jti: %v, want StatusLookupFailed", got)
	}
}

func TestExpiryIsNotRevocation(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	err := st.Tokens().Record(ctx, &core.IssuedTokenRecord{
		JTI: "expired", Owner: "o", Status: core.TokenActive,
		IssuedAt:  time.Now().UTC().Add(-2 * time.Hour),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	reg := revocation.NewRegistry(st.Revocations(), st.Tokens())

	// Un token vencido que nunca fue revocado sigue siendo NotRevoked;
	// exp lo valida el verifier del JWT, no este registry.
	if got := reg.IsRevoked(ctx, "expired"); got != revocation.NotRevoked {
		t.Fatalf("expired token: %v, want NotRevoked", got)
	}
}

func TestCanRevokeOwnershipRule(t *testing.T) {
	st := memory.New()
	seedToken(t, st, "jti-3", "owner-a")
	reg := revocation.NewRegistry(st.Revocations(), st.Tokens())
	ctx := context.Background()

	if got := reg.CanRevoke(ctx, "owner-a", "jti-3"); got != revocation.Allowed {
		t.Fatalf("issuing owner: %v, want Allowed", got)
	}
	if got := reg.CanRevoke(ctx, "owner-b", "jti-3"); got != revocation.Denied {
		t.Fatalf("other owner: %v, want Denied", got)
	}
	if got := reg.CanRevoke(ctx, "owner-a", "never-issued"); got != revocation.Denied {
		t.Fatalf("unknown jti: %v, want Denied", got)
	}
	if got := reg.CanRevoke(ctx, "", "jti-3"); got != revocation.Denied {
		t.Fatalf("empty owner: %v, want Denied", got)
	}

	broken := revocation.NewRegistry(brokenRevocations{}, brokenLedger{})
	if got := broken.CanRevoke(ctx, "owner-a", "jti-3"); got != revocation.DecisionLookupFailed {
		t.Fatalf("broken ledger: %v, want DecisionLookupFailed", got)
	}
}

func TestListRevokedFiltersByOwner(t *testing.T) {
	st := memory.New()
	seedToken(t, st, "a1", "owner-a")
	seedToken(t, st, "a2", "owner-a")
	seedToken(t, st, "b1", "owner-b")
	reg := revocation.NewRegistry(st.Revocations(), st.Tokens())
	ctx := context.Background()

	for _, jti := range []string{"a1", "a2", "b1"} {
		if err := reg.Revoke(ctx, jti, "irrelevant", nil); err != nil {
			t.Fatal(err)
		}
	}
	// Una revocación sin registro de emisión no puede atribuirse
	if err := reg.Revoke(ctx, "orphan", "x", nil); err != nil {
		t.Fatal(err)
	}

	views, err := reg.ListRevoked(ctx, "owner-a", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 {
		t.Fatalf("views = %d, want 2", len(views))
	}
	for _, v := range views {
		if v.JTI != "a1" && v.JTI != "a2" {
			t.Fatalf("foreign jti in owner view: %q", v.JTI)
		}
		if v.AID == "" || v.Audience != "sp" {
			t.Fatalf("view not enriched: %+v", v)
		}
	}

	all, err := reg.ListRevoked(ctx, "", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("unfiltered views = %d, want 4 (orphan included)", len(all))
	}
}
