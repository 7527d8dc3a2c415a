package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dropDatabas3/heimdall/internal/store/core"
	"github.com/dropDatabas3/heimdall/internal/store/memory"
)

func rec(jti, owner string, issuedAt time.Time) *core.IssuedTokenRecord {
	return &core.IssuedTokenRecord{
		JTI:       jti,
		Owner:     owner,
		Status:    core.TokenActive,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(15 * time.Minute),
	}
}

func TestTokenLedgerRecordAndGet(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.Tokens().Record(ctx, rec("j1", "o1", now)); err != nil {
		t.Fatal(err)
	}
	got, err := st.Tokens().GetByJTI(ctx, "j1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Owner != "o1" {
		t.Fatalf("owner = %q", got.Owner)
	}

	if err := st.Tokens().Record(ctx, rec("j1", "o1", now)); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate jti: %v, want ErrConflict", err)
	}
	if _, err := st.Tokens().GetByJTI(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing jti: %v, want ErrNotFound", err)
	}
}

func TestTokenLedgerUpdateStatus(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	if err := st.Tokens().UpdateStatus(ctx, "nope", core.TokenRevoked); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown jti: %v, want ErrNotFound", err)
	}

	if err := st.Tokens().Record(ctx, rec("j1", "o1", time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	if err := st.Tokens().UpdateStatus(ctx, "j1", core.TokenRevoked); err != nil {
		t.Fatal(err)
	}
	got, _ := st.Tokens().GetByJTI(ctx, "j1")
	if got.Status != core.TokenRevoked {
		t.Fatalf("status = %v", got.Status)
	}
}

func TestTokenLedgerListForOwner(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, jti := range []string{"old", "mid", "new"} {
		if err := st.Tokens().Record(ctx, rec(jti, "o1", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.Tokens().Record(ctx, rec("other", "o2", base)); err != nil {
		t.Fatal(err)
	}
	if err := st.Tokens().UpdateStatus(ctx, "mid", core.TokenRevoked); err != nil {
		t.Fatal(err)
	}

	all, err := st.Tokens().ListForOwner(ctx, "o1", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].JTI != "new" || all[2].JTI != "old" {
		t.Fatalf("not sorted newest first: %v, %v", all[0].JTI, all[2].JTI)
	}

	active, err := st.Tokens().ListForOwner(ctx, "o1", core.TokenActive, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}

	limited, err := st.Tokens().ListForOwner(ctx, "o1", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 || limited[0].JTI != "new" {
		t.Fatalf("limited = %v", limited)
	}
}

func TestRevocationStoreUpsertFindList(t *testing.T) {
	st := memory.New()
	ctx := context.Background()

	if _, err := st.Revocations().Find(ctx, "j1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("find before upsert: %v, want ErrNotFound", err)
	}

	first := &core.RevocationEntry{JTI: "j1", RevokedAt: time.Now().UTC(), RevokedBy: "o1"}
	if err := st.Revocations().Upsert(ctx, first); err != nil {
		t.Fatal(err)
	}
	// Upsert del mismo jti pisa la entrada, no falla
	second := &core.RevocationEntry{JTI: "j1", RevokedAt: first.RevokedAt.Add(time.Second), RevokedBy: "o1"}
	if err := st.Revocations().Upsert(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := st.Revocations().Find(ctx, "j1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.RevokedAt.Equal(second.RevokedAt) {
		t.Fatalf("upsert did not replace: %v", got.RevokedAt)
	}

	if err := st.Revocations().Upsert(ctx, &core.RevocationEntry{JTI: "j2", RevokedAt: time.Now().UTC().Add(time.Minute)}); err != nil {
		t.Fatal(err)
	}
	list, err := st.Revocations().List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].JTI != "j2" {
		t.Fatalf("list = %+v", list)
	}
}
