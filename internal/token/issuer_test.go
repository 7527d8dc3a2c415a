package token_test

import (
	"context"
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/heimdall/internal/keys"
	"github.com/dropDatabas3/heimdall/internal/store/core"
	"github.com/dropDatabas3/heimdall/internal/store/memory"
	"github.com/dropDatabas3/heimdall/internal/token"
)

func newTestIssuer(t *testing.T, ledger core.TokenLedger) *token.Issuer {
	t.Helper()
	km := keys.NewManager(t.TempDir(), "test-kid")
	if err := km.Load(false); err != nil {
		t.Fatalf("keys: %v", err)
	}
	return token.NewIssuer(token.Config{
		IssuerID:            "aif://test.example.com",
		TokenTTL:            5 * time.Minute,
		SupportedModels:     []string{"model-a"},
		StandardPermissions: []string{"read:email", "send:email"},
		DefaultTrustTags:    map[string]string{"issuer_assurance": "high"},
		AllowedTrustTagKeys: []string{"issuer_assurance", "agent_environment"},
	}, km, ledger)
}

func parseClaims(t *testing.T, iss *token.Issuer, signed string) (jwtv5.MapClaims, map[string]any) {
	t.Helper()
	priv, _, err := iss.Keys.Signer()
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	claims := jwtv5.MapClaims{}
	parsed, err := jwtv5.ParseWithClaims(signed, claims, func(*jwtv5.Token) (any, error) {
		return priv.Public(), nil
	}, jwtv5.WithValidMethods([]string{"EdDSA"}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Valid {
		t.Fatal("token invalid")
	}
	return claims, parsed.Header
}

func TestIssueSignsExpectedClaims(t *testing.T) {
	iss := newTestIssuer(t, nil)

	res, err := iss.Issue(context.Background(), token.Request{
		Owner:       "builder-1",
		UserID:      "user-9",
		Audience:    "sp.example.com",
		Permissions: []string{"read:email"},
		Purpose:     "summarize inbox",
		ModelID:     "model-a",
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, header := parseClaims(t, iss, res.Token)

	if header["kid"] != "test-kid" || header["typ"] != "JWT" {
		t.Fatalf("header = %v", header)
	}
	if claims["iss"] != "aif://test.example.com" {
		t.Fatalf("iss = %v", claims["iss"])
	}
	if claims["aud"] != "sp.example.com" {
		t.Fatalf("aud = %v", claims["aud"])
	}
	if claims["purpose"] != "summarize inbox" {
		t.Fatalf("purpose = %v", claims["purpose"])
	}
	if claims["jti"] != res.JTI {
		t.Fatalf("jti claim %v != result %v", claims["jti"], res.JTI)
	}
	if _, err := uuid.Parse(res.JTI); err != nil {
		t.Fatalf("jti is not a uuid: %q", res.JTI)
	}

	aid, err := token.ParseAID(claims["sub"].(string))
	if err != nil {
		t.Fatalf("sub is not an AID: %v", err)
	}
	if aid.Issuer != "aif://test.example.com" || aid.ModelID != "model-a" || aid.UserID != "user-9" {
		t.Fatalf("aid = %+v", aid)
	}

	tags, ok := claims["trust_tags"].(map[string]any)
	if !ok {
		t.Fatalf("trust_tags missing: %v", claims)
	}
	if tags["issuer_assurance"] != "high" {
		t.Fatalf("trust_tags = %v", tags)
	}

	gotExp := int64(claims["exp"].(float64))
	gotIat := int64(claims["iat"].(float64))
	if gotExp-gotIat != int64((5 * time.Minute).Seconds()) {
		t.Fatalf("ttl = %ds", gotExp-gotIat)
	}
}

func TestIssueJTIsAreUnique(t *testing.T) {
	iss := newTestIssuer(t, nil)
	req := token.Request{
		Owner: "b", UserID: "u", Audience: "sp",
		Permissions: []string{"read:email"}, Purpose: "p", ModelID: "model-a",
	}

	a, err := iss.Issue(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := iss.Issue(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if a.JTI == b.JTI {
		t.Fatal("two issuances share a jti")
	}
	if a.AID == b.AID {
		t.Fatal("two issuances share an AID instance")
	}
}

func TestIssueRejectsWhenNoValidPermissions(t *testing.T) {
	iss := newTestIssuer(t, nil)

	_, err := iss.Issue(context.Background(), token.Request{
		Owner: "b", UserID: "u", Audience: "sp",
		Permissions: []string{"", "   "},
		Purpose:     "p", ModelID: "model-a",
	})
	if !errors.Is(err, token.ErrNoValidPermissions) {
		t.Fatalf("err = %v, want ErrNoValidPermissions", err)
	}
}

func TestIssueAllowsCustomPermissionsAndUnknownModel(t *testing.T) {
	iss := newTestIssuer(t, nil)

	res, err := iss.Issue(context.Background(), token.Request{
		Owner: "b", UserID: "u", Audience: "sp",
		Permissions: []string{"weird:custom-scope"},
		Purpose:     "p", ModelID: "unknown-model",
	})
	if err != nil {
		t.Fatalf("lenient issuance failed: %v", err)
	}

	claims, _ := parseClaims(t, iss, res.Token)
	perms := claims["permissions"].([]any)
	if len(perms) != 1 || perms[0] != "weird:custom-scope" {
		t.Fatalf("permissions = %v", perms)
	}
}

func TestIssueDropsUnknownTrustTagOverrides(t *testing.T) {
	iss := newTestIssuer(t, nil)

	res, err := iss.Issue(context.Background(), token.Request{
		Owner: "b", UserID: "u", Audience: "sp",
		Permissions: []string{"read:email"}, Purpose: "p", ModelID: "model-a",
		OverrideTrustTags: map[string]string{
			"agent_environment": "staging",
			"not_in_allowlist":  "x",
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	claims, _ := parseClaims(t, iss, res.Token)
	tags := claims["trust_tags"].(map[string]any)
	if tags["agent_environment"] != "staging" {
		t.Fatalf("allowed override lost: %v", tags)
	}
	if _, ok := tags["not_in_allowlist"]; ok {
		t.Fatalf("disallowed key leaked into claims: %v", tags)
	}
}

func TestIssueRecordsInLedger(t *testing.T) {
	st := memory.New()
	iss := newTestIssuer(t, st.Tokens())

	res, err := iss.Issue(context.Background(), token.Request{
		Owner: "builder-1", UserID: "u", Audience: "sp",
		Permissions: []string{"read:email"}, Purpose: "p", ModelID: "model-a",
	})
	if err != nil {
		t.Fatal(err)
	}

	rec, err := st.Tokens().GetByJTI(context.Background(), res.JTI)
	if err != nil {
		t.Fatalf("ledger record missing right after issuance: %v", err)
	}
	if rec.Owner != "builder-1" || rec.Status != core.TokenActive {
		t.Fatalf("record = %+v", rec)
	}
	if !rec.ExpiresAt.Equal(res.ExpiresAt) {
		t.Fatalf("exp mismatch: %v != %v", rec.ExpiresAt, res.ExpiresAt)
	}
}

func TestIssueSurvivesLedgerFailure(t *testing.T) {
	iss := newTestIssuer(t, failingLedger{})

	res, err := iss.Issue(context.Background(), token.Request{
		Owner: "b", UserID: "u", Audience: "sp",
		Permissions: []string{"read:email"}, Purpose: "p", ModelID: "model-a",
	})
	if err != nil {
		t.Fatalf("ledger failure must not block issuance: %v", err)
	}
	if res.Token == "" {
		t.Fatal("empty token")
	}
}

type failingLedger struct{}

var errDown = errors.New("store down")

func (failingLedger) Record(context.Context, *core.IssuedTokenRecord) error { return errDown }
func (failingLedger) GetByJTI(context.Context, string) (*core.IssuedTokenRecord, error) {
	return nil, errDown
}
func (failingLedger) UpdateStatus(context.Context, string, core.TokenStatus) error { return errDown }
func (failingLedger) ListForOwner(context.Context, string, core.TokenStatus, int) ([]core.IssuedTokenRecord, error) {
	return nil, errDown
}
