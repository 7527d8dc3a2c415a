package token_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/dropDatabas3/heimdall/internal/token"
)

func TestGenerateAIDRoundtrip(t *testing.T) {
	a := token.GenerateAID("aif://issuer.example.com", "gpt-4o", "user-123")

	if _, err := uuid.Parse(a.Instance); err != nil {
		t.Fatalf("instance is not a uuid: %q", a.Instance)
	}

	parsed, err := token.ParseAID(a.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed != a {
		t.Fatalf("roundtrip mismatch: %+v != %+v", parsed, a)
	}
	if parsed.Issuer != "aif://issuer.example.com" {
		t.Fatalf("issuer = %q", parsed.Issuer)
	}
}

func TestGenerateAIDInstancesAreFresh(t *testing.T) {
	a := token.GenerateAID("iss", "m", "u")
	b := token.GenerateAID("iss", "m", "u")
	if a.Instance == b.Instance {
		t.Fatal("two AIDs for the same issuer/model/user share an instance id")
	}
}

func TestParseAIDRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"too/few/parts",
		"iss/model/user/not-a-uuid",
		"/model/user/" + uuid.NewString(), // issuer vacío
		"iss//user/" + uuid.NewString(),   // model vacío
	}
	for _, c := range cases {
		if _, err := token.ParseAID(c); err == nil {
			t.Errorf("ParseAID(%q) succeeded, want error", c)
		}
	}
}

func TestParseAIDIssuerMayContainSlashes(t *testing.T) {
	inst := uuid.NewString()
	s := strings.Join([]string{"aif:", "", "issuer.example.com", "extra", "model-x", "user-1", inst}, "/")

	a, err := token.ParseAID(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Issuer != "aif://issuer.example.com/extra" {
		t.Fatalf("issuer = %q", a.Issuer)
	}
	if a.ModelID != "model-x" || a.UserID != "user-1" || a.Instance != inst {
		t.Fatalf("unexpected parse: %+v", a)
	}
}
