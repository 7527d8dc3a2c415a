package keys_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dropDatabas3/heimdall/internal/keys"
)

func TestLoadGeneratesPairAndReloadsSame(t *testing.T) {
	dir := t.TempDir()

	m := keys.NewManager(dir, "test-key-01")
	if err := m.Load(false); err != nil {
		t.Fatalf("first load: %v", err)
	}

	priv, kid, err := m.Signer()
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	if kid != "test-key-01" {
		t.Fatalf("kid = %q, want test-key-01", kid)
	}

	// Los archivos quedaron en disco con los permisos correctos
	st, err := os.Stat(filepath.Join(dir, "atk_private_key.pem"))
	if err != nil {
		t.Fatalf("private key file: %v", err)
	}
	if st.Mode().Perm() != 0600 {
		t.Fatalf("private key perms = %v, want 0600", st.Mode().Perm())
	}

	// Un segundo manager sobre el mismo dir tiene que cargar la MISMA clave
	m2 := keys.NewManager(dir, "test-key-01")
	priv2, _, err := m2.Signer()
	if err != nil {
		t.Fatalf("second manager signer: %v", err)
	}
	if !priv.Equal(priv2) {
		t.Fatal("second manager loaded a different private key")
	}
}

func TestJWKSVerifiesSignatures(t *testing.T) {
	dir := t.TempDir()
	m := keys.NewManager(dir, "test-key-02")

	priv, _, err := m.Signer()
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	msg := []byte("verify me")
	sig := ed25519.Sign(priv, msg)

	raw, err := m.JWKSJSON()
	if err != nil {
		t.Fatalf("jwks json: %v", err)
	}
	var set keys.JWKS
	if err := json.Unmarshal(raw, &set); err != nil {
		t.Fatalf("unmarshal jwks: %v", err)
	}
	if len(set.Keys) != 1 {
		t.Fatalf("jwks keys = %d, want 1", len(set.Keys))
	}
	jwk := set.Keys[0]
	if jwk.Kty != "OKP" || jwk.Crv != "Ed25519" || jwk.Alg != "EdDSA" || jwk.Use != "sig" {
		t.Fatalf("unexpected jwk metadata: %+v", jwk)
	}
	if jwk.Kid != "test-key-02" {
		t.Fatalf("jwk kid = %q", jwk.Kid)
	}

	pubBytes, err := base64.RawURLEncoding.DecodeString(jwk.X)
	if err != nil {
		t.Fatalf("decode x: %v", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		t.Fatalf("x length = %d, want %d", len(pubBytes), ed25519.PublicKeySize)
	}
	if !ed25519.Verify(ed25519.PublicKey(pubBytes), msg, sig) {
		t.Fatal("signature does not verify against the published JWKS key")
	}
}

func TestLoadFailsOnCorruptPrivateKey(t *testing.T) {
	dir := t.TempDir()
	writePEMFiles(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "atk_private_key.pem"), []byte("not a pem"), 0600); err != nil {
		t.Fatal(err)
	}

	m := keys.NewManager(dir, "k")
	err := m.Load(false)
	if !errors.Is(err, keys.ErrKeyLoad) {
		t.Fatalf("err = %v, want ErrKeyLoad", err)
	}
}

func TestLoadFailsOnMismatchedPair(t *testing.T) {
	dir := t.TempDir()
	writePEMFiles(t, dir)

	// Pisar la pública con la de OTRO par
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalPKIXPublicKey(otherPub)
	if err != nil {
		t.Fatal(err)
	}
	raw := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	if err := os.WriteFile(filepath.Join(dir, "atk_public_key.pem"), raw, 0644); err != nil {
		t.Fatal(err)
	}

	m := keys.NewManager(dir, "k")
	err = m.Load(false)
	if !errors.Is(err, keys.ErrKeyLoad) {
		t.Fatalf("err = %v, want ErrKeyLoad", err)
	}
}

// writePEMFiles deja un par válido en dir usando el propio manager.
func writePEMFiles(t *testing.T, dir string) {
	t.Helper()
	m := keys.NewManager(dir, "seed")
	if err := m.Load(false); err != nil {
		t.Fatalf("seed load: %v", err)
	}
}
