package keys

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
)

// Algorithm es el alg JOSE para Ed25519.
const Algorithm = "EdDSA"

// JWK es la clave pública de firma en formato RFC 8037 (OKP/Ed25519).
// Solo se expone la coordenada x; la privada nunca sale del Manager.
type JWK struct {
	Kty string `json:"kty"` // "OKP"
	Crv string `json:"crv"` // "Ed25519"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "EdDSA"
	Use string `json:"use"` // "sig"
	X   string `json:"x"`   // base64url sin padding de los 32 bytes crudos
}

// JWKS es el documento publicado en /.well-known/jwks.json.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// buildJWKS arma el JWKS de una sola clave a partir de la pública cruda.
func buildJWKS(pub ed25519.PublicKey, kid string) JWKS {
	return JWKS{
		Keys: []JWK{{
			Kty: "OKP",
			Crv: "Ed25519",
			Kid: kid,
			Alg: Algorithm,
			Use: "sig",
			X:   base64.RawURLEncoding.EncodeToString(pub),
		}},
	}
}

// JSON serializa el JWKS. El resultado se cachea en el Manager; esto
// existe para tests y para el rebuild en reload.
func (j JWKS) JSON() []byte {
	b, _ := json.Marshal(j)
	return b
}
