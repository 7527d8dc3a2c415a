package core

import "time"

// TokenStatus es el estado de un token en el ledger. Es bookkeeping:
// la validez criptográfica (firma + exp) la evalúa el relying party,
// nunca este servicio.
type TokenStatus string

const (
	TokenActive  TokenStatus = "active"
	TokenRevoked TokenStatus = "revoked"
)

// IssuedTokenRecord es el registro de un ATK emitido. Uno por jti.
// Se crea en la emisión y solo muta para pasar status a "revoked".
type IssuedTokenRecord struct {
	JTI         string      `bson:"jti" json:"jti"`
	Owner       string      `bson:"owner" json:"owner"`
	AID         string      `bson:"aid" json:"aid"`
	UserID      string      `bson:"user_id" json:"user_id"`
	Audience    string      `bson:"audience" json:"audience"`
	Purpose     string      `bson:"purpose" json:"purpose"`
	Permissions []string    `bson:"permissions" json:"permissions"`
	Status      TokenStatus `bson:"status" json:"status"`
	IssuedAt    time.Time   `bson:"issued_at" json:"issued_at"`
	ExpiresAt   time.Time   `bson:"expires_at" json:"expires_at"`
}

// RevocationEntry es una entrada del ledger de revocación. Una por jti
// (uniqueness constraint); una re-revocación actualiza RevokedAt, no
// duplica.
type RevocationEntry struct {
	JTI         string     `bson:"jti" json:"jti"`
	RevokedAt   time.Time  `bson:"revoked_at" json:"revoked_at"`
	RevokedBy   string     `bson:"revoked_by,omitempty" json:"revoked_by,omitempty"`
	OriginalExp *time.Time `bson:"original_exp,omitempty" json:"original_exp,omitempty"`
}

// RevokedTokenView es una entrada de revocación enriquecida con datos
// denormalizados del ledger de emisión. Solo para display; no participa
// en decisiones de confianza.
type RevokedTokenView struct {
	RevocationEntry
	AID      string `json:"aid,omitempty"`
	Audience string `json:"audience,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
}
