package token

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AID (Agent Identifier) es el claim sub de un ATK:
//
//	{issuer}/{model}/{user}/{instance}
//
// El instance id es un uuid4 fresco por emisión: dos tokens para el mismo
// triple issuer/model/user no son linkeables entre sí por el sub.
type AID struct {
	Issuer   string
	ModelID  string
	UserID   string
	Instance string
}

func (a AID) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", a.Issuer, a.ModelID, a.UserID, a.Instance)
}

// GenerateAID construye un AID nuevo con instance id aleatorio.
func GenerateAID(issuer, modelID, userID string) AID {
	return AID{
		Issuer:   issuer,
		ModelID:  modelID,
		UserID:   userID,
		Instance: uuid.NewString(),
	}
}

// ParseAID descompone un AID. El issuer puede contener '/' (ej:
// "aif://issuer.example.com"), así que se parsea desde la derecha:
// los últimos tres segmentos son model/user/instance.
func ParseAID(s string) (AID, error) {
	parts := strings.Split(s, "/")
	if len(parts) < 4 {
		return AID{}, fmt.Errorf("malformed aid: %q", s)
	}
	n := len(parts)
	a := AID{
		Issuer:   strings.Join(parts[:n-3], "/"),
		ModelID:  parts[n-3],
		UserID:   parts[n-2],
		Instance: parts[n-1],
	}
	if a.Issuer == "" || a.ModelID == "" || a.UserID == "" || a.Instance == "" {
		return AID{}, fmt.Errorf("malformed aid: %q", s)
	}
	if _, err := uuid.Parse(a.Instance); err != nil {
		return AID{}, fmt.Errorf("malformed aid instance: %q", a.Instance)
	}
	return a, nil
}
