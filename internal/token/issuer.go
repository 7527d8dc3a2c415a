// Package token construye y firma Agent Tokens (ATKs): credenciales de
// delegación de vida corta que un agente presenta ante un service provider
// en nombre de un usuario, con un set de permisos acotado.
package token

import (
	"context"
	"errors"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/heimdall/internal/keys"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
	"github.com/dropDatabas3/heimdall/internal/store/core"
)

var (
	// ErrNoValidPermissions: después de filtrar no quedó ningún permiso.
	// El caller lo mapea a un error de cliente.
	ErrNoValidPermissions = errors.New("no valid permissions for issuance")

	// ErrSigningFailed es el fallo genérico de firma. No cruza detalle
	// interno del error real; el caller lo mapea a 500.
	ErrSigningFailed = errors.New("failed to create and sign the agent token")
)

// Issuer compone claims, aplica el TrustTagPolicy, firma con el Manager y
// registra (best-effort) el resultado en el ledger.
type Issuer struct {
	IssuerID string
	TokenTTL time.Duration

	Keys   *keys.Manager
	Ledger core.TokenLedger // nil = sin bookkeeping

	supportedModels mapSet
	standardPerms   mapSet
	trustTags       TrustTagPolicy

	// recordTimeout acota el write best-effort al ledger.
	recordTimeout time.Duration
}

type mapSet map[string]struct{}

func toSet(xs []string) mapSet {
	s := make(mapSet, len(xs))
	for _, x := range xs {
		s[x] = struct{}{}
	}
	return s
}

// Config agrupa la política de emisión (viene de internal/config).
type Config struct {
	IssuerID            string
	TokenTTL            time.Duration
	SupportedModels     []string
	StandardPermissions []string
	DefaultTrustTags    map[string]string
	AllowedTrustTagKeys []string
}

func NewIssuer(cfg Config, km *keys.Manager, ledger core.TokenLedger) *Issuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{
		IssuerID:        cfg.IssuerID,
		TokenTTL:        ttl,
		Keys:            km,
		Ledger:          ledger,
		supportedModels: toSet(cfg.SupportedModels),
		standardPerms:   toSet(cfg.StandardPermissions),
		trustTags:       NewTrustTagPolicy(cfg.DefaultTrustTags, cfg.AllowedTrustTagKeys),
		recordTimeout:   5 * time.Second,
	}
}

// Request es un pedido de emisión. Owner es la identidad autenticada del
// agent builder que pide el token (viene del middleware de auth, nunca
// del body).
type Request struct {
	Owner             string
	UserID            string
	Audience          string
	Permissions       []string
	Purpose           string
	ModelID           string
	OverrideTrustTags map[string]string
}

// Result es el token firmado más los identificadores que el caller puede
// necesitar sin decodificar el JWT.
type Result struct {
	Token     string
	JTI       string
	AID       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue emite un ATK firmado.
//
// Validación leniente por diseño (hardening pendiente, no bloqueante):
// un model_id desconocido o un permiso fuera del vocabulario estándar se
// loguean y se dejan pasar. Lo único que corta la emisión es quedarse sin
// permisos válidos o un fallo de clave/firma.
func (i *Issuer) Issue(ctx context.Context, req Request) (*Result, error) {
	log := logger.From(ctx).Named("issuer")

	if _, ok := i.supportedModels[req.ModelID]; !ok {
		log.Warn("model_id not in supported list, allowing",
			logger.ModelID(req.ModelID), logger.Owner(req.Owner))
	}

	perms := i.filterPermissions(ctx, req.Permissions)
	if len(perms) == 0 {
		return nil, ErrNoValidPermissions
	}

	aid := GenerateAID(i.IssuerID, req.ModelID, req.UserID)
	now := time.Now().UTC()
	exp := now.Add(i.TokenTTL)
	jti := uuid.NewString()

	claims := jwtv5.MapClaims{
		"iss":         i.IssuerID,
		"sub":         aid.String(),
		"aud":         req.Audience,
		"iat":         now.Unix(),
		"exp":         exp.Unix(),
		"jti":         jti,
		"permissions": perms,
		"purpose":     req.Purpose,
	}
	if tags := i.trustTags.Merge(req.OverrideTrustTags); tags != nil {
		claims["trust_tags"] = tags
	}

	priv, kid, err := i.Keys.Signer()
	if err != nil {
		log.Error("signing key unavailable", logger.Err(err))
		return nil, ErrSigningFailed
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = kid
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(priv)
	if err != nil {
		log.Error("atk signing failed", logger.Err(err), logger.KID(kid))
		return nil, ErrSigningFailed
	}

	log.Info("atk issued",
		logger.JTI(jti), logger.AID(aid.String()),
		logger.Audience(req.Audience), logger.Count(len(perms)))

	// Bookkeeping best-effort: la emisión ya es válida criptográficamente;
	// un fallo del ledger se loguea y no revierte nada. El write es
	// síncrono para que una revocación inmediata encuentre el registro.
	i.recordIssued(ctx, req, jti, aid.String(), perms, now, exp)

	return &Result{Token: signed, JTI: jti, AID: aid.String(), IssuedAt: now, ExpiresAt: exp}, nil
}

// filterPermissions descarta entradas en blanco y loguea las que están
// fuera del vocabulario estándar (pero las incluye igual).
func (i *Issuer) filterPermissions(ctx context.Context, perms []string) []string {
	log := logger.From(ctx).Named("issuer")
	var out []string
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := i.standardPerms[p]; !ok {
			log.Warn("custom permission requested, including", logger.String("permission", p))
		}
		out = append(out, p)
	}
	return out
}

func (i *Issuer) recordIssued(ctx context.Context, req Request, jti, aid string, perms []string, iat, exp time.Time) {
	if i.Ledger == nil {
		return
	}
	rec := &core.IssuedTokenRecord{
		JTI:         jti,
		Owner:       req.Owner,
		AID:         aid,
		UserID:      req.UserID,
		Audience:    req.Audience,
		Purpose:     req.Purpose,
		Permissions: perms,
		Status:      core.TokenActive,
		IssuedAt:    iat,
		ExpiresAt:   exp,
	}
	// Contexto propio: un request cancelado no tiene por qué perder el registro
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.recordTimeout)
	defer cancel()
	if err := i.Ledger.Record(rctx, rec); err != nil {
		logger.From(ctx).Named("issuer").Error("issued token record failed",
			logger.Err(err), logger.JTI(jti))
	}
}
