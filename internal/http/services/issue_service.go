// Package services contiene la lógica de orquestación entre controllers
// y el core (issuer, revocation registry, ledger).
package services

import (
	"context"
	"errors"
	"strings"

	httperrors "github.com/dropDatabas3/heimdall/internal/http/errors"
	"github.com/dropDatabas3/heimdall/internal/token"
)

// IssueService valida el request y delega en el token.Issuer.
type IssueService struct {
	issuer *token.Issuer
}

func NewIssueService(issuer *token.Issuer) *IssueService {
	return &IssueService{issuer: issuer}
}

// IssueParams son los campos ya parseados del request + el owner del
// middleware de auth.
type IssueParams struct {
	Owner             string
	UserID            string
	AudienceSPID      string
	Permissions       []string
	Purpose           string
	ModelID           string
	OverrideTrustTags map[string]string
}

// Issue valida campos obligatorios (error de cliente) y emite.
// Un fallo de firma vuelve como ErrTokenSigning sin detalle interno.
func (s *IssueService) Issue(ctx context.Context, p IssueParams) (*token.Result, error) {
	if err := validateIssueParams(p); err != nil {
		return nil, err
	}

	res, err := s.issuer.Issue(ctx, token.Request{
		Owner:             p.Owner,
		UserID:            p.UserID,
		Audience:          strings.TrimSpace(p.AudienceSPID),
		Permissions:       p.Permissions,
		Purpose:           p.Purpose,
		ModelID:           p.ModelID,
		OverrideTrustTags: p.OverrideTrustTags,
	})
	if err != nil {
		if errors.Is(err, token.ErrNoValidPermissions) {
			return nil, httperrors.ErrNoValidPermissions
		}
		return nil, httperrors.ErrTokenSigning
	}
	return res, nil
}

func validateIssueParams(p IssueParams) error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return httperrors.ErrBadRequest.WithDetail("user_id is required")
	case strings.TrimSpace(p.AudienceSPID) == "" || strings.Contains(p.AudienceSPID, " "):
		return httperrors.ErrBadRequest.WithDetail("audience_sp_id must be a non-empty string without spaces")
	case len(p.Permissions) == 0:
		return httperrors.ErrBadRequest.WithDetail("permissions must not be empty")
	case strings.TrimSpace(p.Purpose) == "":
		return httperrors.ErrBadRequest.WithDetail("purpose is required")
	case strings.TrimSpace(p.ModelID) == "":
		return httperrors.ErrBadRequest.WithDetail("model_id is required")
	}
	return nil
}
