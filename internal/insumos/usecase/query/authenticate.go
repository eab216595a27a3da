package query

import (
	"context"
	"strings"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/pkg/auth"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthenticateQuery carries the raw Authorization value or a bare token.
type AuthenticateQuery struct {
	Token string
}

// AuthenticateHandler resolves a token to the company it was issued for.
// It is stateless: nothing is looked up in storage.
type AuthenticateHandler struct {
	verifier TokenVerifier
}

func NewAuthenticateHandler(verifier TokenVerifier) *AuthenticateHandler {
	return &AuthenticateHandler{verifier: verifier}
}

// Handle returns the authenticated company id.
func (h *AuthenticateHandler) Handle(_ context.Context, query AuthenticateQuery) (string, error) {
	token := strings.TrimSpace(query.Token)
	if scheme, rest, _ := strings.Cut(token, " "); strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return "", domain.Unauthorized(domain.ReasonMissingToken, "authorization token is required")
	}

	claims, err := h.verifier.ValidateToken(token)
	if err != nil {
		return "", domain.ErrInvalidToken
	}
	return claims.CompanyID(), nil
}

// AuthorizeBranchQuery asks whether a company may act on a branch.
type AuthorizeBranchQuery struct {
	CompanyID string
	BranchID  string
}

type AuthorizeBranchHandler struct {
	store domain.Store
}

func NewAuthorizeBranchHandler(store domain.Store) *AuthorizeBranchHandler {
	return &AuthorizeBranchHandler{store: store}
}

// Handle returns the branch, or NotFound for both a missing and a foreign
// branch.
func (h *AuthorizeBranchHandler) Handle(ctx context.Context, query AuthorizeBranchQuery) (*domain.Branch, error) {
	return domain.OwnedBranch(ctx, h.store.Repositories().Branches, query.BranchID, query.CompanyID)
}
