package command

import (
	"context"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/pkg/auth"
)

// TokenIssuer signs access tokens for a company.
type TokenIssuer interface {
	GenerateToken(companyID, companyName string) (string, error)
}

// LoginCompanyCommand represents the command to log a company in
type LoginCompanyCommand struct {
	Email    string
	Password string
}

// LoginResponse represents the response after successful login
type LoginResponse struct {
	Token   string          `json:"token"`
	Company *domain.Company `json:"company"`
}

// LoginCompanyHandler handles company login
type LoginCompanyHandler struct {
	store  domain.Store
	tokens TokenIssuer
}

func NewLoginCompanyHandler(store domain.Store, tokens TokenIssuer) *LoginCompanyHandler {
	return &LoginCompanyHandler{store: store, tokens: tokens}
}

// Handle verifies credentials. Unknown email and wrong password produce the
// same error.
func (h *LoginCompanyHandler) Handle(ctx context.Context, cmd LoginCompanyCommand) (*LoginResponse, error) {
	email, err := validateEmail("email", cmd.Email, true)
	if err != nil {
		return nil, err
	}
	if cmd.Password == "" {
		return nil, domain.Validation("password is required")
	}

	company, err := h.store.Repositories().Companies.FindByEmail(ctx, email)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(company.Password, cmd.Password) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := h.tokens.GenerateToken(company.ID, company.Name)
	if err != nil {
		return nil, domain.Internal("failed to generate token", err)
	}
	return &LoginResponse{Token: token, Company: company}, nil
}
