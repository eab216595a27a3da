package command

import (
	"context"
	"fmt"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/pkg/auth"
)

// RegisterCompanyCommand represents the command to register a company
type RegisterCompanyCommand struct {
	TaxID    string
	Name     string
	Email    string
	Password string
}

// RegisterCompanyHandler handles company registration
type RegisterCompanyHandler struct {
	store domain.Store
}

func NewRegisterCompanyHandler(store domain.Store) *RegisterCompanyHandler {
	return &RegisterCompanyHandler{store: store}
}

// Handle executes the register company command
func (h *RegisterCompanyHandler) Handle(ctx context.Context, cmd RegisterCompanyCommand) (*domain.Company, error) {
	taxID, err := normalizeTaxID("tax_id", cmd.TaxID)
	if err != nil {
		return nil, err
	}
	name, err := required("name", cmd.Name)
	if err != nil {
		return nil, err
	}
	email, err := validateEmail("email", cmd.Email, true)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(cmd.Password); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(cmd.Password)
	if err != nil {
		return nil, domain.Internal("failed to hash password", err)
	}

	company := &domain.Company{ID: taxID, Name: name, Email: email, Password: hashed}
	err = h.store.Transaction(ctx, func(repos domain.Repositories) error {
		if _, err := repos.Companies.FindByID(ctx, taxID); err == nil {
			return domain.Conflict(domain.ReasonDuplicateTaxID, "tax identifier already registered")
		} else if domain.KindOf(err) != domain.KindNotFound {
			return err
		}
		if _, err := repos.Companies.FindByEmail(ctx, email); err == nil {
			return domain.Conflict(domain.ReasonDuplicateEmail, "email already registered")
		} else if domain.KindOf(err) != domain.KindNotFound {
			return err
		}
		return repos.Companies.Create(ctx, company)
	})
	if err != nil {
		return nil, fmt.Errorf("register company: %w", err)
	}
	return company, nil
}
