package command

import (
	"context"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/pkg/auth"
)

// UpdateCompanyCommand changes name, login email or password. Nil fields are
// left untouched.
type UpdateCompanyCommand struct {
	CompanyID string
	Name      *string
	Email     *string
	Password  *string
}

type UpdateCompanyHandler struct {
	store domain.Store
}

func NewUpdateCompanyHandler(store domain.Store) *UpdateCompanyHandler {
	return &UpdateCompanyHandler{store: store}
}

func (h *UpdateCompanyHandler) Handle(ctx context.Context, cmd UpdateCompanyCommand) (*domain.Company, error) {
	var name, email, hashed string
	var err error
	if cmd.Name != nil {
		if name, err = required("name", *cmd.Name); err != nil {
			return nil, err
		}
	}
	if cmd.Email != nil {
		if email, err = validateEmail("email", *cmd.Email, true); err != nil {
			return nil, err
		}
	}
	if cmd.Password != nil {
		if err := validatePassword(*cmd.Password); err != nil {
			return nil, err
		}
		if hashed, err = auth.HashPassword(*cmd.Password); err != nil {
			return nil, domain.Internal("failed to hash password", err)
		}
	}

	var company *domain.Company
	err = h.store.Transaction(ctx, func(repos domain.Repositories) error {
		current, err := repos.Companies.FindByID(ctx, cmd.CompanyID)
		if err != nil {
			return err
		}
		if name != "" {
			current.Name = name
		}
		if email != "" && email != current.Email {
			other, err := repos.Companies.FindByEmail(ctx, email)
			if err == nil && other.ID != current.ID {
				return domain.Conflict(domain.ReasonDuplicateEmail, "email already registered")
			}
			if err != nil && domain.KindOf(err) != domain.KindNotFound {
				return err
			}
			current.Email = email
		}
		if hashed != "" {
			current.Password = hashed
		}
		company = current
		return repos.Companies.Update(ctx, current)
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}
