package http

import (
	"net/http"

	"github.com/tair/insumos/internal/insumos/usecase/command"
	"github.com/tair/insumos/internal/insumos/usecase/query"
)

type registerRequest struct {
	TaxID    string `json:"tax_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterCompany godoc
// @Summary Register a company
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Company data"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Router /api/auth/register [post]
func (h *Handler) RegisterCompany(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	company, err := h.commands.RegisterCompany.Handle(r.Context(), command.RegisterCompanyCommand{
		TaxID:    req.TaxID,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "Company registered successfully", company)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary Log in as a company
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Failure 429 {object} Response
// @Router /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	resp, err := h.commands.LoginCompany.Handle(r.Context(), command.LoginCompanyCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Login successful", resp)
}

// GetCompany godoc
// @Summary Get the authenticated company
// @Tags Companies
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Response
// @Router /api/companies/me [get]
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	company, err := h.queries.GetCompany.Handle(r.Context(), query.GetCompanyQuery{CompanyID: CompanyIDFromContext(r.Context())})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", company)
}

type updateCompanyRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateCompany godoc
// @Summary Update the authenticated company
// @Tags Companies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body updateCompanyRequest true "Fields to change"
// @Success 200 {object} Response
// @Failure 409 {object} Response
// @Router /api/companies/me [patch]
func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req updateCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	company, err := h.commands.UpdateCompany.Handle(r.Context(), command.UpdateCompanyCommand{
		CompanyID: CompanyIDFromContext(r.Context()),
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Company updated successfully", company)
}
