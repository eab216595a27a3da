package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/insumos/internal/insumos/usecase/command"
	"github.com/tair/insumos/internal/insumos/usecase/query"
)

type branchRequest struct {
	TaxID            string `json:"tax_id"`
	Name             string `json:"name"`
	Address          string `json:"address"`
	ResponsibleEmail string `json:"responsible_email"`
}

// ListBranches handles GET /api/branches
func (h *Handler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.queries.ListBranches.Handle(r.Context(), query.ListBranchesQuery{CompanyID: CompanyIDFromContext(r.Context())})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", branches)
}

// CreateBranch godoc
// @Summary Create a branch
// @Tags Branches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body branchRequest true "Branch data"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Router /api/branches [post]
func (h *Handler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	branch, err := h.commands.CreateBranch.Handle(r.Context(), command.CreateBranchCommand{
		CompanyID:        CompanyIDFromContext(r.Context()),
		TaxID:            req.TaxID,
		Name:             req.Name,
		Address:          req.Address,
		ResponsibleEmail: req.ResponsibleEmail,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "Branch created successfully", branch)
}

// GetBranch handles GET /api/branches/{id}
func (h *Handler) GetBranch(w http.ResponseWriter, r *http.Request) {
	branch, err := h.queries.AuthorizeBranch.Handle(r.Context(), query.AuthorizeBranchQuery{
		CompanyID: CompanyIDFromContext(r.Context()),
		BranchID:  mux.Vars(r)["id"],
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", branch)
}

// UpdateBranch handles PUT /api/branches/{id}
func (h *Handler) UpdateBranch(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	branch, err := h.commands.UpdateBranch.Handle(r.Context(), command.UpdateBranchCommand{
		CompanyID:        CompanyIDFromContext(r.Context()),
		BranchID:         mux.Vars(r)["id"],
		Name:             req.Name,
		Address:          req.Address,
		ResponsibleEmail: req.ResponsibleEmail,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Branch updated successfully", branch)
}

// DeleteBranch godoc
// @Summary Delete a branch with its inspections and inventory
// @Tags Branches
// @Security BearerAuth
// @Produce json
// @Param id path string true "Branch tax id"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/branches/{id} [delete]
func (h *Handler) DeleteBranch(w http.ResponseWriter, r *http.Request) {
	err := h.commands.DeleteBranch.Handle(r.Context(), command.DeleteBranchCommand{
		CompanyID: CompanyIDFromContext(r.Context()),
		BranchID:  mux.Vars(r)["id"],
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Branch deleted successfully", nil)
}
