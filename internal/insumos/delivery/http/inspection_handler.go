package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/insumos/internal/insumos/usecase/command"
	"github.com/tair/insumos/internal/insumos/usecase/query"
)

// ListInspections handles GET /api/branches/{id}/inspections
func (h *Handler) ListInspections(w http.ResponseWriter, r *http.Request) {
	list, err := h.queries.ListInspections.Handle(r.Context(), query.ListInspectionsQuery{
		CompanyID: CompanyIDFromContext(r.Context()),
		BranchID:  mux.Vars(r)["id"],
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", list)
}

type createInspectionRequest struct {
	Technician string `json:"technician"`
}

// CreateInspection godoc
// @Summary Open an inspection on a branch
// @Tags Inspections
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Branch tax id"
// @Param request body createInspectionRequest true "Technician"
// @Success 201 {object} Response
// @Router /api/branches/{id}/inspections [post]
func (h *Handler) CreateInspection(w http.ResponseWriter, r *http.Request) {
	var req createInspectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	in, err := h.commands.CreateInspection.Handle(r.Context(), command.CreateInspectionCommand{
		CompanyID:  CompanyIDFromContext(r.Context()),
		BranchID:   mux.Vars(r)["id"],
		Technician: req.Technician,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "Inspection created successfully", in)
}

// GetInspection handles GET /api/inspections/{id}
func (h *Handler) GetInspection(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.loadInspection(w, r)
	if !ok {
		return
	}
	respondOK(w, http.StatusOK, "", detail)
}

// ListInspectionItems handles GET /api/inspections/{id}/items
func (h *Handler) ListInspectionItems(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.loadInspection(w, r)
	if !ok {
		return
	}
	respondOK(w, http.StatusOK, "", detail.Items)
}

func (h *Handler) loadInspection(w http.ResponseWriter, r *http.Request) (*query.InspectionDetail, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	detail, err := h.queries.GetInspection.Handle(r.Context(), query.GetInspectionQuery{
		CompanyID:    CompanyIDFromContext(r.Context()),
		InspectionID: id,
	})
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	return detail, true
}

// FinalizeInspection godoc
// @Summary Finalize an open inspection
// @Tags Inspections
// @Security BearerAuth
// @Produce json
// @Param id path int true "Inspection id"
// @Success 200 {object} Response
// @Failure 403 {object} Response "Already finalized"
// @Router /api/inspections/{id}/finalize [post]
func (h *Handler) FinalizeInspection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	in, err := h.commands.FinalizeInspection.Handle(r.Context(), command.FinalizeInspectionCommand{
		CompanyID:    CompanyIDFromContext(r.Context()),
		InspectionID: id,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Inspection finalized", in)
}

// DeleteInspection godoc
// @Summary Delete an open inspection
// @Description Removes the inspection, its observations and every live row they match.
// @Tags Inspections
// @Security BearerAuth
// @Produce json
// @Param id path int true "Inspection id"
// @Success 200 {object} Response
// @Failure 403 {object} Response "Already finalized"
// @Router /api/inspections/{id} [delete]
func (h *Handler) DeleteInspection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	err = h.commands.DeleteInspection.Handle(r.Context(), command.DeleteInspectionCommand{
		CompanyID:    CompanyIDFromContext(r.Context()),
		InspectionID: id,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Inspection deleted", nil)
}

// AddInspectionItem godoc
// @Summary Record an item observed during an inspection
// @Description Writes the history ledger only; live inventory is not changed.
// @Tags Inspections
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Inspection id"
// @Param request body itemRequest true "Item"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Failure 403 {object} Response "Inspection finalized"
// @Failure 409 {object} Response "Duplicate serial"
// @Router /api/inspections/{id}/items [post]
func (h *Handler) AddInspectionItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	record, err := h.commands.AddInspectionItem.Handle(r.Context(), command.AddInspectionItemCommand{
		CompanyID:    CompanyIDFromContext(r.Context()),
		InspectionID: id,
		Item:         req.input(),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "Item recorded", record)
}
