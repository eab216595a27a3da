package http

import (
	"net/http"

	"github.com/tair/insumos/internal/insumos/usecase/command"
	"github.com/tair/insumos/internal/insumos/usecase/query"
)

type itemTypeRequest struct {
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// ListItemTypes handles GET /api/item-types
func (h *Handler) ListItemTypes(w http.ResponseWriter, r *http.Request) {
	itemTypes, err := h.queries.ListItemTypes.Handle(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", itemTypes)
}

// GetItemType handles GET /api/item-types/{id}
func (h *Handler) GetItemType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	itemType, err := h.queries.GetItemType.Handle(r.Context(), query.GetItemTypeQuery{ID: id})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", itemType)
}

// CreateItemType godoc
// @Summary Register a catalog entry
// @Description The image is a path to an already stored file. Creating an existing description returns it with 200.
// @Tags Catalog
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body itemTypeRequest true "Catalog entry"
// @Success 201 {object} Response
// @Success 200 {object} Response
// @Router /api/item-types [post]
func (h *Handler) CreateItemType(w http.ResponseWriter, r *http.Request) {
	var req itemTypeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cmd := command.CreateItemTypeCommand{Description: req.Description}
	if req.Image != nil {
		cmd.Image = *req.Image
	}
	itemType, created, err := h.commands.CreateItemType.Handle(r.Context(), cmd)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !created {
		respondOK(w, http.StatusOK, "Item type already exists", itemType)
		return
	}
	respondOK(w, http.StatusCreated, "Item type created successfully", itemType)
}

// UpdateItemType godoc
// @Summary Rename a catalog entry or replace its image
// @Tags Catalog
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Item type id"
// @Param request body itemTypeRequest true "Catalog entry"
// @Success 200 {object} Response
// @Failure 403 {object} Response "Base catalog entry"
// @Failure 409 {object} Response "Description taken"
// @Router /api/item-types/{id} [put]
func (h *Handler) UpdateItemType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req itemTypeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	itemType, err := h.commands.UpdateItemType.Handle(r.Context(), command.UpdateItemTypeCommand{
		ID:          id,
		Description: req.Description,
		Image:       req.Image,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Item type updated successfully", itemType)
}

// DeleteItemType godoc
// @Summary Delete an unreferenced catalog entry
// @Tags Catalog
// @Security BearerAuth
// @Produce json
// @Param id path int true "Item type id"
// @Success 200 {object} Response
// @Failure 409 {object} Response "Referenced by inventory"
// @Router /api/item-types/{id} [delete]
func (h *Handler) DeleteItemType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.commands.DeleteItemType.Handle(r.Context(), command.DeleteItemTypeCommand{ID: id}); err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Item type deleted successfully", nil)
}
