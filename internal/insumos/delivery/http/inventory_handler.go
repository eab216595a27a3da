package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/insumos/internal/insumos/usecase/command"
	"github.com/tair/insumos/internal/insumos/usecase/query"
)

// itemRequest is the body of both item creation paths.
type itemRequest struct {
	Description  string `json:"description"`
	ExpiryDate   string `json:"expiry_date"`
	Location     string `json:"location"`
	Note         string `json:"note"`
	SerialNumber string `json:"serial_number"`
}

func (req itemRequest) input() command.ItemInput {
	return command.ItemInput{
		Description:  req.Description,
		ExpiryDate:   req.ExpiryDate,
		Location:     req.Location,
		Note:         req.Note,
		SerialNumber: req.SerialNumber,
	}
}

// ListInventory godoc
// @Summary List the live inventory of a branch
// @Description Rows carry sort_status 1 (ok), 2 (expires within 30 days) or 3 (expired) and are ordered by tier.
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param id path string true "Branch tax id"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /api/branches/{id}/inventory [get]
func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.queries.ListInventory.Handle(r.Context(), query.ListInventoryQuery{
		CompanyID: CompanyIDFromContext(r.Context()),
		BranchID:  mux.Vars(r)["id"],
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", rows)
}

// AddDirectItem godoc
// @Summary Upsert a live inventory item
// @Description Inserts the item or overwrites expiry, location and note of the item with the same type and serial.
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Branch tax id"
// @Param request body itemRequest true "Item"
// @Success 201 {object} Response
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Router /api/branches/{id}/inventory [post]
func (h *Handler) AddDirectItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.commands.AddDirectItem.Handle(r.Context(), command.AddDirectItemCommand{
		CompanyID: CompanyIDFromContext(r.Context()),
		BranchID:  mux.Vars(r)["id"],
		Item:      req.input(),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	if res.Created {
		respondOK(w, http.StatusCreated, "Item added to inventory", res)
		return
	}
	respondOK(w, http.StatusOK, "Inventory item updated", res)
}

type editItemRequest struct {
	ExpiryDate string `json:"expiry_date"`
	Location   string `json:"location"`
	Note       string `json:"note"`
}

// EditCurrentItem godoc
// @Summary Edit a live inventory item
// @Tags Inventory
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Inventory item id"
// @Param request body editItemRequest true "New values"
// @Success 200 {object} Response
// @Failure 503 {object} Response "Row locked by another writer"
// @Router /api/inventory/{id} [put]
func (h *Handler) EditCurrentItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req editItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	record, err := h.commands.EditCurrentItem.Handle(r.Context(), command.EditCurrentItemCommand{
		CompanyID:  CompanyIDFromContext(r.Context()),
		RecordID:   id,
		ExpiryDate: req.ExpiryDate,
		Location:   req.Location,
		Note:       req.Note,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Inventory item updated", record)
}

// RemoveCurrentItem handles DELETE /api/inventory/{id}
func (h *Handler) RemoveCurrentItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	err = h.commands.RemoveCurrentItem.Handle(r.Context(), command.RemoveCurrentItemCommand{
		CompanyID: CompanyIDFromContext(r.Context()),
		RecordID:  id,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Inventory item removed", nil)
}

// GetItemHistory godoc
// @Summary Every observation of the physical item behind a live row
// @Tags Inventory
// @Security BearerAuth
// @Produce json
// @Param id path int true "Inventory item id"
// @Success 200 {object} Response
// @Router /api/inventory/{id}/history [get]
func (h *Handler) GetItemHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	history, err := h.queries.GetItemHistory.Handle(r.Context(), query.GetItemHistoryQuery{
		CompanyID: CompanyIDFromContext(r.Context()),
		RecordID:  id,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "", history)
}

// RemoveHistoryRecord handles DELETE /api/history/{id}
func (h *Handler) RemoveHistoryRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	err = h.commands.RemoveHistoryRecord.Handle(r.Context(), command.RemoveHistoryRecordCommand{
		CompanyID: CompanyIDFromContext(r.Context()),
		HistoryID: id,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "History record removed", nil)
}
