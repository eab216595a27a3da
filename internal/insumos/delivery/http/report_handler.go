package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/report"
)

func (h *Handler) buildReport(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	rep, err := h.reports.Build(r.Context(), CompanyIDFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	return rep, true
}

// GetReport godoc
// @Summary Branch inventory report rows
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param id path string true "Branch tax id"
// @Success 200 {object} Response
// @Router /api/branches/{id}/report [get]
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}
	respondOK(w, http.StatusOK, "", rep)
}

// GetReportCSV godoc
// @Summary Branch inventory report as CSV
// @Tags Reports
// @Security BearerAuth
// @Produce text/csv
// @Param id path string true "Branch tax id"
// @Success 200 {file} file
// @Router /api/branches/{id}/report.csv [get]
func (h *Handler) GetReportCSV(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	renderer := report.CSVRenderer{}
	if err := renderer.Render(&buf, rep); err != nil {
		respondError(w, r, domain.Internal("failed to render csv", err))
		return
	}
	writeDocument(w, rep, renderer.ContentType(), renderer.Extension(), buf.Bytes())
}

// GetReportPDF godoc
// @Summary Branch inventory report as PDF
// @Tags Reports
// @Security BearerAuth
// @Produce application/pdf
// @Param id path string true "Branch tax id"
// @Success 200 {file} file
// @Router /api/branches/{id}/report.pdf [get]
func (h *Handler) GetReportPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		respondJSON(w, http.StatusNotImplemented, Response{Success: false, Error: "pdf rendering is not configured"})
		return
	}
	rep, ok := h.buildReport(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.pdf.Render(r.Context(), &buf, rep); err != nil {
		respondError(w, r, domain.Internal("failed to render pdf", err))
		return
	}
	writeDocument(w, rep, h.pdf.ContentType(), h.pdf.Extension(), buf.Bytes())
}

func writeDocument(w http.ResponseWriter, rep *report.Report, contentType, ext string, body []byte) {
	filename := fmt.Sprintf("inventario-%s-%s.%s", rep.Branch.ID, rep.GeneratedOn, ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
