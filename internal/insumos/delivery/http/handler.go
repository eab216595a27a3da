package http

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/insumos/internal/insumos/report"
	"github.com/tair/insumos/internal/insumos/usecase/command"
	"github.com/tair/insumos/internal/insumos/usecase/query"
)

// Commands groups the write use cases served over HTTP.
type Commands struct {
	RegisterCompany     *command.RegisterCompanyHandler
	LoginCompany        *command.LoginCompanyHandler
	UpdateCompany       *command.UpdateCompanyHandler
	CreateBranch        *command.CreateBranchHandler
	UpdateBranch        *command.UpdateBranchHandler
	DeleteBranch        *command.DeleteBranchHandler
	CreateItemType      *command.CreateItemTypeHandler
	UpdateItemType      *command.UpdateItemTypeHandler
	DeleteItemType      *command.DeleteItemTypeHandler
	CreateInspection    *command.CreateInspectionHandler
	FinalizeInspection  *command.FinalizeInspectionHandler
	DeleteInspection    *command.DeleteInspectionHandler
	AddInspectionItem   *command.AddInspectionItemHandler
	AddDirectItem       *command.AddDirectItemHandler
	EditCurrentItem     *command.EditCurrentItemHandler
	RemoveCurrentItem   *command.RemoveCurrentItemHandler
	RemoveHistoryRecord *command.RemoveHistoryRecordHandler
}

// Queries groups the read use cases served over HTTP.
type Queries struct {
	Authenticate    *query.AuthenticateHandler
	AuthorizeBranch *query.AuthorizeBranchHandler
	GetCompany      *query.GetCompanyHandler
	ListBranches    *query.ListBranchesHandler
	ListItemTypes   *query.ListItemTypesHandler
	GetItemType     *query.GetItemTypeHandler
	ListInspections *query.ListInspectionsHandler
	GetInspection   *query.GetInspectionHandler
	ListInventory   *query.ListInventoryHandler
	GetItemHistory  *query.GetItemHistoryHandler
}

// DocumentRenderer prints a report into a binary document.
type DocumentRenderer interface {
	ContentType() string
	Extension() string
	Render(ctx context.Context, w io.Writer, r *report.Report) error
}

// Handler serves the insumos REST API.
type Handler struct {
	commands     Commands
	queries      Queries
	reports      *report.Assembler
	pdf          DocumentRenderer
	loginLimiter *RateLimiter
	metrics      *Metrics
}

func NewHandler(commands Commands, queries Queries, reports *report.Assembler, pdf DocumentRenderer, loginLimiter *RateLimiter, metrics *Metrics) *Handler {
	return &Handler{
		commands:     commands,
		queries:      queries,
		reports:      reports,
		pdf:          pdf,
		loginLimiter: loginLimiter,
		metrics:      metrics,
	}
}

// RegisterRoutes mounts every API route on router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	public := func(path string, fn http.HandlerFunc, methods ...string) {
		router.HandleFunc(path, h.metrics.instrument(path, fn)).Methods(methods...)
	}
	authed := func(path string, fn http.HandlerFunc, methods ...string) {
		public(path, AuthMiddleware(h.queries.Authenticate)(fn), methods...)
	}

	public("/api/auth/register", h.RegisterCompany, http.MethodPost)
	public("/api/auth/login", h.loginLimiter.Limit(h.Login), http.MethodPost)

	authed("/api/companies/me", h.GetCompany, http.MethodGet)
	authed("/api/companies/me", h.UpdateCompany, http.MethodPatch)

	authed("/api/branches", h.ListBranches, http.MethodGet)
	authed("/api/branches", h.CreateBranch, http.MethodPost)
	authed("/api/branches/{id}", h.GetBranch, http.MethodGet)
	authed("/api/branches/{id}", h.UpdateBranch, http.MethodPut)
	authed("/api/branches/{id}", h.DeleteBranch, http.MethodDelete)
	authed("/api/branches/{id}/inventory", h.ListInventory, http.MethodGet)
	authed("/api/branches/{id}/inventory", h.AddDirectItem, http.MethodPost)
	authed("/api/branches/{id}/inspections", h.ListInspections, http.MethodGet)
	authed("/api/branches/{id}/inspections", h.CreateInspection, http.MethodPost)
	authed("/api/branches/{id}/report", h.GetReport, http.MethodGet)
	authed("/api/branches/{id}/report.csv", h.GetReportCSV, http.MethodGet)
	authed("/api/branches/{id}/report.pdf", h.GetReportPDF, http.MethodGet)

	authed("/api/inspections/{id}", h.GetInspection, http.MethodGet)
	authed("/api/inspections/{id}", h.DeleteInspection, http.MethodDelete)
	authed("/api/inspections/{id}/finalize", h.FinalizeInspection, http.MethodPost)
	authed("/api/inspections/{id}/items", h.ListInspectionItems, http.MethodGet)
	authed("/api/inspections/{id}/items", h.AddInspectionItem, http.MethodPost)

	authed("/api/inventory/{id}", h.EditCurrentItem, http.MethodPut)
	authed("/api/inventory/{id}", h.RemoveCurrentItem, http.MethodDelete)
	authed("/api/inventory/{id}/history", h.GetItemHistory, http.MethodGet)
	authed("/api/history/{id}", h.RemoveHistoryRecord, http.MethodDelete)

	authed("/api/item-types", h.ListItemTypes, http.MethodGet)
	authed("/api/item-types", h.CreateItemType, http.MethodPost)
	authed("/api/item-types/{id}", h.GetItemType, http.MethodGet)
	authed("/api/item-types/{id}", h.UpdateItemType, http.MethodPut)
	authed("/api/item-types/{id}", h.DeleteItemType, http.MethodDelete)
}
