package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/report"
	"github.com/tair/insumos/internal/insumos/repository/memory"
	"github.com/tair/insumos/internal/insumos/usecase/command"
	"github.com/tair/insumos/internal/insumos/usecase/query"
	"github.com/tair/insumos/pkg/auth"
)

const (
	companyID = "11222333000181"
	branchID  = "11222333000262"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

type apiServer struct {
	t      *testing.T
	router *mux.Router
	today  domain.Date
	token  string
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	clock := fixedClock{t: time.Date(2025, time.June, 10, 9, 0, 0, 0, time.Local)}
	store := memory.NewStore(
		memory.WithNow(clock.Now),
		memory.WithItemTypes(domain.ItemType{ID: 1, Description: "Extintor ABC", Base: true}),
	)
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	notifier := command.NewNotifier(nil, nil, clock)

	commands := Commands{
		RegisterCompany:     command.NewRegisterCompanyHandler(store),
		LoginCompany:        command.NewLoginCompanyHandler(store, tokens),
		UpdateCompany:       command.NewUpdateCompanyHandler(store),
		CreateBranch:        command.NewCreateBranchHandler(store),
		UpdateBranch:        command.NewUpdateBranchHandler(store),
		DeleteBranch:        command.NewDeleteBranchHandler(store, notifier),
		CreateItemType:      command.NewCreateItemTypeHandler(store),
		UpdateItemType:      command.NewUpdateItemTypeHandler(store, notifier),
		DeleteItemType:      command.NewDeleteItemTypeHandler(store, notifier),
		CreateInspection:    command.NewCreateInspectionHandler(store, clock, notifier),
		FinalizeInspection:  command.NewFinalizeInspectionHandler(store, clock, notifier),
		DeleteInspection:    command.NewDeleteInspectionHandler(store, notifier),
		AddInspectionItem:   command.NewAddInspectionItemHandler(store, clock, notifier),
		AddDirectItem:       command.NewAddDirectItemHandler(store, clock, notifier),
		EditCurrentItem:     command.NewEditCurrentItemHandler(store, clock, notifier),
		RemoveCurrentItem:   command.NewRemoveCurrentItemHandler(store, notifier),
		RemoveHistoryRecord: command.NewRemoveHistoryRecordHandler(store, notifier),
	}
	queries := Queries{
		Authenticate:    query.NewAuthenticateHandler(tokens),
		AuthorizeBranch: query.NewAuthorizeBranchHandler(store),
		GetCompany:      query.NewGetCompanyHandler(store),
		ListBranches:    query.NewListBranchesHandler(store),
		ListItemTypes:   query.NewListItemTypesHandler(store),
		GetItemType:     query.NewGetItemTypeHandler(store),
		ListInspections: query.NewListInspectionsHandler(store),
		GetInspection:   query.NewGetInspectionHandler(store),
		ListInventory:   query.NewListInventoryHandler(store, clock, nil),
		GetItemHistory:  query.NewGetItemHistoryHandler(store),
	}
	assembler := report.NewAssembler(store, report.NewStoreSource(store), clock)

	h := NewHandler(commands, queries, assembler, nil, nil, NewMetrics(prometheus.NewRegistry()))
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware)
	h.RegisterRoutes(router)

	return &apiServer{t: t, router: router, today: domain.Today(clock)}
}

func (s *apiServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// signIn registers a company with one branch and stores its token.
func (s *apiServer) signIn() {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register", map[string]string{
		"tax_id": "11.222.333/0001-81", "name": "Acme", "email": "ops@acme.com", "password": "secret1",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var login command.LoginResponse
	rec = s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ops@acme.com", "password": "secret1"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	decodeEnvelope(s.t, rec, &login)
	require.NotEmpty(s.t, login.Token)
	s.token = login.Token

	rec = s.do(http.MethodPost, "/api/branches", map[string]string{"tax_id": branchID, "name": "Centro"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *apiServer) item(serial string, daysOut int) map[string]string {
	return map[string]string{
		"description":   "Extintor ABC",
		"expiry_date":   s.today.AddDays(daysOut).String(),
		"location":      "Corredor A",
		"serial_number": serial,
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.Validation("bad"), http.StatusBadRequest},
		{"not found", domain.NotFound("branch"), http.StatusNotFound},
		{"conflict", domain.Conflict("duplicate_serial", "dup"), http.StatusConflict},
		{"forbidden", domain.Forbidden("base_item_type", "no"), http.StatusForbidden},
		{"unauthorized", domain.Unauthorized("invalid_token", "no"), http.StatusUnauthorized},
		{"transient", domain.Transient("busy", errors.New("lock timeout")), http.StatusServiceUnavailable},
		{"internal", domain.Internal("boom", errors.New("disk")), http.StatusInternalServerError},
		{"plain error", errors.New("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestRespondErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(rec, req, domain.Internal("failed to load", errors.New("pq: password authentication failed")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password authentication")
	assert.Empty(t, rec.Header().Get("Retry-After"))
}

func TestRespondErrorTransientAdvertisesRetry(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/inventory/1", nil)

	respondError(rec, req, domain.Transient("record is busy", errors.New("lock timeout")))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	env := decodeEnvelope(t, rec, nil)
	assert.False(t, env.Success)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newAPIServer(t)

	rec := s.do(http.MethodGet, "/api/branches", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec, nil)
	assert.Equal(t, domain.ReasonMissingToken, env.Code)

	s.token = "not-a-jwt"
	rec = s.do(http.MethodGet, "/api/branches", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetCompanyUsesTokenSubject(t *testing.T) {
	s := newAPIServer(t)
	s.signIn()

	var company domain.Company
	rec := s.do(http.MethodGet, "/api/companies/me", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeEnvelope(t, rec, &company)
	assert.Equal(t, companyID, company.ID)
	assert.NotContains(t, rec.Body.String(), "secret1")
}

func TestLoginWithWrongPassword(t *testing.T) {
	s := newAPIServer(t)
	s.signIn()
	s.token = ""

	rec := s.do(http.MethodPost, "/api/auth/login", map[string]string{"email": "ops@acme.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	s := newAPIServer(t)
	s.signIn()

	req := httptest.NewRequest(http.MethodPost, "/api/branches", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+s.token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInspectionThenDirectAddFlow(t *testing.T) {
	s := newAPIServer(t)
	s.signIn()

	var in domain.Inspection
	rec := s.do(http.MethodPost, "/api/branches/"+branchID+"/inspections", map[string]string{"technician": "Ana"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeEnvelope(t, rec, &in)
	require.NotZero(t, in.ID)

	inspectionItems := "/api/inspections/" + itoa(in.ID) + "/items"
	rec = s.do(http.MethodPost, inspectionItems, s.item("SN-1", 30))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// history only: the live inventory stays empty
	var rows []json.RawMessage
	rec = s.do(http.MethodGet, "/api/branches/"+branchID+"/inventory", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &rows)
	assert.Empty(t, rows)

	rec = s.do(http.MethodPost, inspectionItems, s.item("SN-1", 30))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var added command.AddDirectItemResult
	rec = s.do(http.MethodPost, "/api/branches/"+branchID+"/inventory", s.item("SN-1", 30))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeEnvelope(t, rec, &added)
	assert.True(t, added.Created)

	rec = s.do(http.MethodPost, "/api/branches/"+branchID+"/inventory", s.item("SN-1", 60))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/branches/"+branchID+"/inventory", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeEnvelope(t, rec, &rows)
	assert.Len(t, rows, 1)

	var history query.ItemHistory
	rec = s.do(http.MethodGet, "/api/inventory/"+itoa(added.Record.ID)+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeEnvelope(t, rec, &history)
	assert.Len(t, history.History, 1)

	rec = s.do(http.MethodPost, "/api/inspections/"+itoa(in.ID)+"/finalize", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, inspectionItems, s.item("SN-2", 30))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, domain.ReasonInspectionFinalized, decodeEnvelope(t, rec, nil).Code)

	rec = s.do(http.MethodDelete, "/api/inspections/"+itoa(in.ID), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAddItemRejectsPastExpiry(t *testing.T) {
	s := newAPIServer(t)
	s.signIn()

	rec := s.do(http.MethodPost, "/api/branches/"+branchID+"/inventory", s.item("SN-9", -1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForeignBranchIsNotFound(t *testing.T) {
	s := newAPIServer(t)
	s.signIn()

	for _, path := range []string{
		"/api/branches/99888777000247",
		"/api/branches/99888777000247/inventory",
		"/api/branches/99888777000247/report",
	} {
		rec := s.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestReportCSVDownload(t *testing.T) {
	s := newAPIServer(t)
	s.signIn()

	rec := s.do(http.MethodPost, "/api/branches/"+branchID+"/inventory", s.item("SN-1", 10))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/branches/"+branchID+"/report.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=windows-1252", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "inventario-"+branchID+"-")
	assert.Contains(t, rec.Body.String(), "SN-1")
	assert.Contains(t, rec.Body.String(), "A vencer")
}

func TestReportPDFWithoutRendererIsNotImplemented(t *testing.T) {
	s := newAPIServer(t)
	s.signIn()

	rec := s.do(http.MethodGet, "/api/branches/"+branchID+"/report.pdf", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestBaseItemTypeCannotBeDeleted(t *testing.T) {
	s := newAPIServer(t)
	s.signIn()

	rec := s.do(http.MethodDelete, "/api/item-types/1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/item-types/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNilRateLimiterPassesThrough(t *testing.T) {
	var rl *RateLimiter
	called := false
	h := rl.Limit(func(w http.ResponseWriter, r *http.Request) { called = true })

	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.True(t, called)

	called = false
	NewRateLimiter(nil, "login", 5, time.Minute, nil).Limit(func(w http.ResponseWriter, r *http.Request) { called = true })(
		httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	assert.True(t, called)
}

func TestClientIP(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name    string
		trusted []netip.Prefix
		remote  string
		xff     string
		want    string
	}{
		{"peer address", nil, "10.0.0.7:52000", "", "10.0.0.7"},
		{"forwarded header from untrusted peer is ignored", nil, "198.51.100.4:52000", "203.0.113.9", "198.51.100.4"},
		{"spoofed header is ignored without trusted proxies", nil, "10.0.0.7:52000", "203.0.113.9, 10.0.0.1", "10.0.0.7"},
		{"trusted proxy forwards the client", proxies, "10.0.0.7:52000", "203.0.113.9", "203.0.113.9"},
		{"spoofed prefix behind trusted proxy", proxies, "10.0.0.7:52000", "1.2.3.4, 203.0.113.9, 10.0.0.1", "203.0.113.9"},
		{"all hops trusted", proxies, "10.0.0.7:52000", "10.0.0.2", "10.0.0.2"},
		{"trusted proxy without header", proxies, "10.0.0.7:52000", "", "10.0.0.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(nil, "login", 5, time.Minute, tt.trusted)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, rl.clientIP(req))
		})
	}
}

func TestRotatingForwardedHeaderSharesOneKey(t *testing.T) {
	rl := NewRateLimiter(nil, "login", 5, time.Minute, nil)
	seen := map[string]bool{}
	for i := range 20 {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.4:" + strconv.Itoa(40000+i)
		req.Header.Set("X-Forwarded-For", "203.0.113."+strconv.Itoa(i))
		seen[rl.clientIP(req)] = true
	}
	assert.Len(t, seen, 1)
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newAPIServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/branches", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestTimeoutMiddlewareSetsDeadline(t *testing.T) {
	var deadline bool
	h := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, deadline = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background()))
	assert.True(t, deadline)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
