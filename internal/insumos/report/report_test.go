package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/expiry"
	"github.com/tair/insumos/internal/insumos/repository/memory"
)

const (
	companyID = "11222333000181"
	branchID  = "11222333000262"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func ptr(s string) *string { return &s }

func seededStore(t *testing.T, today domain.Date) *memory.Store {
	t.Helper()
	store := memory.NewStore(memory.WithItemTypes(
		domain.ItemType{ID: 1, Description: "Extintor ABC", Image: "uploads/extintor.png", Base: true},
		domain.ItemType{ID: 2, Description: "Mangueira", Base: true},
	))
	ctx := context.Background()
	repos := store.Repositories()
	require.NoError(t, repos.Companies.Create(ctx, &domain.Company{ID: companyID, Name: "Acme", Email: "ops@acme.com"}))
	require.NoError(t, repos.Branches.Create(ctx, &domain.Branch{ID: branchID, CompanyID: companyID, Name: "Loja Centro", Address: "Rua A, 10"}))

	for _, rec := range []domain.CurrentRecord{
		{ItemTypeID: 1, SerialNumber: ptr("EXP"), ExpiryDate: today.AddDays(-3), Location: "Cozinha"},
		{ItemTypeID: 2, SerialNumber: ptr("NODATE"), Location: "Garagem"},
		{ItemTypeID: 1, SerialNumber: ptr("FAR"), ExpiryDate: today.AddDays(400), Location: "Recepção"},
		{ItemTypeID: 1, SerialNumber: ptr("SOON"), ExpiryDate: today.AddDays(10), Location: "Depósito"},
	} {
		rec.BranchID = branchID
		require.NoError(t, repos.Current.Create(ctx, &rec))
	}
	return store
}

func buildReport(t *testing.T) *Report {
	t.Helper()
	clock := fixedClock{t: time.Date(2025, time.June, 10, 8, 0, 0, 0, time.Local)}
	store := seededStore(t, domain.Today(clock))
	r, err := NewAssembler(store, NewStoreSource(store), clock).Build(context.Background(), companyID, branchID)
	require.NoError(t, err)
	return r
}

func TestAssemblerOrdersRowsLikeListing(t *testing.T) {
	r := buildReport(t)

	var serials []string
	var tiers []expiry.Tier
	for _, row := range r.Rows {
		serials = append(serials, *row.SerialNumber)
		tiers = append(tiers, row.SortStatus)
	}
	assert.Equal(t, []string{"FAR", "NODATE", "SOON", "EXP"}, serials)
	assert.Equal(t, []expiry.Tier{expiry.TierOK, expiry.TierOK, expiry.TierWarning, expiry.TierExpired}, tiers)
	assert.Equal(t, "Loja Centro", r.Branch.Name)
	assert.Equal(t, domain.NewDate(2025, time.June, 10), r.GeneratedOn)
	assert.Equal(t, 2, r.Count(expiry.TierOK))
}

func TestReportRowJSONShape(t *testing.T) {
	r := buildReport(t)
	raw, err := json.Marshal(r.Rows[0])
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, map[string]any{
		"descricao":     "Extintor ABC",
		"numero_serial": "FAR",
		"local":         "Recepção",
		"validade":      "2026-07-15",
		"sortStatus":    float64(1),
		"imagem":        "uploads/extintor.png",
	}, fields)
}

func TestAssemblerHidesForeignBranch(t *testing.T) {
	clock := fixedClock{t: time.Now()}
	store := seededStore(t, domain.Today(clock))
	_, err := NewAssembler(store, NewStoreSource(store), clock).Build(context.Background(), "99888777000166", branchID)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestCSVRendererWritesWindows1252(t *testing.T) {
	r := buildReport(t)
	renderer := CSVRenderer{}

	var buf bytes.Buffer
	require.NoError(t, renderer.Render(&buf, r))
	assert.NotContains(t, buf.String(), "Descrição", "output must not be UTF-8")

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(buf.Bytes())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(decoded), "\r\n"), "\r\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Descrição;Número de série;Local;Validade;Situação;Imagem", lines[0])
	assert.Equal(t, "Extintor ABC;FAR;Recepção;15/07/2026;Em dia;uploads/extintor.png", lines[1])
	assert.Equal(t, "Mangueira;NODATE;Garagem;;Em dia;", lines[2])
	assert.Equal(t, "Extintor ABC;EXP;Cozinha;07/06/2025;Vencido;uploads/extintor.png", lines[4])
}

func TestCSVRendererReplacesUnsupportedRunes(t *testing.T) {
	r := &Report{Rows: []Row{{Description: "Extintor 🔥", SerialNumber: ptr("X"), Location: "A"}}}
	var buf bytes.Buffer
	require.NoError(t, CSVRenderer{}.Render(&buf, r))
	assert.Contains(t, buf.String(), "Extintor ")
}

func TestRenderHTML(t *testing.T) {
	r := buildReport(t)

	var plain bytes.Buffer
	require.NoError(t, RenderHTML(&plain, r, ""))
	html := plain.String()
	assert.Contains(t, html, "Loja Centro")
	assert.Contains(t, html, `<tr class="expired">`)
	assert.Contains(t, html, "Vencido")
	assert.NotContains(t, html, "<img")
	assert.Less(t, strings.Index(html, "FAR"), strings.Index(html, "EXP"))

	var withImages bytes.Buffer
	require.NoError(t, RenderHTML(&withImages, r, "https://files.example.com/"))
	assert.Contains(t, withImages.String(), `src="https://files.example.com/uploads/extintor.png"`)

	var empty bytes.Buffer
	require.NoError(t, RenderHTML(&empty, &Report{Branch: domain.Branch{Name: "Vazia"}}, ""))
	assert.Contains(t, empty.String(), "Nenhum item cadastrado.")
}

const sqliteSchema = `
CREATE TABLE insumos (
	id INTEGER PRIMARY KEY,
	descricao TEXT NOT NULL UNIQUE,
	imagem TEXT,
	base BOOLEAN NOT NULL DEFAULT 0
);
CREATE TABLE insumos_filial (
	id INTEGER PRIMARY KEY,
	insumo_id INTEGER NOT NULL REFERENCES insumos(id),
	filial_cnpj TEXT NOT NULL,
	numero_serial TEXT,
	validade DATE,
	local TEXT NOT NULL,
	observacao TEXT,
	atualizado_em TIMESTAMP NOT NULL DEFAULT '2025-06-01 08:30:00'
);
INSERT INTO insumos (id, descricao, imagem) VALUES (1, 'Extintor ABC', 'uploads/extintor.png'), (2, 'Mangueira', NULL);
INSERT INTO insumos_filial (insumo_id, filial_cnpj, numero_serial, validade, local, observacao) VALUES
	(1, '11222333000262', 'SN1', '2025-07-01', 'Corredor A', 'lacre ok'),
	(2, '11222333000262', NULL, NULL, 'Garagem', NULL),
	(1, '55666777000188', 'SN9', '2025-07-01', 'Outra filial', NULL);
`

func TestSQLSourceReadsJoinedRows(t *testing.T) {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)
	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)

	rows, err := NewSQLSource(db).InventoryRows(context.Background(), branchID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Extintor ABC", rows[0].Description)
	assert.Equal(t, "uploads/extintor.png", rows[0].Image)
	assert.Equal(t, "SN1", *rows[0].SerialNumber)
	assert.Equal(t, domain.NewDate(2025, time.July, 1), rows[0].ExpiryDate)
	assert.Equal(t, "lacre ok", rows[0].Note)
	assert.Equal(t, 2025, rows[0].UpdatedAt.Year())

	assert.Nil(t, rows[1].SerialNumber)
	assert.True(t, rows[1].ExpiryDate.IsZero())
	assert.Equal(t, "", rows[1].Image)
	assert.Equal(t, "Garagem", rows[1].Location)
	assert.Equal(t, "", rows[1].Note)
}
