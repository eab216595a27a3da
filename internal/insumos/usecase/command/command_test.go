package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/repository/memory"
)

const (
	companyID = "11222333000181"
	branchID  = "11222333000262"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type recordingInvalidator struct {
	branches []string
	catalog  int
}

func (i *recordingInvalidator) InvalidateBranch(_ context.Context, branchID string) error {
	i.branches = append(i.branches, branchID)
	return nil
}

func (i *recordingInvalidator) InvalidateCatalog(context.Context) error {
	i.catalog++
	return nil
}

type fixture struct {
	ctx         context.Context
	store       *memory.Store
	clock       fixedClock
	today       domain.Date
	publisher   *recordingPublisher
	invalidator *recordingInvalidator
	notifier    *Notifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := fixedClock{t: time.Date(2025, time.June, 10, 14, 30, 0, 0, time.Local)}
	f := &fixture{
		ctx:         context.Background(),
		store:       memory.NewStore(memory.WithNow(clock.Now), memory.WithItemTypes(domain.ItemType{ID: 1, Description: "Extintor ABC", Base: true})),
		clock:       clock,
		today:       domain.Today(clock),
		publisher:   &recordingPublisher{},
		invalidator: &recordingInvalidator{},
	}
	f.notifier = NewNotifier(f.publisher, f.invalidator, clock)

	_, err := NewRegisterCompanyHandler(f.store).Handle(f.ctx, RegisterCompanyCommand{
		TaxID: "11.222.333/0001-81", Name: "Acme", Email: "ops@acme.com", Password: "secret1",
	})
	require.NoError(t, err)
	_, err = NewCreateBranchHandler(f.store).Handle(f.ctx, CreateBranchCommand{
		CompanyID: companyID, TaxID: branchID, Name: "Centro",
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) item(serial string, daysOut int) ItemInput {
	return ItemInput{
		Description:  "Extintor ABC",
		ExpiryDate:   f.today.AddDays(daysOut).String(),
		Location:     "Corredor A",
		SerialNumber: serial,
	}
}

func (f *fixture) openInspection(t *testing.T) *domain.Inspection {
	t.Helper()
	in, err := NewCreateInspectionHandler(f.store, f.clock, f.notifier).Handle(f.ctx, CreateInspectionCommand{
		CompanyID: companyID, BranchID: branchID, Technician: "Ana",
	})
	require.NoError(t, err)
	return in
}

func (f *fixture) inventory(t *testing.T) []domain.InventoryView {
	t.Helper()
	rows, err := f.store.Repositories().Current.FindByBranch(f.ctx, branchID)
	require.NoError(t, err)
	return rows
}

func TestValidateItemOrder(t *testing.T) {
	today := domain.NewDate(2025, time.June, 10)
	tests := []struct {
		name string
		in   ItemInput
		want string
	}{
		{"everything missing", ItemInput{}, "description is required"},
		{"location before expiry", ItemInput{Description: "X"}, "location is required"},
		{"expiry missing", ItemInput{Description: "X", Location: "A"}, "expiry_date is required"},
		{"expiry malformed", ItemInput{Description: "X", Location: "A", ExpiryDate: "10/06/2025"}, "expiry_date must be a valid date in YYYY-MM-DD format"},
		{"expiry impossible", ItemInput{Description: "X", Location: "A", ExpiryDate: "2025-02-30"}, "expiry_date must be a valid date in YYYY-MM-DD format"},
		{"expiry yesterday", ItemInput{Description: "X", Location: "A", ExpiryDate: "2025-06-09"}, "expiry_date must be today or later"},
		{"serial missing", ItemInput{Description: "X", Location: "A", ExpiryDate: "2025-06-10"}, "serial_number is required"},
		{"blank serial", ItemInput{Description: "X", Location: "A", ExpiryDate: "2025-06-10", SerialNumber: "  "}, "serial_number is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateItem(tt.in, today)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.EqualError(t, err, tt.want)
		})
	}

	got, err := validateItem(ItemInput{Description: " X ", Location: "A", ExpiryDate: "2025-06-10", SerialNumber: " SN1 "}, today)
	require.NoError(t, err)
	assert.Equal(t, "X", got.description)
	assert.Equal(t, "SN1", *got.serial)
	assert.Equal(t, today, got.expiry)
}

func TestNormalizeTaxID(t *testing.T) {
	got, err := normalizeTaxID("tax_id", "11.222.333/0001-81")
	require.NoError(t, err)
	assert.Equal(t, "11222333000181", got)

	_, err = normalizeTaxID("tax_id", "1122233300018")
	assert.EqualError(t, err, "tax_id must have 14 digits")
	_, err = normalizeTaxID("tax_id", "1122233300018X")
	assert.EqualError(t, err, "tax_id must contain only digits")
}

func TestAddDirectItemUpsertsByIdentity(t *testing.T) {
	f := newFixture(t)
	h := NewAddDirectItemHandler(f.store, f.clock, f.notifier)

	first, err := h.Handle(f.ctx, AddDirectItemCommand{CompanyID: companyID, BranchID: branchID, Item: f.item("SN1", 10)})
	require.NoError(t, err)
	assert.True(t, first.Created)

	second := f.item("SN1", 200)
	second.Location = "Depósito"
	res, err := h.Handle(f.ctx, AddDirectItemCommand{CompanyID: companyID, BranchID: branchID, Item: second})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, first.Record.ID, res.Record.ID)

	rows := f.inventory(t)
	require.Len(t, rows, 1)
	assert.Equal(t, f.today.AddDays(200), rows[0].ExpiryDate)
	assert.Equal(t, "Depósito", rows[0].Location)

	history, err := f.store.Repositories().History.FindByIdentity(f.ctx, rows[0].Identity())
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, []string{domain.EventInventoryUpserted, domain.EventInventoryUpserted}, f.publisher.types())
}

func TestAddDirectItemCreatesUnknownItemType(t *testing.T) {
	f := newFixture(t)
	in := f.item("M-7", 40)
	in.Description = "Mangueira 15m"

	res, err := NewAddDirectItemHandler(f.store, f.clock, f.notifier).Handle(f.ctx, AddDirectItemCommand{
		CompanyID: companyID, BranchID: branchID, Item: in,
	})
	require.NoError(t, err)

	it, err := f.store.Repositories().ItemTypes.FindByDescription(f.ctx, "Mangueira 15m")
	require.NoError(t, err)
	assert.Equal(t, it.ID, res.Record.ItemTypeID)
	assert.False(t, it.Base)
}

func TestAddDirectItemForeignBranchIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := NewAddDirectItemHandler(f.store, f.clock, f.notifier).Handle(f.ctx, AddDirectItemCommand{
		CompanyID: "99999999000199", BranchID: branchID, Item: f.item("SN1", 1),
	})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.Empty(t, f.inventory(t))
	assert.Empty(t, f.publisher.types())
}

func TestAddInspectionItemWritesHistoryOnly(t *testing.T) {
	f := newFixture(t)
	in := f.openInspection(t)

	record, err := NewAddInspectionItemHandler(f.store, f.clock, f.notifier).Handle(f.ctx, AddInspectionItemCommand{
		CompanyID: companyID, InspectionID: in.ID, Item: f.item("SN1", 1),
	})
	require.NoError(t, err)
	require.NotNil(t, record.InspectionID)
	assert.Equal(t, in.ID, *record.InspectionID)
	assert.Equal(t, branchID, record.BranchID)
	assert.Empty(t, f.inventory(t))
	assert.Contains(t, f.invalidator.branches, branchID)
}

func TestAddInspectionItemRejectsYesterday(t *testing.T) {
	f := newFixture(t)
	in := f.openInspection(t)

	_, err := NewAddInspectionItemHandler(f.store, f.clock, f.notifier).Handle(f.ctx, AddInspectionItemCommand{
		CompanyID: companyID, InspectionID: in.ID, Item: f.item("SN1", -1),
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.EqualError(t, err, "expiry_date must be today or later")

	items, err := f.store.Repositories().History.FindByInspection(f.ctx, in.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddInspectionItemRejectsDuplicateSerial(t *testing.T) {
	f := newFixture(t)
	in := f.openInspection(t)
	h := NewAddInspectionItemHandler(f.store, f.clock, f.notifier)

	_, err := h.Handle(f.ctx, AddInspectionItemCommand{CompanyID: companyID, InspectionID: in.ID, Item: f.item("SN1", 5)})
	require.NoError(t, err)
	_, err = h.Handle(f.ctx, AddInspectionItemCommand{CompanyID: companyID, InspectionID: in.ID, Item: f.item("SN1", 9)})
	assert.ErrorIs(t, err, domain.ErrDuplicateSerial)
}

func TestAddInspectionItemRejectsFinalized(t *testing.T) {
	f := newFixture(t)
	in := f.openInspection(t)
	_, err := NewFinalizeInspectionHandler(f.store, f.clock, f.notifier).Handle(f.ctx, FinalizeInspectionCommand{CompanyID: companyID, InspectionID: in.ID})
	require.NoError(t, err)

	_, err = NewAddInspectionItemHandler(f.store, f.clock, f.notifier).Handle(f.ctx, AddInspectionItemCommand{
		CompanyID: companyID, InspectionID: in.ID, Item: f.item("SN1", 1),
	})
	assert.ErrorIs(t, err, domain.ErrInspectionFinalized)
}

func TestFinalizeTwiceKeepsEndDate(t *testing.T) {
	f := newFixture(t)
	in := f.openInspection(t)

	first, err := NewFinalizeInspectionHandler(f.store, f.clock, f.notifier).Handle(f.ctx, FinalizeInspectionCommand{CompanyID: companyID, InspectionID: in.ID})
	require.NoError(t, err)
	assert.Equal(t, f.today, first.EndDate)

	later := fixedClock{t: f.clock.t.AddDate(0, 0, 3)}
	_, err = NewFinalizeInspectionHandler(f.store, later, f.notifier).Handle(f.ctx, FinalizeInspectionCommand{CompanyID: companyID, InspectionID: in.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	stored, err := f.store.Repositories().Inspections.FindByID(f.ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, f.today, stored.EndDate)
}

func TestDeleteOpenInspectionReconcilesLedgers(t *testing.T) {
	f := newFixture(t)
	in := f.openInspection(t)
	add := NewAddInspectionItemHandler(f.store, f.clock, f.notifier)
	direct := NewAddDirectItemHandler(f.store, f.clock, f.notifier)

	for _, serial := range []string{"SN1", "SN2"} {
		_, err := add.Handle(f.ctx, AddInspectionItemCommand{CompanyID: companyID, InspectionID: in.ID, Item: f.item(serial, 3)})
		require.NoError(t, err)
		_, err = direct.Handle(f.ctx, AddDirectItemCommand{CompanyID: companyID, BranchID: branchID, Item: f.item(serial, 3)})
		require.NoError(t, err)
	}
	_, err := direct.Handle(f.ctx, AddDirectItemCommand{CompanyID: companyID, BranchID: branchID, Item: f.item("SN3", 3)})
	require.NoError(t, err)
	require.Len(t, f.inventory(t), 3)

	require.NoError(t, NewDeleteInspectionHandler(f.store, f.notifier).Handle(f.ctx, DeleteInspectionCommand{CompanyID: companyID, InspectionID: in.ID}))

	rows := f.inventory(t)
	require.Len(t, rows, 1)
	assert.Equal(t, "SN3", *rows[0].SerialNumber)

	items, err := f.store.Repositories().History.FindByInspection(f.ctx, in.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	_, err = f.store.Repositories().Inspections.FindByID(f.ctx, in.ID)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestDeleteFinalizedInspectionIsRejected(t *testing.T) {
	f := newFixture(t)
	in := f.openInspection(t)
	_, err := NewAddInspectionItemHandler(f.store, f.clock, f.notifier).Handle(f.ctx, AddInspectionItemCommand{CompanyID: companyID, InspectionID: in.ID, Item: f.item("SN1", 3)})
	require.NoError(t, err)
	_, err = NewFinalizeInspectionHandler(f.store, f.clock, f.notifier).Handle(f.ctx, FinalizeInspectionCommand{CompanyID: companyID, InspectionID: in.ID})
	require.NoError(t, err)

	err = NewDeleteInspectionHandler(f.store, f.notifier).Handle(f.ctx, DeleteInspectionCommand{CompanyID: companyID, InspectionID: in.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)

	items, err := f.store.Repositories().History.FindByInspection(f.ctx, in.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestEditCurrentItem(t *testing.T) {
	f := newFixture(t)
	res, err := NewAddDirectItemHandler(f.store, f.clock, f.notifier).Handle(f.ctx, AddDirectItemCommand{CompanyID: companyID, BranchID: branchID, Item: f.item("SN1", 3)})
	require.NoError(t, err)
	h := NewEditCurrentItemHandler(f.store, f.clock, f.notifier)

	t.Run("validates location before expiry", func(t *testing.T) {
		_, err := h.Handle(f.ctx, EditCurrentItemCommand{CompanyID: companyID, RecordID: res.Record.ID, ExpiryDate: "bad"})
		assert.EqualError(t, err, "location is required")
	})

	t.Run("rejects past expiry", func(t *testing.T) {
		_, err := h.Handle(f.ctx, EditCurrentItemCommand{CompanyID: companyID, RecordID: res.Record.ID, Location: "B", ExpiryDate: f.today.AddDays(-1).String()})
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("foreign company", func(t *testing.T) {
		_, err := h.Handle(f.ctx, EditCurrentItemCommand{CompanyID: "99999999000199", RecordID: res.Record.ID, Location: "B", ExpiryDate: f.today.String()})
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	})

	t.Run("overwrites in place", func(t *testing.T) {
		updated, err := h.Handle(f.ctx, EditCurrentItemCommand{CompanyID: companyID, RecordID: res.Record.ID, Location: "Sala 2", ExpiryDate: f.today.String(), Note: "recarregado"})
		require.NoError(t, err)
		assert.Equal(t, "SN1", *updated.SerialNumber)

		rows := f.inventory(t)
		require.Len(t, rows, 1)
		assert.Equal(t, "Sala 2", rows[0].Location)
		assert.Equal(t, "recarregado", rows[0].Note)
		assert.Equal(t, f.today, rows[0].ExpiryDate)
	})
}

func TestRemoveCurrentItemKeepsHistory(t *testing.T) {
	f := newFixture(t)
	in := f.openInspection(t)
	_, err := NewAddInspectionItemHandler(f.store, f.clock, f.notifier).Handle(f.ctx, AddInspectionItemCommand{CompanyID: companyID, InspectionID: in.ID, Item: f.item("SN1", 3)})
	require.NoError(t, err)
	res, err := NewAddDirectItemHandler(f.store, f.clock, f.notifier).Handle(f.ctx, AddDirectItemCommand{CompanyID: companyID, BranchID: branchID, Item: f.item("SN1", 3)})
	require.NoError(t, err)

	require.NoError(t, NewRemoveCurrentItemHandler(f.store, f.notifier).Handle(f.ctx, RemoveCurrentItemCommand{CompanyID: companyID, RecordID: res.Record.ID}))
	assert.Empty(t, f.inventory(t))

	history, err := f.store.Repositories().History.FindByIdentity(f.ctx, res.Record.Identity())
	require.NoError(t, err)
	assert.Len(t, history, 1)

	err = NewRemoveCurrentItemHandler(f.store, f.notifier).Handle(f.ctx, RemoveCurrentItemCommand{CompanyID: companyID, RecordID: res.Record.ID})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestRemoveHistoryRecord(t *testing.T) {
	f := newFixture(t)
	in := f.openInspection(t)
	add := NewAddInspectionItemHandler(f.store, f.clock, f.notifier)
	remove := NewRemoveHistoryRecordHandler(f.store, f.notifier)

	first, err := add.Handle(f.ctx, AddInspectionItemCommand{CompanyID: companyID, InspectionID: in.ID, Item: f.item("SN1", 3)})
	require.NoError(t, err)
	second, err := add.Handle(f.ctx, AddInspectionItemCommand{CompanyID: companyID, InspectionID: in.ID, Item: f.item("SN2", 3)})
	require.NoError(t, err)

	require.NoError(t, remove.Handle(f.ctx, RemoveHistoryRecordCommand{CompanyID: companyID, HistoryID: first.ID}))

	_, err = NewFinalizeInspectionHandler(f.store, f.clock, f.notifier).Handle(f.ctx, FinalizeInspectionCommand{CompanyID: companyID, InspectionID: in.ID})
	require.NoError(t, err)
	err = remove.Handle(f.ctx, RemoveHistoryRecordCommand{CompanyID: companyID, HistoryID: second.ID})
	assert.ErrorIs(t, err, domain.ErrInspectionFinalized)
}

func TestDeleteReferencedItemTypeIsConflict(t *testing.T) {
	f := newFixture(t)
	created, isNew, err := NewCreateItemTypeHandler(f.store).Handle(f.ctx, CreateItemTypeCommand{Description: "Detector de fumaça", Image: "uploads/detector.png"})
	require.NoError(t, err)
	require.True(t, isNew)

	in := f.item("D-1", 90)
	in.Description = "Detector de fumaça"
	_, err = NewAddDirectItemHandler(f.store, f.clock, f.notifier).Handle(f.ctx, AddDirectItemCommand{CompanyID: companyID, BranchID: branchID, Item: in})
	require.NoError(t, err)

	err = NewDeleteItemTypeHandler(f.store, f.notifier).Handle(f.ctx, DeleteItemTypeCommand{ID: created.ID})
	assert.ErrorIs(t, err, domain.ErrReferenced)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))
}

func TestItemTypeCatalogRules(t *testing.T) {
	f := newFixture(t)
	create := NewCreateItemTypeHandler(f.store)

	again, isNew, err := create.Handle(f.ctx, CreateItemTypeCommand{Description: "Extintor ABC"})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, uint(1), again.ID)

	_, err = NewUpdateItemTypeHandler(f.store, f.notifier).Handle(f.ctx, UpdateItemTypeCommand{ID: 1, Description: "Outro"})
	assert.ErrorIs(t, err, domain.ErrBaseCatalogEntry)
	err = NewDeleteItemTypeHandler(f.store, f.notifier).Handle(f.ctx, DeleteItemTypeCommand{ID: 1})
	assert.ErrorIs(t, err, domain.ErrBaseCatalogEntry)

	custom, _, err := create.Handle(f.ctx, CreateItemTypeCommand{Description: "Luminária"})
	require.NoError(t, err)
	_, err = NewUpdateItemTypeHandler(f.store, f.notifier).Handle(f.ctx, UpdateItemTypeCommand{ID: custom.ID, Description: "Extintor ABC"})
	assert.ErrorIs(t, err, domain.ErrDescriptionConflict)
	assert.Zero(t, f.invalidator.catalog)

	image := "uploads/luminaria.png"
	updated, err := NewUpdateItemTypeHandler(f.store, f.notifier).Handle(f.ctx, UpdateItemTypeCommand{ID: custom.ID, Description: "Luminária de emergência", Image: &image})
	require.NoError(t, err)
	assert.Equal(t, image, updated.Image)
	assert.Equal(t, 1, f.invalidator.catalog)

	require.NoError(t, NewDeleteItemTypeHandler(f.store, f.notifier).Handle(f.ctx, DeleteItemTypeCommand{ID: custom.ID}))
	err = NewDeleteItemTypeHandler(f.store, f.notifier).Handle(f.ctx, DeleteItemTypeCommand{ID: custom.ID})
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
	assert.Equal(t, 2, f.invalidator.catalog)
	assert.Empty(t, f.invalidator.branches)
	assert.Equal(t, []string{domain.EventItemTypeUpdated, domain.EventItemTypeDeleted}, f.publisher.types())
}

func TestPublishFailureDoesNotFailCommand(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	in, err := NewCreateInspectionHandler(f.store, f.clock, f.notifier).Handle(f.ctx, CreateInspectionCommand{
		CompanyID: companyID, BranchID: branchID, Technician: "Ana",
	})
	require.NoError(t, err)
	assert.Equal(t, f.today, in.StartDate)
	assert.Equal(t, []string{domain.EventInspectionCreated}, f.publisher.types())
}

func TestCompanyAccount(t *testing.T) {
	f := newFixture(t)

	_, err := NewRegisterCompanyHandler(f.store).Handle(f.ctx, RegisterCompanyCommand{
		TaxID: "22333444000155", Name: "Other", Email: "OPS@acme.com", Password: "secret1",
	})
	assert.ErrorIs(t, err, domain.Conflict(domain.ReasonDuplicateEmail, ""))

	issuer := tokenIssuerFunc(func(id, name string) (string, error) { return "token-" + id, nil })
	login := NewLoginCompanyHandler(f.store, issuer)

	resp, err := login.Handle(f.ctx, LoginCompanyCommand{Email: "ops@acme.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "token-"+companyID, resp.Token)

	_, err = login.Handle(f.ctx, LoginCompanyCommand{Email: "ops@acme.com", Password: "wrong!!"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = login.Handle(f.ctx, LoginCompanyCommand{Email: "nobody@acme.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	password := "changed1"
	_, err = NewUpdateCompanyHandler(f.store).Handle(f.ctx, UpdateCompanyCommand{CompanyID: companyID, Password: &password})
	require.NoError(t, err)
	_, err = login.Handle(f.ctx, LoginCompanyCommand{Email: "ops@acme.com", Password: "changed1"})
	require.NoError(t, err)
}

type tokenIssuerFunc func(companyID, name string) (string, error)

func (f tokenIssuerFunc) GenerateToken(companyID, name string) (string, error) {
	return f(companyID, name)
}
