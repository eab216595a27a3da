package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/tair/insumos/internal/insumos/domain"
)

type companyRepo struct{ t *tables }

func (r companyRepo) Create(_ context.Context, company *domain.Company) error {
	return r.t.with(func(st *state) error {
		if _, ok := st.companies[company.ID]; ok {
			return domain.Conflict(domain.ReasonDuplicateTaxID, "tax identifier already registered")
		}
		for _, c := range st.companies {
			if c.Email == company.Email {
				return domain.Conflict(domain.ReasonDuplicateEmail, "email already registered")
			}
		}
		company.CreatedAt = r.t.now()
		st.companies[company.ID] = *company
		return nil
	})
}

func (r companyRepo) FindByID(_ context.Context, id string) (*domain.Company, error) {
	var out *domain.Company
	err := r.t.with(func(st *state) error {
		c, ok := st.companies[id]
		if !ok {
			return domain.NotFound("company")
		}
		out = &c
		return nil
	})
	return out, err
}

func (r companyRepo) FindByEmail(_ context.Context, email string) (*domain.Company, error) {
	var out *domain.Company
	err := r.t.with(func(st *state) error {
		for _, c := range st.companies {
			if c.Email == email {
				out = &c
				return nil
			}
		}
		return domain.NotFound("company")
	})
	return out, err
}

func (r companyRepo) Update(_ context.Context, company *domain.Company) error {
	return r.t.with(func(st *state) error {
		existing, ok := st.companies[company.ID]
		if !ok {
			return domain.NotFound("company")
		}
		for id, c := range st.companies {
			if id != company.ID && c.Email == company.Email {
				return domain.Conflict(domain.ReasonDuplicateEmail, "email already registered")
			}
		}
		existing.Name = company.Name
		existing.Email = company.Email
		existing.Password = company.Password
		st.companies[company.ID] = existing
		return nil
	})
}

type branchRepo struct{ t *tables }

func (r branchRepo) Create(_ context.Context, branch *domain.Branch) error {
	return r.t.with(func(st *state) error {
		if _, ok := st.branches[branch.ID]; ok {
			return domain.Conflict(domain.ReasonDuplicateTaxID, "tax identifier already registered")
		}
		if _, ok := st.companies[branch.CompanyID]; !ok {
			return domain.NotFound("company")
		}
		branch.CreatedAt = r.t.now()
		st.branches[branch.ID] = *branch
		return nil
	})
}

func (r branchRepo) FindByID(_ context.Context, id string) (*domain.Branch, error) {
	var out *domain.Branch
	err := r.t.with(func(st *state) error {
		b, ok := st.branches[id]
		if !ok {
			return domain.NotFound("branch")
		}
		out = &b
		return nil
	})
	return out, err
}

func (r branchRepo) FindByCompany(_ context.Context, companyID string) ([]domain.Branch, error) {
	var out []domain.Branch
	err := r.t.with(func(st *state) error {
		for _, b := range st.branches {
			if b.CompanyID == companyID {
				out = append(out, b)
			}
		}
		slices.SortFunc(out, func(a, b domain.Branch) int { return cmp.Compare(a.Name, b.Name) })
		return nil
	})
	return out, err
}

func (r branchRepo) Update(_ context.Context, branch *domain.Branch) error {
	return r.t.with(func(st *state) error {
		existing, ok := st.branches[branch.ID]
		if !ok {
			return domain.NotFound("branch")
		}
		existing.Name = branch.Name
		existing.Address = branch.Address
		existing.ResponsibleEmail = branch.ResponsibleEmail
		st.branches[branch.ID] = existing
		return nil
	})
}

// Delete cascades like the foreign keys of the SQL schema.
func (r branchRepo) Delete(_ context.Context, id string) error {
	return r.t.with(func(st *state) error {
		if _, ok := st.branches[id]; !ok {
			return domain.NotFound("branch")
		}
		delete(st.branches, id)
		for k, v := range st.inspections {
			if v.BranchID == id {
				delete(st.inspections, k)
			}
		}
		for k, v := range st.history {
			if v.BranchID == id {
				delete(st.history, k)
			}
		}
		for k, v := range st.current {
			if v.BranchID == id {
				delete(st.current, k)
			}
		}
		return nil
	})
}

type itemTypeRepo struct{ t *tables }

func (r itemTypeRepo) FindByID(_ context.Context, id uint) (*domain.ItemType, error) {
	var out *domain.ItemType
	err := r.t.with(func(st *state) error {
		it, ok := st.itemTypes[id]
		if !ok {
			return domain.NotFound("item type")
		}
		out = &it
		return nil
	})
	return out, err
}

func (r itemTypeRepo) FindByDescription(_ context.Context, description string) (*domain.ItemType, error) {
	var out *domain.ItemType
	err := r.t.with(func(st *state) error {
		for _, it := range st.itemTypes {
			if it.Description == description {
				out = &it
				return nil
			}
		}
		return domain.NotFound("item type")
	})
	return out, err
}

func (r itemTypeRepo) CreateIfAbsent(_ context.Context, itemType *domain.ItemType) (bool, error) {
	var created bool
	err := r.t.with(func(st *state) error {
		for _, it := range st.itemTypes {
			if it.Description == itemType.Description {
				return nil
			}
		}
		itemType.ID = st.next("insumos")
		st.itemTypes[itemType.ID] = *itemType
		created = true
		return nil
	})
	return created, err
}

func (r itemTypeRepo) FindAll(_ context.Context) ([]domain.ItemType, error) {
	var out []domain.ItemType
	err := r.t.with(func(st *state) error {
		for _, it := range st.itemTypes {
			out = append(out, it)
		}
		slices.SortFunc(out, func(a, b domain.ItemType) int { return cmp.Compare(a.Description, b.Description) })
		return nil
	})
	return out, err
}

func (r itemTypeRepo) Update(_ context.Context, itemType *domain.ItemType) error {
	return r.t.with(func(st *state) error {
		existing, ok := st.itemTypes[itemType.ID]
		if !ok {
			return domain.NotFound("item type")
		}
		for id, it := range st.itemTypes {
			if id != itemType.ID && it.Description == itemType.Description {
				return domain.ErrDescriptionConflict
			}
		}
		existing.Description = itemType.Description
		existing.Image = itemType.Image
		st.itemTypes[itemType.ID] = existing
		return nil
	})
}

func (r itemTypeRepo) Delete(_ context.Context, id uint) error {
	return r.t.with(func(st *state) error {
		if _, ok := st.itemTypes[id]; !ok {
			return domain.NotFound("item type")
		}
		if referenced(st, id) {
			return domain.ErrReferenced
		}
		delete(st.itemTypes, id)
		return nil
	})
}

func (r itemTypeRepo) IsReferenced(_ context.Context, id uint) (bool, error) {
	var out bool
	err := r.t.with(func(st *state) error {
		out = referenced(st, id)
		return nil
	})
	return out, err
}

func referenced(st *state, itemTypeID uint) bool {
	for _, c := range st.current {
		if c.ItemTypeID == itemTypeID {
			return true
		}
	}
	for _, h := range st.history {
		if h.ItemTypeID == itemTypeID {
			return true
		}
	}
	return false
}

type inspectionRepo struct{ t *tables }

func (r inspectionRepo) Create(_ context.Context, inspection *domain.Inspection) error {
	return r.t.with(func(st *state) error {
		if _, ok := st.branches[inspection.BranchID]; !ok {
			return domain.NotFound("branch")
		}
		inspection.ID = st.next("vistorias")
		st.inspections[inspection.ID] = *inspection
		return nil
	})
}

func (r inspectionRepo) FindByID(_ context.Context, id uint) (*domain.Inspection, error) {
	var out *domain.Inspection
	err := r.t.with(func(st *state) error {
		in, ok := st.inspections[id]
		if !ok {
			return domain.NotFound("inspection")
		}
		out = &in
		return nil
	})
	return out, err
}

// FindByIDForUpdate needs no row lock: transactions already hold the store.
func (r inspectionRepo) FindByIDForUpdate(ctx context.Context, id uint) (*domain.Inspection, error) {
	return r.FindByID(ctx, id)
}

func (r inspectionRepo) FindByBranch(_ context.Context, branchID string) ([]domain.Inspection, error) {
	var out []domain.Inspection
	err := r.t.with(func(st *state) error {
		for _, in := range st.inspections {
			if in.BranchID == branchID {
				out = append(out, in)
			}
		}
		slices.SortFunc(out, func(a, b domain.Inspection) int {
			if c := b.StartDate.Compare(a.StartDate); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		})
		return nil
	})
	return out, err
}

func (r inspectionRepo) Finalize(_ context.Context, id uint, endDate domain.Date) error {
	return r.t.with(func(st *state) error {
		in, ok := st.inspections[id]
		if !ok || in.IsFinalized() {
			return domain.ErrAlreadyFinalized
		}
		in.EndDate = endDate
		st.inspections[id] = in
		return nil
	})
}

func (r inspectionRepo) Delete(_ context.Context, id uint) error {
	return r.t.with(func(st *state) error {
		if _, ok := st.inspections[id]; !ok {
			return domain.NotFound("inspection")
		}
		delete(st.inspections, id)
		for k, h := range st.history {
			if h.InspectionID != nil && *h.InspectionID == id {
				delete(st.history, k)
			}
		}
		return nil
	})
}

type historyRepo struct{ t *tables }

func (r historyRepo) Create(_ context.Context, record *domain.HistoryRecord) error {
	return r.t.with(func(st *state) error {
		if _, ok := st.itemTypes[record.ItemTypeID]; !ok {
			return domain.NotFound("item type")
		}
		if record.InspectionID != nil {
			if _, ok := st.inspections[*record.InspectionID]; !ok {
				return domain.NotFound("inspection")
			}
		}
		record.ID = st.next("historico_insumos")
		record.RecordedAt = r.t.now()
		stored := *record
		stored.SerialNumber = copySerial(record.SerialNumber)
		st.history[record.ID] = stored
		return nil
	})
}

func (r historyRepo) FindByID(_ context.Context, id uint) (*domain.HistoryRecord, error) {
	var out *domain.HistoryRecord
	err := r.t.with(func(st *state) error {
		h, ok := st.history[id]
		if !ok {
			return domain.NotFound("history record")
		}
		out = &h
		return nil
	})
	return out, err
}

func (r historyRepo) FindByInspection(_ context.Context, inspectionID uint) ([]domain.HistoryView, error) {
	var out []domain.HistoryView
	err := r.t.with(func(st *state) error {
		for _, h := range st.history {
			if h.InspectionID != nil && *h.InspectionID == inspectionID {
				out = append(out, historyView(st, h))
			}
		}
		slices.SortFunc(out, func(a, b domain.HistoryView) int { return cmp.Compare(a.ID, b.ID) })
		return nil
	})
	return out, err
}

func (r historyRepo) FindByIdentity(_ context.Context, identity domain.ItemIdentity) ([]domain.HistoryView, error) {
	var out []domain.HistoryView
	err := r.t.with(func(st *state) error {
		for _, h := range st.history {
			if h.Identity().Matches(identity) {
				out = append(out, historyView(st, h))
			}
		}
		slices.SortFunc(out, func(a, b domain.HistoryView) int {
			if c := b.RecordedAt.Compare(a.RecordedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		})
		return nil
	})
	return out, err
}

func (r historyRepo) ExistsInInspection(_ context.Context, inspectionID uint, itemTypeID uint, serial *string) (bool, error) {
	var found bool
	err := r.t.with(func(st *state) error {
		for _, h := range st.history {
			if h.InspectionID != nil && *h.InspectionID == inspectionID &&
				h.ItemTypeID == itemTypeID && domain.SerialsEqual(h.SerialNumber, serial) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r historyRepo) Delete(_ context.Context, id uint) error {
	return r.t.with(func(st *state) error {
		if _, ok := st.history[id]; !ok {
			return domain.NotFound("history record")
		}
		delete(st.history, id)
		return nil
	})
}

func historyView(st *state, h domain.HistoryRecord) domain.HistoryView {
	it := st.itemTypes[h.ItemTypeID]
	view := domain.HistoryView{HistoryRecord: h, Description: it.Description, Image: it.Image}
	if h.InspectionID != nil {
		if in, ok := st.inspections[*h.InspectionID]; ok {
			view.InspectionStart = in.StartDate
			view.Technician = in.Technician
		}
	}
	return view
}

type currentRepo struct{ t *tables }

func (r currentRepo) Create(_ context.Context, record *domain.CurrentRecord) error {
	return r.t.with(func(st *state) error {
		if _, ok := st.itemTypes[record.ItemTypeID]; !ok {
			return domain.NotFound("item type")
		}
		for _, c := range st.current {
			if c.Identity().Matches(record.Identity()) {
				return domain.ErrDuplicateSerial
			}
		}
		record.ID = st.next("insumos_filial")
		record.UpdatedAt = r.t.now()
		stored := *record
		stored.SerialNumber = copySerial(record.SerialNumber)
		st.current[record.ID] = stored
		return nil
	})
}

func (r currentRepo) FindByID(_ context.Context, id uint) (*domain.CurrentRecord, error) {
	var out *domain.CurrentRecord
	err := r.t.with(func(st *state) error {
		c, ok := st.current[id]
		if !ok {
			return domain.NotFound("inventory item")
		}
		out = &c
		return nil
	})
	return out, err
}

func (r currentRepo) FindByIDForUpdate(ctx context.Context, id uint) (*domain.CurrentRecord, error) {
	return r.FindByID(ctx, id)
}

func (r currentRepo) FindByIdentityForUpdate(_ context.Context, identity domain.ItemIdentity) (*domain.CurrentRecord, error) {
	var out *domain.CurrentRecord
	err := r.t.with(func(st *state) error {
		for _, c := range st.current {
			if c.Identity().Matches(identity) {
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r currentRepo) FindByBranch(_ context.Context, branchID string) ([]domain.InventoryView, error) {
	var out []domain.InventoryView
	err := r.t.with(func(st *state) error {
		for _, c := range st.current {
			if c.BranchID != branchID {
				continue
			}
			it := st.itemTypes[c.ItemTypeID]
			out = append(out, domain.InventoryView{CurrentRecord: c, Description: it.Description, Image: it.Image})
		}
		slices.SortFunc(out, func(a, b domain.InventoryView) int { return cmp.Compare(a.ID, b.ID) })
		return nil
	})
	return out, err
}

func (r currentRepo) Update(_ context.Context, record *domain.CurrentRecord) error {
	return r.t.with(func(st *state) error {
		existing, ok := st.current[record.ID]
		if !ok {
			return domain.NotFound("inventory item")
		}
		existing.ExpiryDate = record.ExpiryDate
		existing.Location = record.Location
		existing.Note = record.Note
		existing.UpdatedAt = r.t.now()
		st.current[record.ID] = existing
		return nil
	})
}

func (r currentRepo) Delete(_ context.Context, id uint) error {
	return r.t.with(func(st *state) error {
		if _, ok := st.current[id]; !ok {
			return domain.NotFound("inventory item")
		}
		delete(st.current, id)
		return nil
	})
}

func (r currentRepo) DeleteMatchingInspection(_ context.Context, inspectionID uint) (int64, error) {
	var removed int64
	err := r.t.with(func(st *state) error {
		for _, h := range st.history {
			if h.InspectionID == nil || *h.InspectionID != inspectionID {
				continue
			}
			for k, c := range st.current {
				if c.Identity().Matches(h.Identity()) {
					delete(st.current, k)
					removed++
				}
			}
		}
		return nil
	})
	return removed, err
}
