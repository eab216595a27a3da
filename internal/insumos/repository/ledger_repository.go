package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/insumos/internal/insumos/domain"
)

const historyViewColumns = "h.*, i.descricao, i.imagem, v.data_inicio, v.tecnico"

type GormHistoryRepository struct {
	db *gorm.DB
}

func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

func (r *GormHistoryRepository) Create(ctx context.Context, record *domain.HistoryRecord) error {
	return translateError(r.db.WithContext(ctx).Create(record).Error, "history record")
}

func (r *GormHistoryRepository) FindByID(ctx context.Context, id uint) (*domain.HistoryRecord, error) {
	var record domain.HistoryRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, translateError(err, "history record")
	}
	return &record, nil
}

func (r *GormHistoryRepository) views(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("historico_insumos AS h").
		Select(historyViewColumns).
		Joins("JOIN insumos i ON i.id = h.insumo_id").
		Joins("LEFT JOIN vistorias v ON v.id = h.vistoria_id")
}

func (r *GormHistoryRepository) FindByInspection(ctx context.Context, inspectionID uint) ([]domain.HistoryView, error) {
	var views []domain.HistoryView
	err := r.views(ctx).
		Where("h.vistoria_id = ?", inspectionID).
		Order("h.id ASC").
		Scan(&views).Error
	return views, translateError(err, "history record")
}

// FindByIdentity joins on (branch, item type, serial), newest first.
func (r *GormHistoryRepository) FindByIdentity(ctx context.Context, identity domain.ItemIdentity) ([]domain.HistoryView, error) {
	serialSQL, serialArgs := serialCondition("h.numero_serial", identity.SerialNumber)

	var views []domain.HistoryView
	err := r.views(ctx).
		Where("h.filial_cnpj = ? AND h.insumo_id = ?", identity.BranchID, identity.ItemTypeID).
		Where(serialSQL, serialArgs...).
		Order("h.registrado_em DESC, h.id DESC").
		Scan(&views).Error
	return views, translateError(err, "history record")
}

func (r *GormHistoryRepository) ExistsInInspection(ctx context.Context, inspectionID uint, itemTypeID uint, serial *string) (bool, error) {
	serialSQL, serialArgs := serialCondition("numero_serial", serial)

	var count int64
	err := r.db.WithContext(ctx).Model(&domain.HistoryRecord{}).
		Where("vistoria_id = ? AND insumo_id = ?", inspectionID, itemTypeID).
		Where(serialSQL, serialArgs...).
		Count(&count).Error
	return count > 0, translateError(err, "history record")
}

func (r *GormHistoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.HistoryRecord{}, id)
	return rowsOrNotFound(res, "history record")
}

type GormCurrentInventoryRepository struct {
	db *gorm.DB
}

func NewGormCurrentInventoryRepository(db *gorm.DB) *GormCurrentInventoryRepository {
	return &GormCurrentInventoryRepository{db: db}
}

func (r *GormCurrentInventoryRepository) Create(ctx context.Context, record *domain.CurrentRecord) error {
	return translateError(r.db.WithContext(ctx).Create(record).Error, "inventory item")
}

func (r *GormCurrentInventoryRepository) FindByID(ctx context.Context, id uint) (*domain.CurrentRecord, error) {
	var record domain.CurrentRecord
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, translateError(err, "inventory item")
	}
	return &record, nil
}

func (r *GormCurrentInventoryRepository) FindByIDForUpdate(ctx context.Context, id uint) (*domain.CurrentRecord, error) {
	var record domain.CurrentRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record, id).Error
	if err != nil {
		return nil, translateError(err, "inventory item")
	}
	return &record, nil
}

func (r *GormCurrentInventoryRepository) FindByIdentityForUpdate(ctx context.Context, identity domain.ItemIdentity) (*domain.CurrentRecord, error) {
	serialSQL, serialArgs := serialCondition("numero_serial", identity.SerialNumber)

	var record domain.CurrentRecord
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("filial_cnpj = ? AND insumo_id = ?", identity.BranchID, identity.ItemTypeID).
		Where(serialSQL, serialArgs...).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err, "inventory item")
	}
	return &record, nil
}

func (r *GormCurrentInventoryRepository) FindByBranch(ctx context.Context, branchID string) ([]domain.InventoryView, error) {
	var views []domain.InventoryView
	err := r.db.WithContext(ctx).
		Raw(domain.InventoryViewSelect+" WHERE f.filial_cnpj = ? ORDER BY f.id", branchID).
		Scan(&views).Error
	return views, translateError(err, "inventory item")
}

func (r *GormCurrentInventoryRepository) Update(ctx context.Context, record *domain.CurrentRecord) error {
	res := r.db.WithContext(ctx).Model(&domain.CurrentRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"validade":      record.ExpiryDate,
			"local":         record.Location,
			"observacao":    record.Note,
			"atualizado_em": gorm.Expr("NOW()"),
		})
	return rowsOrNotFound(res, "inventory item")
}

func (r *GormCurrentInventoryRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.CurrentRecord{}, id)
	return rowsOrNotFound(res, "inventory item")
}

// DeleteMatchingInspection removes live rows produced by an inspection,
// joined on the identity key with IS NOT DISTINCT FROM so NULL serials match.
func (r *GormCurrentInventoryRepository) DeleteMatchingInspection(ctx context.Context, inspectionID uint) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		DELETE FROM insumos_filial c
		USING historico_insumos h
		WHERE h.vistoria_id = ?
		  AND c.filial_cnpj = h.filial_cnpj
		  AND c.insumo_id = h.insumo_id
		  AND c.numero_serial IS NOT DISTINCT FROM h.numero_serial`,
		inspectionID,
	)
	if res.Error != nil {
		return 0, translateError(res.Error, "inventory item")
	}
	return res.RowsAffected, nil
}
