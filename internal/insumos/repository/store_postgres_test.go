package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/migrations"
	"github.com/tair/insumos/pkg/database"
)

// openTestStore connects to the database named by INSUMOS_TEST_DATABASE_DSN
// (PostgreSQL 15 or newer) and applies the migrations. The test is skipped
// when the variable is unset.
func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := os.Getenv("INSUMOS_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("INSUMOS_TEST_DATABASE_DSN not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Discard, SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(sqlDB, migrations.FS, database.Up, 0))
	return NewGormStore(db)
}

type seeded struct {
	branchID   string
	itemTypeID uint
}

func seed(t *testing.T, ctx context.Context, store *GormStore) seeded {
	t.Helper()
	// Tax ids only need to be 14 characters here.
	suffix := uuid.NewString()[:8]
	companyID, branchID := "91"+suffix+"0001", "92"+suffix+"0002"

	var itemTypeID uint
	err := store.Transaction(ctx, func(repos domain.Repositories) error {
		if err := repos.Companies.Create(ctx, &domain.Company{ID: companyID, Name: "Acme", Email: suffix + "@acme.test", Password: "x"}); err != nil {
			return err
		}
		if err := repos.Branches.Create(ctx, &domain.Branch{ID: branchID, CompanyID: companyID, Name: "Centro"}); err != nil {
			return err
		}
		itemType := &domain.ItemType{Description: "Teste " + suffix}
		if _, err := repos.ItemTypes.CreateIfAbsent(ctx, itemType); err != nil {
			return err
		}
		found, err := repos.ItemTypes.FindByDescription(ctx, itemType.Description)
		if err != nil {
			return err
		}
		itemTypeID = found.ID
		return nil
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		db := store.DB().WithContext(context.Background())
		db.Exec("DELETE FROM empresas WHERE cnpj = ?", companyID)
		db.Exec("DELETE FROM insumos WHERE id = ?", itemTypeID)
	})
	return seeded{branchID: branchID, itemTypeID: itemTypeID}
}

func TestDeleteMatchingInspectionMatchesNullSerials(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	s := seed(t, ctx, store)

	serial, other := "SN1", "SN2"
	expiry := domain.DateOf(time.Now().AddDate(1, 0, 0))
	var inspectionID uint

	err := store.Transaction(ctx, func(repos domain.Repositories) error {
		inspection := &domain.Inspection{BranchID: s.branchID, StartDate: domain.DateOf(time.Now()), Technician: "Ana"}
		if err := repos.Inspections.Create(ctx, inspection); err != nil {
			return err
		}
		inspectionID = inspection.ID

		for _, sn := range []*string{&serial, nil} {
			if err := repos.History.Create(ctx, &domain.HistoryRecord{
				ItemTypeID: s.itemTypeID, BranchID: s.branchID, InspectionID: &inspectionID,
				SerialNumber: sn, ExpiryDate: expiry, Location: "A",
			}); err != nil {
				return err
			}
		}
		for _, sn := range []*string{&serial, nil, &other} {
			if err := repos.Current.Create(ctx, &domain.CurrentRecord{
				ItemTypeID: s.itemTypeID, BranchID: s.branchID,
				SerialNumber: sn, ExpiryDate: expiry, Location: "A",
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var removed int64
	err = store.Transaction(ctx, func(repos domain.Repositories) error {
		n, err := repos.Current.DeleteMatchingInspection(ctx, inspectionID)
		removed = n
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := store.Repositories().Current.FindByBranch(ctx, s.branchID)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, other, *left[0].SerialNumber)
}

func TestConstraintViolationsMapToDomainErrors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	s := seed(t, ctx, store)
	repos := store.Repositories()
	expiry := domain.DateOf(time.Now().AddDate(1, 0, 0))

	noSerial := func() *domain.CurrentRecord {
		return &domain.CurrentRecord{ItemTypeID: s.itemTypeID, BranchID: s.branchID, ExpiryDate: expiry, Location: "A"}
	}
	require.NoError(t, repos.Current.Create(ctx, noSerial()))
	assert.ErrorIs(t, repos.Current.Create(ctx, noSerial()), domain.ErrDuplicateSerial)

	rows, err := repos.Current.FindByBranch(ctx, s.branchID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	assert.ErrorIs(t, repos.ItemTypes.Delete(ctx, s.itemTypeID), domain.ErrReferenced)

	itemType, err := repos.ItemTypes.FindByID(ctx, s.itemTypeID)
	require.NoError(t, err)
	itemType.Description = "Extintor de Incêndio ABC"
	assert.ErrorIs(t, repos.ItemTypes.Update(ctx, itemType), domain.ErrDescriptionConflict)
}
