package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/tair/insumos/internal/insumos/domain"
)

// Postgres SQLSTATE codes the store reacts to.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
	pgQueryCanceled        = "57014"
)

// Constraint names declared in migrations/000001_init_schema.up.sql.
const (
	constraintCompanyPK       = "empresas_pkey"
	constraintCompanyEmail    = "uq_empresas_email"
	constraintBranchPK        = "filiais_pkey"
	constraintItemDescription = "uq_insumos_descricao"
	constraintCurrentIdentity = "uq_insumos_filial_identity"
	constraintCurrentItemFK   = "fk_insumos_filial_insumo"
	constraintHistoryItemFK   = "fk_historico_insumo"
)

// translateError turns gorm and driver errors into domain errors. Errors that
// are already tagged pass through untouched.
func translateError(err error, entity string) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFound(entity)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.Transient("system busy, please retry", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return uniqueViolation(pgErr)
		case pgForeignKeyViolation:
			if pgErr.ConstraintName == constraintCurrentItemFK || pgErr.ConstraintName == constraintHistoryItemFK {
				return domain.ErrReferenced
			}
			return domain.Conflict("referenced", "record is referenced by other records")
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailure, pgQueryCanceled:
			return domain.Transient("system busy, please retry", err)
		}
	}

	return domain.Internal("storage failure", err)
}

func uniqueViolation(pgErr *pgconn.PgError) error {
	switch pgErr.ConstraintName {
	case constraintCurrentIdentity:
		return domain.ErrDuplicateSerial
	case constraintItemDescription:
		return domain.ErrDescriptionConflict
	case constraintCompanyEmail:
		return domain.Conflict(domain.ReasonDuplicateEmail, "email already registered")
	case constraintCompanyPK, constraintBranchPK:
		return domain.Conflict(domain.ReasonDuplicateTaxID, "tax identifier already registered")
	default:
		return domain.Conflict("duplicate", "record already exists")
	}
}

// rowsOrNotFound reports NotFound when a targeted write touched nothing.
func rowsOrNotFound(res *gorm.DB, entity string) error {
	if res.Error != nil {
		return translateError(res.Error, entity)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound(entity)
	}
	return nil
}

// serialCondition builds a null-safe equality on a serial column. A nil
// serial matches only NULL.
func serialCondition(column string, serial *string) (string, []any) {
	if serial == nil {
		return column + " IS NULL", nil
	}
	return column + " = ?", []any{*serial}
}
