package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/tair/insumos/internal/insumos/domain"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   domain.Kind
		reason string
	}{
		{"lock timeout", &pgconn.PgError{Code: pgLockNotAvailable}, domain.KindTransient, ""},
		{"deadlock", &pgconn.PgError{Code: pgDeadlockDetected}, domain.KindTransient, ""},
		{"serialization failure", &pgconn.PgError{Code: pgSerializationFailure}, domain.KindTransient, ""},
		{"statement canceled", &pgconn.PgError{Code: pgQueryCanceled}, domain.KindTransient, ""},
		{"wrapped lock timeout", fmt.Errorf("exec: %w", &pgconn.PgError{Code: pgLockNotAvailable}), domain.KindTransient, ""},
		{"deadline", context.DeadlineExceeded, domain.KindTransient, ""},
		{"not found", gorm.ErrRecordNotFound, domain.KindNotFound, ""},
		{"duplicate identity", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintCurrentIdentity}, domain.KindConflict, domain.ReasonDuplicateSerial},
		{"duplicate description", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintItemDescription}, domain.KindConflict, domain.ReasonDescriptionConflict},
		{"duplicate email", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintCompanyEmail}, domain.KindConflict, domain.ReasonDuplicateEmail},
		{"duplicate company", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintCompanyPK}, domain.KindConflict, domain.ReasonDuplicateTaxID},
		{"duplicate branch", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintBranchPK}, domain.KindConflict, domain.ReasonDuplicateTaxID},
		{"other unique", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "something_else"}, domain.KindConflict, "duplicate"},
		{"live row references item type", &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: constraintCurrentItemFK}, domain.KindConflict, domain.ReasonReferencedByInventory},
		{"history references item type", &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: constraintHistoryItemFK}, domain.KindConflict, domain.ReasonReferencedByInventory},
		{"other foreign key", &pgconn.PgError{Code: pgForeignKeyViolation, ConstraintName: "filiais_empresa_cnpj_fkey"}, domain.KindConflict, "referenced"},
		{"unknown sqlstate", &pgconn.PgError{Code: "42P01"}, domain.KindInternal, ""},
		{"plain error", errors.New("connection reset"), domain.KindInternal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError(tt.err, "inventory item")
			assert.Equal(t, tt.kind, domain.KindOf(err))
			if tt.reason != "" {
				assert.Equal(t, tt.reason, domain.ReasonOf(err))
			}
		})
	}
}

func TestTranslateErrorKeepsTaggedErrors(t *testing.T) {
	assert.Nil(t, translateError(nil, "branch"))
	assert.Same(t, domain.ErrDuplicateSerial, translateError(domain.ErrDuplicateSerial, "branch"))
	assert.ErrorIs(t, translateError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintCurrentIdentity}, "item"), domain.ErrDuplicateSerial)
}

func TestTransientKeepsCause(t *testing.T) {
	cause := &pgconn.PgError{Code: pgLockNotAvailable, Message: "canceling statement due to lock timeout"}
	err := translateError(cause, "inventory item")

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr))
	assert.NotContains(t, domain.PublicMessage(err), "lock timeout")
}

func TestSerialCondition(t *testing.T) {
	serial := "SN-1"

	sql, args := serialCondition("h.numero_serial", &serial)
	assert.Equal(t, "h.numero_serial = ?", sql)
	assert.Equal(t, []any{"SN-1"}, args)

	sql, args = serialCondition("numero_serial", nil)
	assert.Equal(t, "numero_serial IS NULL", sql)
	assert.Empty(t, args)
}
