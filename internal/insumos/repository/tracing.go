package repository

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("insumos-repository")

const spanKey = "insumos:tracing:span"

// TracingPlugin opens a client span around every gorm statement, as a child
// of the span carried in the statement context.
type TracingPlugin struct{}

func (TracingPlugin) Name() string {
	return "insumos:tracing"
}

func (p TracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("tracing:before_create", before("create")),
		cb.Create().After("gorm:create").Register("tracing:after_create", after),
		cb.Query().Before("gorm:query").Register("tracing:before_query", before("query")),
		cb.Query().After("gorm:query").Register("tracing:after_query", after),
		cb.Update().Before("gorm:update").Register("tracing:before_update", before("update")),
		cb.Update().After("gorm:update").Register("tracing:after_update", after),
		cb.Delete().Before("gorm:delete").Register("tracing:before_delete", before("delete")),
		cb.Delete().After("gorm:delete").Register("tracing:after_delete", after),
		cb.Row().Before("gorm:row").Register("tracing:before_row", before("row")),
		cb.Row().After("gorm:row").Register("tracing:after_row", after),
		cb.Raw().Before("gorm:raw").Register("tracing:before_raw", before("raw")),
		cb.Raw().After("gorm:raw").Register("tracing:after_raw", after),
	)
}

func before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx, span := tracer.Start(db.Statement.Context, "repository."+operation,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("db.system", "postgresql"),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", db.Statement.Table),
			),
		)
		db.Statement.Context = ctx
		db.InstanceSet(spanKey, span)
	}
}

func after(db *gorm.DB) {
	v, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := v.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
}
