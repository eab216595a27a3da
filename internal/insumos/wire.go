//go:build wireinject
// +build wireinject

package insumos

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/insumos/internal/insumos/cache"
	grpcDelivery "github.com/tair/insumos/internal/insumos/delivery/grpc"
	httpDelivery "github.com/tair/insumos/internal/insumos/delivery/http"
	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/report"
	"github.com/tair/insumos/internal/insumos/usecase/command"
	"github.com/tair/insumos/internal/insumos/usecase/query"
	"github.com/tair/insumos/pkg/auth"
)

var CommandHandlerSet = wire.NewSet(
	command.NewNotifier,
	command.NewRegisterCompanyHandler,
	command.NewLoginCompanyHandler,
	command.NewUpdateCompanyHandler,
	command.NewCreateBranchHandler,
	command.NewUpdateBranchHandler,
	command.NewDeleteBranchHandler,
	command.NewCreateItemTypeHandler,
	command.NewUpdateItemTypeHandler,
	command.NewDeleteItemTypeHandler,
	command.NewCreateInspectionHandler,
	command.NewFinalizeInspectionHandler,
	command.NewDeleteInspectionHandler,
	command.NewAddInspectionItemHandler,
	command.NewAddDirectItemHandler,
	command.NewEditCurrentItemHandler,
	command.NewRemoveCurrentItemHandler,
	command.NewRemoveHistoryRecordHandler,
	wire.Struct(new(httpDelivery.Commands), "*"),
)

var QueryHandlerSet = wire.NewSet(
	query.NewAuthenticateHandler,
	query.NewAuthorizeBranchHandler,
	query.NewGetCompanyHandler,
	query.NewListBranchesHandler,
	query.NewListItemTypesHandler,
	query.NewGetItemTypeHandler,
	query.NewListInspectionsHandler,
	query.NewGetInspectionHandler,
	query.NewListInventoryHandler,
	query.NewGetItemHistoryHandler,
	wire.Struct(new(httpDelivery.Queries), "*"),
)

var BindingSet = wire.NewSet(
	wire.Bind(new(command.TokenIssuer), new(*auth.TokenManager)),
	wire.Bind(new(query.TokenVerifier), new(*auth.TokenManager)),
	wire.Bind(new(domain.CacheInvalidator), new(*cache.InventoryCache)),
	wire.Bind(new(query.ListingCache), new(*cache.InventoryCache)),
)

var DeliverySet = wire.NewSet(
	report.NewAssembler,
	httpDelivery.NewMetrics,
	httpDelivery.NewHandler,
	grpcDelivery.NewMetrics,
	grpcDelivery.NewIdentityServer,
	wire.Struct(new(App), "*"),
)

// InitializeApp wires every use case over the given adapters.
func InitializeApp(
	store domain.Store,
	clock domain.Clock,
	tokens *auth.TokenManager,
	publisher domain.EventPublisher,
	inventoryCache *cache.InventoryCache,
	source report.Source,
	pdf httpDelivery.DocumentRenderer,
	loginLimiter *httpDelivery.RateLimiter,
	registerer prometheus.Registerer,
) (*App, error) {
	wire.Build(
		BindingSet,
		CommandHandlerSet,
		QueryHandlerSet,
		DeliverySet,
	)
	return nil, nil
}
