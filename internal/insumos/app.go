// Package insumos assembles the inventory service from its use cases and
// delivery adapters.
package insumos

import (
	grpcDelivery "github.com/tair/insumos/internal/insumos/delivery/grpc"
	httpDelivery "github.com/tair/insumos/internal/insumos/delivery/http"
)

// App holds the fully wired delivery layer.
type App struct {
	HTTP        *httpDelivery.Handler
	Identity    *grpcDelivery.IdentityServer
	GRPCMetrics *grpcDelivery.Metrics
}
