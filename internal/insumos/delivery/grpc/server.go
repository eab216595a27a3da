// Package grpc exposes the identity guard to internal services. Messages are
// protobuf well-known types so no generated code is required.
package grpc

import (
	"context"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/usecase/query"
)

const (
	ServiceName           = "insumos.identity.v1.IdentityService"
	AuthenticateMethod    = "/" + ServiceName + "/Authenticate"
	AuthorizeBranchMethod = "/" + ServiceName + "/AuthorizeBranch"
)

// IdentityServiceServer is the server side of the identity service.
type IdentityServiceServer interface {
	Authenticate(ctx context.Context, token *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	AuthorizeBranch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// IdentityServer resolves tokens and branch ownership for other services.
type IdentityServer struct {
	authenticate    *query.AuthenticateHandler
	authorizeBranch *query.AuthorizeBranchHandler
}

func NewIdentityServer(authenticate *query.AuthenticateHandler, authorizeBranch *query.AuthorizeBranchHandler) *IdentityServer {
	return &IdentityServer{authenticate: authenticate, authorizeBranch: authorizeBranch}
}

// Authenticate returns the company id the token was issued for.
func (s *IdentityServer) Authenticate(ctx context.Context, token *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	companyID, err := s.authenticate.Handle(ctx, query.AuthenticateQuery{Token: token.GetValue()})
	if err != nil {
		return nil, toStatus(err)
	}
	return wrapperspb.String(companyID), nil
}

// AuthorizeBranch expects the fields "token" and "branch_id" and replies
// with the branch under "branch".
func (s *IdentityServer) AuthorizeBranch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	branchID := fields["branch_id"].GetStringValue()
	if branchID == "" {
		return nil, status.Error(codes.InvalidArgument, "branch_id is required")
	}

	companyID, err := s.authenticate.Handle(ctx, query.AuthenticateQuery{Token: fields["token"].GetStringValue()})
	if err != nil {
		return nil, toStatus(err)
	}
	branch, err := s.authorizeBranch.Handle(ctx, query.AuthorizeBranchQuery{CompanyID: companyID, BranchID: branchID})
	if err != nil {
		return nil, toStatus(err)
	}

	reply, err := structpb.NewStruct(map[string]any{
		"branch": map[string]any{
			"id":                branch.ID,
			"company_id":        branch.CompanyID,
			"name":              branch.Name,
			"address":           branch.Address,
			"responsible_email": branch.ResponsibleEmail,
			"created_at":        branch.CreatedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode branch")
	}
	return reply, nil
}

// toStatus maps a domain error kind to a gRPC status. Internal causes stay
// server side.
func toStatus(err error) error {
	var code codes.Code
	switch domain.KindOf(err) {
	case domain.KindValidation:
		code = codes.InvalidArgument
	case domain.KindNotFound:
		code = codes.NotFound
	case domain.KindConflict:
		code = codes.AlreadyExists
	case domain.KindForbidden:
		code = codes.FailedPrecondition
	case domain.KindUnauthorized:
		code = codes.Unauthenticated
	case domain.KindTransient:
		code = codes.Unavailable
	default:
		code = codes.Internal
	}
	return status.Error(code, domain.PublicMessage(err))
}

func authenticateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityServiceServer).Authenticate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AuthenticateMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(IdentityServiceServer).Authenticate(ctx, req.(*wrapperspb.StringValue))
	})
}

func authorizeBranchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IdentityServiceServer).AuthorizeBranch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AuthorizeBranchMethod}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(IdentityServiceServer).AuthorizeBranch(ctx, req.(*structpb.Struct))
	})
}

// IdentityServiceDesc describes the identity service for grpc.Server.
var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authenticate", Handler: authenticateHandler},
		{MethodName: "AuthorizeBranch", Handler: authorizeBranchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "insumos/identity/v1/identity.proto",
}

// NewServer builds a gRPC server with tracing, logging, metrics, the
// identity service, health checks and reflection.
func NewServer(identity IdentityServiceServer, metrics *Metrics) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{RecoveryInterceptor, LoggingInterceptor}
	if metrics != nil {
		interceptors = append(interceptors, metrics.UnaryInterceptor)
	}

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	)
	server.RegisterService(&IdentityServiceDesc, identity)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	reflection.Register(server)
	return server
}

// IdentityClient calls the identity service over an existing connection.
type IdentityClient struct {
	conn grpc.ClientConnInterface
}

func NewIdentityClient(conn grpc.ClientConnInterface) *IdentityClient {
	return &IdentityClient{conn: conn}
}

// Authenticate returns the company id for token.
func (c *IdentityClient) Authenticate(ctx context.Context, token string) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := c.conn.Invoke(ctx, AuthenticateMethod, wrapperspb.String(token), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

// AuthorizeBranch returns the branch fields when token's company owns it.
func (c *IdentityClient) AuthorizeBranch(ctx context.Context, token, branchID string) (map[string]any, error) {
	in, err := structpb.NewStruct(map[string]any{"token": token, "branch_id": branchID})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, AuthorizeBranchMethod, in, out); err != nil {
		return nil, err
	}
	return out.GetFields()["branch"].GetStructValue().AsMap(), nil
}
