package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/tair/insumos/internal/insumos/domain"
	"github.com/tair/insumos/internal/insumos/repository/memory"
	"github.com/tair/insumos/internal/insumos/usecase/command"
	"github.com/tair/insumos/internal/insumos/usecase/query"
	"github.com/tair/insumos/pkg/auth"
)

const (
	companyID = "11222333000181"
	branchID  = "11222333000262"
)

type testEnv struct {
	client *IdentityClient
	conn   *grpc.ClientConn
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	_, err := command.NewRegisterCompanyHandler(store).Handle(ctx, command.RegisterCompanyCommand{
		TaxID: companyID, Name: "Acme", Email: "ops@acme.com", Password: "secret1",
	})
	require.NoError(t, err)
	_, err = command.NewCreateBranchHandler(store).Handle(ctx, command.CreateBranchCommand{
		CompanyID: companyID, TaxID: branchID, Name: "Centro",
	})
	require.NoError(t, err)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.GenerateToken(companyID, "Acme")
	require.NoError(t, err)

	identity := NewIdentityServer(query.NewAuthenticateHandler(tokens), query.NewAuthorizeBranchHandler(store))
	server := NewServer(identity, NewMetrics(prometheus.NewRegistry()))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{client: NewIdentityClient(conn), conn: conn, token: token}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	got, err := env.client.Authenticate(ctx, "Bearer "+env.token)
	require.NoError(t, err)
	assert.Equal(t, companyID, got)

	_, err = env.client.Authenticate(ctx, "")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	_, err = env.client.Authenticate(ctx, "garbage")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestAuthorizeBranch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	branch, err := env.client.AuthorizeBranch(ctx, env.token, branchID)
	require.NoError(t, err)
	assert.Equal(t, branchID, branch["id"])
	assert.Equal(t, companyID, branch["company_id"])
	assert.Equal(t, "Centro", branch["name"])

	_, err = env.client.AuthorizeBranch(ctx, env.token, "99888777000247")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = env.client.AuthorizeBranch(ctx, env.token, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = env.client.AuthorizeBranch(ctx, "", branchID)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestHealthService(t *testing.T) {
	env := newTestEnv(t)

	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{domain.Validation("bad"), codes.InvalidArgument},
		{domain.NotFound("branch"), codes.NotFound},
		{domain.ErrDuplicateSerial, codes.AlreadyExists},
		{domain.ErrInspectionFinalized, codes.FailedPrecondition},
		{domain.ErrInvalidToken, codes.Unauthenticated},
		{domain.Transient("busy", errors.New("lock")), codes.Unavailable},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}
}

func TestInternalCauseIsNotLeaked(t *testing.T) {
	err := toStatus(domain.Internal("failed to load branch", errors.New("dial tcp 10.0.0.5:5432")))
	assert.NotContains(t, status.Convert(err).Message(), "10.0.0.5")
}

func TestRecoveryInterceptor(t *testing.T) {
	_, err := RecoveryInterceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: AuthenticateMethod},
		func(context.Context, any) (any, error) { panic("boom") })
	assert.Equal(t, codes.Internal, status.Code(err))
}
