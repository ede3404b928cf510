package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const authContextKey ctxKey = "authContext"

// publicPrefixes are method prefixes served without a bearer token.
var publicPrefixes = []string{
	"/grpc.health.v1.Health/",
}

func isPublic(method string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

// authInterceptor resolves the "authorization: Bearer <token>" metadata of
// every non-public call and stores the AuthContext in the call context.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}

	token, ok := common.ParseBearer(header)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	ac, err := s.sessions.Authenticate(ctx, token)
	if err != nil {
		return nil, s.toStatus(ctx, info.FullMethod, err)
	}

	return handler(context.WithValue(ctx, authContextKey, ac), req)
}

// AuthFromContext returns the AuthContext stored by the interceptor.
func AuthFromContext(ctx context.Context) (*services.AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(*services.AuthContext)
	return ac, ok && ac != nil
}

// toStatus maps service errors to gRPC codes. Unknown errors are logged
// and reported without detail.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthenticated):
		return status.Error(codes.Unauthenticated, common.ErrorUnauthenticated.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, common.ErrorNotFound.Error())
	default:
		s.logger.Error(ctx, "grpc call failed", "method", method, "error", err)
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}
