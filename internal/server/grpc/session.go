package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// SessionServiceName is the fully qualified gRPC service name. Its messages
// are protobuf well-known types, so no generated code is involved.
const SessionServiceName = "taskkeeper.v1.Session"

const (
	WhoamiMethod = "/" + SessionServiceName + "/Whoami"
	LogoutMethod = "/" + SessionServiceName + "/Logout"
)

type sessionServer interface {
	Whoami(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Logout(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

var sessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*sessionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Whoami", Handler: whoamiHandler},
		{MethodName: "Logout", Handler: logoutHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskkeeper/v1/session.proto",
}

// Whoami returns the caller's public profile.
func (s *GRPCServer) Whoami(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	ac, ok := AuthFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	return structpb.NewStruct(map[string]any{
		"id":    ac.User.ID,
		"name":  ac.User.Name,
		"email": ac.User.Email,
		"age":   ac.User.Age,
	})
}

// Logout revokes the token the call was made with.
func (s *GRPCServer) Logout(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	ac, ok := AuthFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	if err := s.sessions.Logout(ctx, ac); err != nil {
		return nil, s.toStatus(ctx, LogoutMethod, err)
	}
	s.logger.Info(ctx, "session revoked over grpc", "user_id", ac.User.ID)
	return &emptypb.Empty{}, nil
}

func whoamiHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(sessionServer).Whoami(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: WhoamiMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(sessionServer).Whoami(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func logoutHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(sessionServer).Logout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LogoutMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(sessionServer).Logout(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}
