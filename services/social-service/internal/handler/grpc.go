package handler

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vasapolrittideah/social-network-api/shared/authz"
	"github.com/vasapolrittideah/social-network-api/shared/interceptor"
)

const (
	TokenServiceName            = "social.auth.v1.TokenService"
	TokenServiceWhoAmIMethod    = "/" + TokenServiceName + "/WhoAmI"
	TokenServiceAuthorizeMethod = "/" + TokenServiceName + "/Authorize"
)

// TokenServiceServer lets sibling services introspect the caller's bearer token.
// Both methods expect the JWT interceptor to have verified the token.
type TokenServiceServer interface {
	// WhoAmI returns the caller's claims.
	WhoAmI(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)

	// Authorize applies the ownership rule to the caller and the resource
	// owner named by the "owner_id" field.
	Authorize(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error)
}

// TokenServiceDesc describes TokenService using well-known message types only.
var TokenServiceDesc = grpc.ServiceDesc{
	ServiceName: TokenServiceName,
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
		{MethodName: "Authorize", Handler: authorizeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "social/auth/v1/token.proto",
}

// RegisterTokenServiceServer registers srv on s.
func RegisterTokenServiceServer(s grpc.ServiceRegistrar, srv TokenServiceServer) {
	s.RegisterService(&TokenServiceDesc, srv)
}

func whoAmIHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	unaryInterceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if unaryInterceptor == nil {
		return srv.(TokenServiceServer).WhoAmI(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TokenServiceWhoAmIMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}

	return unaryInterceptor(ctx, in, info, handler)
}

func authorizeHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	unaryInterceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if unaryInterceptor == nil {
		return srv.(TokenServiceServer).Authorize(ctx, in)
	}

	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: TokenServiceAuthorizeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).Authorize(ctx, req.(*structpb.Struct))
	}

	return unaryInterceptor(ctx, in, info, handler)
}

type tokenGRPCHandler struct {
	logger *zerolog.Logger
}

// NewTokenGRPCHandler creates the TokenService implementation.
func NewTokenGRPCHandler(logger *zerolog.Logger) TokenServiceServer {
	return &tokenGRPCHandler{logger: logger}
}

func (h *tokenGRPCHandler) WhoAmI(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	claims, ok := interceptor.ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Errorf(codes.Unauthenticated, "missing claims")
	}

	resp, err := structpb.NewStruct(map[string]any{
		"user_id":    claims.UserID(),
		"email":      claims.Email,
		"role":       string(claims.Role),
		"issued_at":  unixSeconds(claims.IssuedAt),
		"expires_at": unixSeconds(claims.ExpiresAt),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode claims")
		return nil, status.Errorf(codes.Internal, "something went wrong")
	}

	return resp, nil
}

func (h *tokenGRPCHandler) Authorize(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	claims, ok := interceptor.ClaimsFromContext(ctx)
	if !ok {
		return nil, status.Errorf(codes.Unauthenticated, "missing claims")
	}

	ownerID := req.GetFields()["owner_id"].GetStringValue()
	if ownerID == "" {
		return nil, status.Errorf(codes.InvalidArgument, "owner_id is required")
	}

	return wrapperspb.Bool(authz.Allowed(authz.ActorFromClaims(claims), authz.ActionUpdate, ownerID)), nil
}

func unixSeconds(date *jwt.NumericDate) int64 {
	if date == nil {
		return 0
	}
	return date.Unix()
}
