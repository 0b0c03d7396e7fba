package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// MetadataServiceToken carries the caller's service token. The HTTP gateway forwards
// the X-Service-Token header under the same key.
const MetadataServiceToken = "x-service-token"

func UnaryServerInterceptor(mgr *Manager) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !mgr.Enabled() {
			return handler(ctx, req)
		}
		subject, err := authenticate(ctx, mgr)
		if err != nil {
			return nil, err
		}
		return handler(WithSubject(ctx, subject), req)
	}
}

func StreamServerInterceptor(mgr *Manager) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if !mgr.Enabled() {
			return handler(srv, ss)
		}
		subject, err := authenticate(ss.Context(), mgr)
		if err != nil {
			return err
		}
		return handler(srv, &serverStreamWithContext{ServerStream: ss, ctx: WithSubject(ss.Context(), subject)})
	}
}

type serverStreamWithContext struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *serverStreamWithContext) Context() context.Context { return s.ctx }

func authenticate(ctx context.Context, mgr *Manager) (string, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	var token string
	if v := md.Get(MetadataServiceToken); len(v) > 0 {
		token = v[0]
	}
	subject, err := mgr.Authenticate(token)
	if err != nil {
		return "", status.Error(codes.Unauthenticated, "invalid service token")
	}
	return subject, nil
}
