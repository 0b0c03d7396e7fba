package grpcserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/poly-workshop/go-webmods/grpcutils"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/auth"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/transport/grpcadapter"
	"google.golang.org/grpc"
)

const stopTimeout = 5 * time.Second

type Server struct {
	listenAddr string
	s          *grpc.Server
	lis        net.Listener
	serving    atomic.Bool
}

func New(listenAddr string, gw grpcadapter.GatewayServer, authMgr *auth.Manager) (*Server, error) {
	if listenAddr == "" {
		return nil, fmt.Errorf("grpc listen address is empty")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway service is nil")
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpcutils.BuildRequestIDInterceptor(),
			grpcutils.BuildLogInterceptor(slog.Default()),
			auth.UnaryServerInterceptor(authMgr),
		),
		grpc.ChainStreamInterceptor(
			auth.StreamServerInterceptor(authMgr),
		),
	)
	grpcadapter.RegisterGatewayServer(s, gw)

	return &Server{listenAddr: listenAddr, s: s}, nil
}

// Serve accepts connections on lis until Stop is called.
func (srv *Server) Serve(lis net.Listener) error {
	srv.lis = lis
	slog.Info("grpc listening", "addr", lis.Addr().String())
	srv.serving.Store(true)
	defer srv.serving.Store(false)
	return srv.s.Serve(lis)
}

// Serving reports whether the server is accepting connections.
func (srv *Server) Serving() bool { return srv.serving.Load() }

func (srv *Server) Start() error {
	lis, err := net.Listen("tcp", srv.listenAddr)
	if err != nil {
		return err
	}
	return srv.Serve(lis)
}

func (srv *Server) Stop(ctx context.Context) error {
	if srv.s == nil {
		return nil
	}
	srv.serving.Store(false)

	done := make(chan struct{})
	go func() {
		srv.s.GracefulStop()
		close(done)
	}()

	select {
	case <-ctx.Done():
		srv.s.Stop()
		return ctx.Err()
	case <-done:
		return nil
	case <-time.After(stopTimeout):
		srv.s.Stop()
		return fmt.Errorf("grpc graceful stop timed out")
	}
}
