package httpgateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/auth"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/health"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/transport/grpcadapter"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	httpListen   string
	grpcTarget   string
	grpcInsecure bool
}

func New(httpListen, grpcTarget string, grpcInsecure bool) (*Server, error) {
	if httpListen == "" {
		return nil, fmt.Errorf("http listen address is empty")
	}
	if grpcTarget == "" {
		return nil, fmt.Errorf("grpc target is empty")
	}
	return &Server{httpListen: httpListen, grpcTarget: grpcTarget, grpcInsecure: grpcInsecure}, nil
}

func (s *Server) Start(ctx context.Context) error {
	creds := credentials.NewClientTLSFromCert(nil, "")
	if s.grpcInsecure {
		creds = insecure.NewCredentials()
	}
	conn, err := grpc.NewClient(s.grpcTarget, grpc.WithTransportCredentials(creds))
	if err != nil {
		return fmt.Errorf("dial grpc: %w", err)
	}
	defer conn.Close()

	var ready health.ReadyzChecker
	if s.grpcInsecure {
		ready = health.GRPCReadyChecker(s.grpcTarget)
	}
	handler, err := NewHandler(conn, ready)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              s.httpListen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", s.httpListen, "grpc_target", s.grpcTarget)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

type route struct {
	method  string
	pattern string
	rpc     string
	body    bool
}

var routes = []route{
	{http.MethodPost, "/v1/hypotheses", grpcadapter.MethodGenerateHypothesis, true},
	{http.MethodPost, "/v1/compressions", grpcadapter.MethodSimulateCompression, true},
	{http.MethodPost, "/v1/videos", grpcadapter.MethodGenerateEducationalVideo, true},
	{http.MethodPost, "/v1/conversations", grpcadapter.MethodCreateConversation, true},
	{http.MethodPut, "/v1/conversations/{conversation_id}/language", grpcadapter.MethodSetConversationLanguage, true},
	{http.MethodPost, "/v1/conversations/{conversation_id}/messages", grpcadapter.MethodSendConversationMessage, true},
	{http.MethodGet, "/v1/conversations/{conversation_id}/messages", grpcadapter.MethodGetConversationTranscript, false},
	{http.MethodDelete, "/v1/conversations/{conversation_id}", grpcadapter.MethodDeleteConversation, false},
	{http.MethodGet, "/v1/models", grpcadapter.MethodListModels, false},
}

// NewHandler serves the REST routes by invoking the gateway over conn, plus
// /livez and /readyz.
func NewHandler(conn grpc.ClientConnInterface, ready health.ReadyzChecker) (http.Handler, error) {
	gw := runtime.NewServeMux(
		runtime.WithIncomingHeaderMatcher(func(key string) (string, bool) {
			if k := strings.ToLower(key); k == auth.MetadataServiceToken {
				return k, true
			}
			return runtime.DefaultHeaderMatcher(key)
		}),
	)
	for _, rt := range routes {
		if err := gw.HandlePath(rt.method, rt.pattern, forward(gw, conn, rt)); err != nil {
			return nil, fmt.Errorf("register %s %s: %w", rt.method, rt.pattern, err)
		}
	}

	mux := http.NewServeMux()
	health.Register(mux, ready)
	mux.Handle("/", gw)
	return mux, nil
}

func forward(gw *runtime.ServeMux, conn grpc.ClientConnInterface, rt route) runtime.HandlerFunc {
	fullMethod := grpcadapter.FullMethod(rt.rpc)
	return func(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		inbound, outbound := runtime.MarshalerForRequest(gw, r)

		annotated, err := runtime.AnnotateContext(ctx, gw, r, fullMethod, runtime.WithHTTPPathPattern(rt.pattern))
		if err != nil {
			runtime.HTTPError(ctx, gw, outbound, w, r, err)
			return
		}

		in := &structpb.Struct{Fields: map[string]*structpb.Value{}}
		if rt.body {
			if err := inbound.NewDecoder(r.Body).Decode(in); err != nil && !errors.Is(err, io.EOF) {
				runtime.HTTPError(annotated, gw, outbound, w, r, status.Errorf(codes.InvalidArgument, "decode body: %v", err))
				return
			}
			if in.Fields == nil {
				in.Fields = map[string]*structpb.Value{}
			}
		}
		for k, v := range pathParams {
			in.Fields[k] = structpb.NewStringValue(v)
		}

		var md runtime.ServerMetadata
		out := new(structpb.Struct)
		err = conn.Invoke(annotated, fullMethod, in, out, grpc.Header(&md.HeaderMD), grpc.Trailer(&md.TrailerMD))
		annotated = runtime.NewServerMetadataContext(annotated, md)
		if err != nil {
			runtime.HTTPError(annotated, gw, outbound, w, r, err)
			return
		}
		runtime.ForwardResponseMessage(annotated, gw, outbound, w, r, out)
	}
}
