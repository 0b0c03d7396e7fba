package grpcadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poly-workshop/scaledown-gateway/internal/application/gateway"
	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/auth"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const billingDocsURL = "https://ai.google.dev/gemini-api/docs/billing"

type GatewayService struct {
	app   *gateway.Service
	convs *gateway.Conversations
}

var _ GatewayServer = (*GatewayService)(nil)

func NewGatewayService(app *gateway.Service, convs *gateway.Conversations) *GatewayService {
	return &GatewayService{app: app, convs: convs}
}

func (s *GatewayService) GenerateHypothesis(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	query := stringField(req, "query")
	if err := llm.RequireText("query", query); err != nil {
		return nil, toStatusErr(err)
	}
	text := s.app.GenerateHypothesis(ctx, query, stringField(req, "language"))
	return newStruct(map[string]any{"text": text})
}

func (s *GatewayService) SimulateCompression(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	data := stringField(req, "data")
	if err := llm.RequireText("data", data); err != nil {
		return nil, toStatusErr(err)
	}
	return newStruct(map[string]any{"text": s.app.SimulateCompression(ctx, data)})
}

func (s *GatewayService) GenerateEducationalVideo(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	prompt := stringField(req, "prompt")
	if err := llm.RequireText("prompt", prompt); err != nil {
		return nil, toStatusErr(err)
	}
	slog.Info("video requested", "subject", auth.SubjectFromContext(ctx))
	uri, err := s.app.GenerateEducationalVideo(ctx, prompt)
	if err != nil {
		return nil, withBillingHelp(toStatusErr(err))
	}
	return newStruct(map[string]any{"uri": uri})
}

func (s *GatewayService) CreateConversation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	conv, err := s.convs.Open(ctx, stringField(req, "language"))
	if err != nil {
		return nil, toStatusErr(err)
	}
	slog.Info("conversation opened", "conversation_id", conv.ID(), "language", conv.Language(), "subject", auth.SubjectFromContext(ctx))
	return conversationStruct(conv)
}

func (s *GatewayService) SetConversationLanguage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	conv, err := s.convs.Get(stringField(req, "conversation_id"))
	if err != nil {
		return nil, toStatusErr(err)
	}
	if err := conv.SetLanguage(ctx, stringField(req, "language")); err != nil {
		return nil, toStatusErr(err)
	}
	return conversationStruct(conv)
}

func (s *GatewayService) SendConversationMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := stringField(req, "text")
	if err := llm.RequireText("text", text); err != nil {
		return nil, toStatusErr(err)
	}
	conv, err := s.convs.Get(stringField(req, "conversation_id"))
	if err != nil {
		return nil, toStatusErr(err)
	}
	msg, err := conv.Send(ctx, text)
	if err != nil {
		return nil, toStatusErr(err)
	}
	return newStruct(messageMap(msg))
}

func (s *GatewayService) GetConversationTranscript(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	conv, err := s.convs.Get(stringField(req, "conversation_id"))
	if err != nil {
		return nil, toStatusErr(err)
	}
	transcript := conv.Transcript()
	msgs := make([]any, 0, len(transcript))
	for _, m := range transcript {
		msgs = append(msgs, messageMap(m))
	}
	return newStruct(map[string]any{
		"conversation_id": conv.ID(),
		"language":        conv.Language(),
		"messages":        msgs,
	})
}

func (s *GatewayService) DeleteConversation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "conversation_id")
	if err := s.convs.Close(id); err != nil {
		return nil, toStatusErr(err)
	}
	slog.Info("conversation deleted", "conversation_id", id, "subject", auth.SubjectFromContext(ctx))
	return &structpb.Struct{}, nil
}

func (s *GatewayService) ListModels(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	models, err := s.app.ListModels(ctx)
	if err != nil {
		return nil, toStatusErr(err)
	}
	out := make([]any, 0, len(models))
	for _, m := range models {
		caps := make([]any, 0, len(m.Capabilities))
		for _, c := range m.Capabilities {
			caps = append(caps, c)
		}
		out = append(out, map[string]any{
			"id":           m.ID,
			"name":         m.Name,
			"provider":     m.Provider,
			"capabilities": caps,
		})
	}
	return newStruct(map[string]any{"data": out})
}

func conversationStruct(conv *gateway.Conversation) (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"conversation_id": conv.ID(),
		"language":        conv.Language(),
	})
}

func messageMap(m gateway.Message) map[string]any {
	return map[string]any{
		"role":    string(m.Speaker),
		"content": m.Content,
		"failed":  m.Failed,
		"at":      m.At.UTC().Format(time.RFC3339),
	}
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func toStatusErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, llm.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, llm.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, llm.ErrVideoPollExhausted), errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// withBillingHelp attaches the billing docs link; quota and billing rejections
// are the usual reason video generation fails.
func withBillingHelp(err error) error {
	st := status.Convert(err)
	detailed, derr := st.WithDetails(&errdetails.Help{
		Links: []*errdetails.Help_Link{{Description: "Check billing docs", Url: billingDocsURL}},
	})
	if derr != nil {
		return err
	}
	return detailed.Err()
}
