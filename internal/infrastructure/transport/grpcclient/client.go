package grpcclient

import (
	"context"
	"fmt"

	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/auth"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/transport/grpcadapter"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the gateway gRPC service.
type Client struct {
	conn         grpc.ClientConnInterface
	serviceToken string
}

func New(conn grpc.ClientConnInterface, serviceToken string) *Client {
	return &Client{conn: conn, serviceToken: serviceToken}
}

type Conversation struct {
	ID       string
	Language string
}

type Message struct {
	Role    string
	Content string
	Failed  bool
	At      string
}

type Model struct {
	ID           string
	Name         string
	Provider     string
	Capabilities []string
}

func (c *Client) GenerateHypothesis(ctx context.Context, query, language string) (string, error) {
	out, err := c.invoke(ctx, grpcadapter.MethodGenerateHypothesis, map[string]any{"query": query, "language": language})
	if err != nil {
		return "", err
	}
	return str(out, "text"), nil
}

func (c *Client) SimulateCompression(ctx context.Context, data string) (string, error) {
	out, err := c.invoke(ctx, grpcadapter.MethodSimulateCompression, map[string]any{"data": data})
	if err != nil {
		return "", err
	}
	return str(out, "text"), nil
}

func (c *Client) GenerateEducationalVideo(ctx context.Context, prompt string) (string, error) {
	out, err := c.invoke(ctx, grpcadapter.MethodGenerateEducationalVideo, map[string]any{"prompt": prompt})
	if err != nil {
		return "", err
	}
	return str(out, "uri"), nil
}

func (c *Client) CreateConversation(ctx context.Context, language string) (Conversation, error) {
	out, err := c.invoke(ctx, grpcadapter.MethodCreateConversation, map[string]any{"language": language})
	if err != nil {
		return Conversation{}, err
	}
	return Conversation{ID: str(out, "conversation_id"), Language: str(out, "language")}, nil
}

func (c *Client) SetConversationLanguage(ctx context.Context, id, language string) (Conversation, error) {
	out, err := c.invoke(ctx, grpcadapter.MethodSetConversationLanguage, map[string]any{"conversation_id": id, "language": language})
	if err != nil {
		return Conversation{}, err
	}
	return Conversation{ID: str(out, "conversation_id"), Language: str(out, "language")}, nil
}

func (c *Client) SendConversationMessage(ctx context.Context, id, text string) (Message, error) {
	out, err := c.invoke(ctx, grpcadapter.MethodSendConversationMessage, map[string]any{"conversation_id": id, "text": text})
	if err != nil {
		return Message{}, err
	}
	return toMessage(out), nil
}

func (c *Client) GetConversationTranscript(ctx context.Context, id string) ([]Message, error) {
	out, err := c.invoke(ctx, grpcadapter.MethodGetConversationTranscript, map[string]any{"conversation_id": id})
	if err != nil {
		return nil, err
	}
	values := out.GetFields()["messages"].GetListValue().GetValues()
	msgs := make([]Message, 0, len(values))
	for _, v := range values {
		msgs = append(msgs, toMessage(v.GetStructValue()))
	}
	return msgs, nil
}

func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := c.invoke(ctx, grpcadapter.MethodDeleteConversation, map[string]any{"conversation_id": id})
	return err
}

func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	out, err := c.invoke(ctx, grpcadapter.MethodListModels, nil)
	if err != nil {
		return nil, err
	}
	values := out.GetFields()["data"].GetListValue().GetValues()
	models := make([]Model, 0, len(values))
	for _, v := range values {
		s := v.GetStructValue()
		m := Model{ID: str(s, "id"), Name: str(s, "name"), Provider: str(s, "provider")}
		for _, cv := range s.GetFields()["capabilities"].GetListValue().GetValues() {
			m.Capabilities = append(m.Capabilities, cv.GetStringValue())
		}
		models = append(models, m)
	}
	return models, nil
}

func (c *Client) invoke(ctx context.Context, method string, in map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if c.serviceToken != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, auth.MetadataServiceToken, c.serviceToken)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, grpcadapter.FullMethod(method), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func toMessage(s *structpb.Struct) Message {
	return Message{
		Role:    str(s, "role"),
		Content: str(s, "content"),
		Failed:  s.GetFields()["failed"].GetBoolValue(),
		At:      str(s, "at"),
	}
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}
