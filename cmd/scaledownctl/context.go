package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/transport/grpcclient"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const fallbackTarget = "localhost:50051"

type clientOptions struct {
	target  string
	token   string
	timeout time.Duration
}

type commandContext struct {
	opts *clientOptions
}

func newCommandContext(opts *clientOptions) *commandContext {
	return &commandContext{opts: opts}
}

func defaultTarget() string {
	if v := strings.TrimSpace(os.Getenv("SCALEDOWN_TARGET")); v != "" {
		return v
	}
	return fallbackTarget
}

func (c *commandContext) serviceToken() string {
	if t := strings.TrimSpace(c.opts.token); t != "" {
		return t
	}
	return strings.TrimSpace(os.Getenv("SCALEDOWN_TOKEN"))
}

// withClient dials the gateway and runs fn under the command's context and
// the optional --timeout deadline.
func (c *commandContext) withClient(cmd *cobra.Command, fn func(context.Context, *grpcclient.Client) error) error {
	return c.withSession(cmd, func(ctx context.Context, client *grpcclient.Client) error {
		if c.opts.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
			defer cancel()
		}
		return fn(ctx, client)
	})
}

// withSession dials the gateway for a long-lived command. The --timeout
// deadline is left to fn to apply per call.
func (c *commandContext) withSession(cmd *cobra.Command, fn func(context.Context, *grpcclient.Client) error) error {
	conn, err := grpc.NewClient(c.opts.target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("connect to gateway %s: %w", c.opts.target, err)
	}
	defer conn.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, grpcclient.New(conn, c.serviceToken()))
}
