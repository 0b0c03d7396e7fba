package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/poly-workshop/scaledown-gateway/internal/application/gateway"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/transport/grpcclient"
	"github.com/spf13/cobra"
)

const chatHelp = `Type a message and press enter.
  /lang <language>  switch language (starts a fresh session)
  /history          print the conversation so far
  /quit             leave`

func newChatCommand(ctx *commandContext) *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Gene, the genomics tutor",
		Long:  "Chat with Gene, the genomics tutor.\n--timeout applies to each gateway call, not to the whole session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(c context.Context, client *grpcclient.Client) error {
				s := &chatSession{client: client, timeout: ctx.opts.timeout}
				return s.run(c, language, cmd.InOrStdin(), cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "Conversation language (default English)")
	return cmd
}

type chatSession struct {
	client  *grpcclient.Client
	timeout time.Duration
}

// call bounds a single gateway call by the per-call timeout, if any.
func (s *chatSession) call(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

func (s *chatSession) run(ctx context.Context, language string, in io.Reader, out io.Writer) error {
	callCtx, cancel := s.call(ctx)
	conv, err := s.client.CreateConversation(callCtx, language)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := s.call(context.WithoutCancel(ctx))
		defer cancel()
		_ = s.client.DeleteConversation(closeCtx, conv.ID)
	}()

	fmt.Fprintf(out, "Gene (%s). %s\nLanguages: %s\n", conv.Language, chatHelp, strings.Join(gateway.ChatLanguages, ", "))
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}
		if err := s.handle(ctx, &conv, line, out); err != nil {
			return err
		}
	}
}

func (s *chatSession) handle(ctx context.Context, conv *grpcclient.Conversation, line string, out io.Writer) error {
	ctx, cancel := s.call(ctx)
	defer cancel()

	cmd, arg, _ := strings.Cut(line, " ")
	switch {
	case cmd == "/history":
		msgs, err := s.client.GetConversationTranscript(ctx, conv.ID)
		if err != nil {
			return err
		}
		for _, m := range msgs {
			fmt.Fprintf(out, "%s: %s\n", m.Role, m.Content)
		}
	case cmd == "/lang":
		lang := strings.TrimSpace(arg)
		if lang == "" {
			fmt.Fprintln(out, "usage: /lang <language>")
			return nil
		}
		updated, err := s.client.SetConversationLanguage(ctx, conv.ID, lang)
		if err != nil {
			return err
		}
		*conv = updated
		fmt.Fprintf(out, "language: %s\n", conv.Language)
	case strings.HasPrefix(cmd, "/"):
		fmt.Fprintf(out, "unknown command %s\n%s\n", cmd, chatHelp)
	default:
		reply, err := s.client.SendConversationMessage(ctx, conv.ID, line)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "gene: %s\n", reply.Content)
	}
	return nil
}
