package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/poly-workshop/scaledown-gateway/internal/domain/llm"
	"github.com/poly-workshop/scaledown-gateway/internal/infrastructure/transport/grpcclient"
	"github.com/spf13/cobra"
)

func newHypothesisCommand(ctx *commandContext) *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "hypothesis <query>",
		Short: "Generate a research hypothesis for a genomic query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if err := llm.RequireText("query", query); err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *grpcclient.Client) error {
				text, err := client.GenerateHypothesis(c, query, language)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "Response language (default English)")
	return cmd
}

func newCompressCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "compress <data>",
		Short: "Simulate semantic compression of a genomic payload",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := strings.Join(args, " ")
			if err := llm.RequireText("data", data); err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *grpcclient.Client) error {
				text, err := client.SimulateCompression(c, data)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}

func newVideoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "video <topic>",
		Short: "Generate an educational video and print its URI",
		Long:  "Generate an educational video and print its URI.\nGeneration takes minutes; the URI embeds the gateway's API key, so treat it as a secret.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			if err := llm.RequireText("topic", topic); err != nil {
				return err
			}
			return ctx.withClient(cmd, func(c context.Context, client *grpcclient.Client) error {
				fmt.Fprintln(cmd.ErrOrStderr(), "Generating video, this can take several minutes...")
				uri, err := client.GenerateEducationalVideo(c, topic)
				if err != nil {
					return fmt.Errorf("video generation failed (check billing at https://ai.google.dev/gemini-api/docs/billing): %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), uri)
				return nil
			})
		},
	}
}

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models the gateway routes to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(c context.Context, client *grpcclient.Client) error {
				models, err := client.ListModels(c)
				if err != nil {
					return err
				}
				for _, m := range models {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m.ID, m.Provider, strings.Join(m.Capabilities, ","))
				}
				return nil
			})
		},
	}
}
