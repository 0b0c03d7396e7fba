package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var opts clientOptions
	ctx := newCommandContext(&opts)

	rootCmd := &cobra.Command{
		Use:           "scaledownctl",
		Short:         "Command-line client for the ScaleDown AI gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.target, "target", defaultTarget(), "Gateway gRPC address (env SCALEDOWN_TARGET)")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", "", "Service token sent as x-service-token (env SCALEDOWN_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Per-command deadline; 0 waits until the gateway answers")

	rootCmd.AddCommand(newHypothesisCommand(ctx))
	rootCmd.AddCommand(newCompressCommand(ctx))
	rootCmd.AddCommand(newVideoCommand(ctx))
	rootCmd.AddCommand(newChatCommand(ctx))
	rootCmd.AddCommand(newModelsCommand(ctx))

	return rootCmd
}
