package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mensylisir/xmpublish/common"
)

// NewRootCmd builds the xmpublish command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           common.AppName + " [command] [flags]",
		Short:         "Publish files to a remote host over SFTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
