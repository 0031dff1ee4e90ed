// Package cli implements the storefront command line: the interactive UI
// plus one-shot commands that share the same session and error messages.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apperrors "github.com/storefront-console/storefront/internal/errors"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	debug      bool
	apiURL     string
}

// NewRootCmd builds the command tree. Running it without a subcommand
// starts the interactive UI.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront Console - browse the store from your terminal",
		Long: `Storefront Console signs in to the store API, lists products and shows
product details. Failures are reported with a short message that says
whether trying again can help.

Use "storefront [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/storefront/config.yaml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "override the store API base URL")

	root.AddCommand(
		newTUICmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newProductsCmd(opts),
		newProductCmd(opts),
		newStatusCmd(opts),
		newMockServerCmd(),
		newVersionCmd(),
	)
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

// Execute runs the CLI and returns the process exit code. Failures are
// printed to stderr as the user-facing message.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, UserMessage(err))
		return 1
	}
	return 0
}

// UserMessage returns what to show for err. Classified errors carry their
// resolved message; bare faults get the category default.
func UserMessage(err error) string {
	var ce *apperrors.ClassifiedError
	if apperrors.As(err, &ce) {
		return ce.Message
	}
	var f apperrors.Fault
	if apperrors.As(err, &f) {
		return apperrors.MessageFor(f, apperrors.Classify(f), nil)
	}
	return "Error: " + err.Error()
}
