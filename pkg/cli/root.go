package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// NewRootCommand builds the contractmock command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "contractmock",
		Short: "contractmock serves stubbed HTTP responses checked against an OpenAPI contract",
		Long: `contractmock replays canned HTTP responses for a downstream service.

Each exchange is gated by a bearer credential check and validated against the
service's OpenAPI contract. When either side of the exchange breaks the
contract the caller gets a 400 with a diagnostic instead of the stub, so drift
between stubs and contract is visible in the test that hit it.

Configuration is read from contractmock.yaml in the working directory, the
file named by --config, or CONTRACTMOCK_CONFIG. CONTRACTMOCK_* variables and
flags override the file.`,
		SilenceUsage:  true,
		SilenceErrors: true, // We handle errors in Execute()
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newVersionCommand())
	return root
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
