package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/contractmock/pkg/cli/internal/output"
	"github.com/getmockd/contractmock/pkg/config"
	"github.com/getmockd/contractmock/pkg/engine"
	"github.com/getmockd/contractmock/pkg/fixture"
	"github.com/getmockd/contractmock/pkg/stub"
	"github.com/getmockd/contractmock/pkg/validation"
)

// ValidateOutput is the --json form of the validate command.
type ValidateOutput struct {
	Valid    bool                 `json:"valid"`
	Service  string               `json:"service"`
	Config   string               `json:"config,omitempty"`
	Contract string               `json:"contract,omitempty"`
	Stubs    []engine.StubSummary `json:"stubs"`
	Warnings []string             `json:"warnings,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func newValidateCommand() *cobra.Command {
	f := &serveFlags{}
	var (
		jsonOutput bool
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check configuration, stubs and contract without serving",
		Long: `Load the configuration, every stub file and the contract exactly as serve
would, then print a summary. Missing bodyFile fixtures are reported as
warnings since they are answered with a fallback payload at runtime.`,
		Example: `  contractmock validate -c examples/ewyrys/contractmock.yaml
  contractmock validate --json --strict`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			out, err := runValidate(cmd.Context(), f, cmd)
			if err != nil {
				out.Error = err.Error()
			} else if strict && len(out.Warnings) > 0 {
				err = fmt.Errorf("%d warning(s) in strict mode", len(out.Warnings))
			}
			out.Valid = err == nil

			if jsonOutput {
				if encErr := output.JSON(w, out); encErr != nil {
					return encErr
				}
				return err
			}
			printValidateOutput(w, out)
			return err
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result in JSON format")
	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")
	return cmd
}

func runValidate(ctx context.Context, f *serveFlags, cmd *cobra.Command) (*ValidateOutput, error) {
	out := &ValidateOutput{Stubs: []engine.StubSummary{}}

	cfg, err := f.resolveConfig(cmd.Flags())
	if err != nil {
		return out, err
	}
	out.Service = cfg.Service
	out.Config = cfg.Path

	stubs, err := config.LoadStubs(cfg.Stubs, cfg.BaseDir)
	if err != nil {
		return out, err
	}
	table, err := engine.NewStubTable(stubs)
	if err != nil {
		return out, err
	}
	for _, s := range table.Stubs() {
		out.Stubs = append(out.Stubs, engine.SummarizeStub(s))
	}
	if len(stubs) == 0 {
		out.Warnings = append(out.Warnings, "no stubs configured: every request will get 404")
	}

	if cfg.Validation.Enabled {
		src := cfg.ContractSource()
		out.Contract = src.String()
		contract, err := validation.LoadContract(ctx, src)
		if err != nil {
			return out, fmt.Errorf("loading contract %s: %w", src, err)
		}
		if _, err := validation.NewOpenAPIValidator(contract, &cfg.Validation); err != nil {
			return out, fmt.Errorf("building validator: %w", err)
		}
	}

	out.Warnings = append(out.Warnings, missingFixtures(stubs, fixture.NewLoader(cfg.FixturesPath()))...)
	return out, nil
}

// missingFixtures lists bodyFile references that cannot be read.
func missingFixtures(stubs []*stub.Stub, loader *fixture.Loader) []string {
	var warnings []string
	for _, s := range stubs {
		if s.Response == nil || s.Response.BodyFile == "" {
			continue
		}
		path, err := loader.Resolve(s.Response.BodyFile)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("stub %s: %v", s.ID, err))
			continue
		}
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("stub %s: bodyFile %s not readable", s.ID, s.Response.BodyFile))
		}
	}
	return warnings
}

func printValidateOutput(w io.Writer, out *ValidateOutput) {
	if out.Config != "" {
		fmt.Fprintf(w, "Config:   %s\n", out.Config)
	}
	if out.Service != "" {
		fmt.Fprintf(w, "Service:  %s\n", out.Service)
	}
	if out.Contract != "" {
		fmt.Fprintf(w, "Contract: %s\n", out.Contract)
	}

	if len(out.Stubs) > 0 {
		fmt.Fprintf(w, "\nStubs (%d):\n", len(out.Stubs))
		tw := output.Table(w)
		fmt.Fprintln(tw, "  ID\tMETHOD\tPATH\tSTATUS")
		for _, s := range out.Stubs {
			method := s.Method
			if method == "" {
				method = "*"
			}
			path := s.Path
			if path == "" {
				path = s.PathPattern
			}
			if path == "" {
				path = "*"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\n", s.ID, method, path, s.Status)
		}
		_ = tw.Flush()
	}

	for _, warning := range out.Warnings {
		output.Warn(w, "%s", warning)
	}

	fmt.Fprintln(w)
	if out.Error != "" {
		fmt.Fprintf(w, "✗ Invalid: %s\n", out.Error)
		return
	}
	fmt.Fprintln(w, "✓ Configuration is valid")
}
