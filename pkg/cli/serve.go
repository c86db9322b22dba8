package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/getmockd/contractmock/pkg/config"
	"github.com/getmockd/contractmock/pkg/logging"
)

// serveFlags holds flag values shared by serve and validate.
type serveFlags struct {
	configFile string
	port       int
	contract   string
	service    string
	stubs      []string
	fixtures   string
	logLevel   string
	logFormat  string
	noAuth     bool
	noValidate bool
}

func (f *serveFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configFile, "config", "c", "", "Path to configuration file (default: discover contractmock.yaml)")
	fs.IntVarP(&f.port, "port", "p", config.DefaultPort, "HTTP server port (0 picks a free port)")
	fs.StringVar(&f.contract, "contract", "", "OpenAPI contract file or http(s) URL")
	fs.StringVar(&f.service, "service", "", "Service name used in diagnostics")
	fs.StringArrayVar(&f.stubs, "stubs", nil, "Stub file or glob pattern (repeatable)")
	fs.StringVar(&f.fixtures, "fixtures", "", "Directory bodyFile references are resolved against")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format (text, json, pretty)")
	fs.BoolVar(&f.noAuth, "no-auth", false, "Do not require a bearer credential")
	fs.BoolVar(&f.noValidate, "no-validate", false, "Disable contract validation")
}

// resolveConfig loads the configuration file, then applies CONTRACTMOCK_*
// variables, then flags that were set explicitly. The result is validated.
func (f *serveFlags) resolveConfig(fs *pflag.FlagSet) (*config.Config, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := f.apply(fs, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	return cfg, nil
}

func (f *serveFlags) loadConfig() (*config.Config, error) {
	if f.configFile != "" {
		return config.Load(f.configFile)
	}
	path, err := config.Discover()
	if errors.Is(err, config.ErrNoConfig) {
		if err := config.LoadDotEnv(".env"); err != nil {
			return nil, err
		}
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func (f *serveFlags) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("port") {
		cfg.Port = f.port
	}
	if fs.Changed("contract") {
		cfg.Contract = config.ContractSourceFor(f.contract)
	}
	if fs.Changed("service") {
		cfg.Service = f.service
	}
	if fs.Changed("stubs") {
		cfg.Stubs = cfg.Stubs[:0]
		for _, s := range f.stubs {
			abs, err := filepath.Abs(s)
			if err != nil {
				return fmt.Errorf("--stubs %s: %w", s, err)
			}
			if strings.ContainsAny(s, "*?[{") {
				cfg.Stubs = append(cfg.Stubs, config.StubSource{Files: abs})
			} else {
				cfg.Stubs = append(cfg.Stubs, config.StubSource{File: abs})
			}
		}
	}
	if fs.Changed("fixtures") {
		abs, err := filepath.Abs(f.fixtures)
		if err != nil {
			return fmt.Errorf("--fixtures %s: %w", f.fixtures, err)
		}
		cfg.FixturesDir = abs
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.logFormat
	}
	if f.noAuth {
		cfg.Auth.Required = false
	}
	if f.noValidate {
		cfg.Validation.Enabled = false
	}
	return nil
}

func newLogger(cfg *config.Config, cmd *cobra.Command) *slog.Logger {
	return logging.New(logging.Config{
		Level:     logging.ParseLevel(cfg.Log.Level),
		Format:    logging.ParseFormat(cfg.Log.Format),
		Output:    cmd.ErrOrStderr(),
		AddSource: cfg.Log.AddSource,
	})
}

func newServeCommand() *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server (foreground)",
		Long: `Start the mock server in the foreground. The server runs until it receives
SIGINT or SIGTERM, then drains in-flight requests and exits.`,
		Example: `  # Start with contractmock.yaml from the working directory
  contractmock serve

  # Start a specific service definition
  contractmock serve -c examples/ewyrys/contractmock.yaml

  # Replay stubs without contract or credential checks
  contractmock serve --stubs 'stubs/**/*.yaml' --no-validate --no-auth --port 8087`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolveConfig(cmd.Flags())
			if err != nil {
				return err
			}
			log := newLogger(cfg, cmd)
			if cfg.Path != "" {
				log.Info("configuration loaded", "path", cfg.Path)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServer(ctx, cfg, log)
		},
	}
	f.register(cmd.Flags())
	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	srv, err := BuildServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
