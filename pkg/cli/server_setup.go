package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getmockd/contractmock/pkg/config"
	"github.com/getmockd/contractmock/pkg/engine"
	"github.com/getmockd/contractmock/pkg/fixture"
	"github.com/getmockd/contractmock/pkg/metrics"
	"github.com/getmockd/contractmock/pkg/transform"
	"github.com/getmockd/contractmock/pkg/validation"
)

// BuildServer assembles a ready-to-start server from cfg: stubs are loaded
// and compiled, the contract is loaded and the transformer is wired in.
// Nothing is bound until Start or Run is called.
func BuildServer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*engine.Server, error) {
	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	stubs, err := config.LoadStubs(cfg.Stubs, cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("loading stubs: %w", err)
	}
	table, err := engine.NewStubTable(stubs)
	if err != nil {
		return nil, fmt.Errorf("compiling stubs: %w", err)
	}

	tr, err := buildTransformer(ctx, cfg, log, reg)
	if err != nil {
		return nil, err
	}

	opts := []engine.HandlerOption{
		engine.WithFixtureLoader(fixture.NewLoader(cfg.FixturesPath(), fixture.WithLogger(log))),
		engine.WithJournal(engine.NewJournal(cfg.Journal.MaxEntries)),
		engine.WithMetricsRegistry(reg),
		engine.WithOperationalLogger(log),
	}
	if tr != nil {
		opts = append(opts, engine.WithTransformer(tr))
	}
	handler := engine.NewHandler(cfg.Service, table, opts...)

	log.Info("stubs loaded", "service", cfg.Service, "count", len(stubs))

	return engine.NewServer(handler, cfg.Port,
		engine.WithLogger(log),
		engine.WithServerMetrics(reg),
	), nil
}

// buildTransformer returns nil when neither validation nor the auth gate is
// enabled; stub responses then pass through unchanged.
func buildTransformer(ctx context.Context, cfg *config.Config, log *slog.Logger, reg *metrics.Registry) (*transform.Transformer, error) {
	if !cfg.Validation.Enabled && !cfg.Auth.Required {
		return nil, nil
	}

	opts := []transform.Option{
		transform.WithLogger(log),
		transform.WithMetrics(reg),
	}
	if !cfg.Auth.Required {
		opts = append(opts, transform.WithAuth(nil))
	}

	if !cfg.Validation.Enabled {
		return transform.New(cfg.Service, nil, opts...), nil
	}

	src := cfg.ContractSource()
	contract, err := validation.LoadContract(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("loading contract %s: %w", src, err)
	}
	validator, err := validation.NewOpenAPIValidator(contract, &cfg.Validation)
	if err != nil {
		return nil, fmt.Errorf("building validator: %w", err)
	}
	log.Info("contract loaded", "service", cfg.Service, "source", src.String())

	return transform.New(cfg.Service, validator, opts...), nil
}
