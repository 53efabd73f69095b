// Package commands implements CLI command handlers for foliage.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/foliage/pkg/cache"
	"github.com/Sumatoshi-tech/foliage/pkg/config"
	"github.com/Sumatoshi-tech/foliage/pkg/coverage"
	"github.com/Sumatoshi-tech/foliage/pkg/observability"
	"github.com/Sumatoshi-tech/foliage/pkg/reportfmt"
	"github.com/Sumatoshi-tech/foliage/pkg/version"
)

// FlagConfig is the persistent flag naming the config file.
const FlagConfig = "config"

// ErrUncovered is returned when fail_on_uncovered is set and a report has
// diagnostics.
var ErrUncovered = errors.New("uncovered branches reported")

// outputFlags are the report flags shared by run and eval.
type outputFlags struct {
	format  string
	noColor bool
}

func (of *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&of.format, "format", "", "Output format: text, table, json, yaml (default from config)")
	cmd.Flags().BoolVar(&of.noColor, "no-color", false, "Disable colored text output")
}

// app wires configuration, telemetry and the analyzer for one command.
type app struct {
	cfg       *config.Config
	providers observability.Providers
	analyzer  *coverage.Analyzer
}

func newApp(cmd *cobra.Command, programOut io.Writer) (*app, error) {
	configPath, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		configPath = ""
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, err
	}

	maxSize, err := cfg.Coverage.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	cacheSize, err := cfg.Coverage.ParseCacheSizeBytes()
	if err != nil {
		return nil, err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	obsCfg.SampleRatio = cfg.Telemetry.SampleRatio
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.Format == "json"

	providers, err := observability.InitWithWriter(obsCfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	analyzer, err := coverage.NewAnalyzer(
		coverage.WithLogger(providers.Logger),
		coverage.WithTracer(providers.Tracer),
		coverage.WithMeter(providers.Meter),
		coverage.WithStdout(programOut),
		coverage.WithMaxFileSize(maxSize),
		coverage.WithLanguageCheck(cfg.Coverage.LanguageCheck),
		coverage.WithTreeCache(cache.NewTreeCache(cacheSize)),
	)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	return &app{cfg: cfg, providers: providers, analyzer: analyzer}, nil
}

func (a *app) close(ctx context.Context) error {
	if err := a.providers.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown observability: %w", err)
	}

	return nil
}

// emit writes reports and applies fail_on_uncovered.
func (a *app) emit(w io.Writer, reports []*coverage.Report, flags outputFlags) error {
	opts := reportfmt.Options{
		Format: a.cfg.Output.Format,
		Color:  a.cfg.Output.Color && !flags.noColor,
	}

	if flags.format != "" {
		opts.Format = flags.format
	}

	if err := reportfmt.Write(w, reports, opts); err != nil {
		return err
	}

	if !a.cfg.Coverage.FailOnUncovered {
		return nil
	}

	uncovered := 0

	for _, rep := range reports {
		uncovered += len(rep.Diagnostics)
	}

	if uncovered > 0 {
		return fmt.Errorf("%w: %d", ErrUncovered, uncovered)
	}

	return nil
}
