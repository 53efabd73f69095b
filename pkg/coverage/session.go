package coverage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/foliage/pkg/cache"
	"github.com/Sumatoshi-tech/foliage/pkg/interp"
	"github.com/Sumatoshi-tech/foliage/pkg/node"
	"github.com/Sumatoshi-tech/foliage/pkg/parser"
	"github.com/Sumatoshi-tech/foliage/pkg/source"
)

const (
	instrumentationName = "foliage"
	spanSession         = "foliage.session"

	opRun   = "run"
	opBlock = "block"
)

// Analyzer runs coverage sessions: it parses, instruments and executes
// source, then reports the branch outcomes that were never observed.
type Analyzer struct {
	parser       *parser.Parser
	trees        *cache.TreeCache
	registry     *Registry
	instrumenter *Instrumenter
	logger       *slog.Logger
	tracer       trace.Tracer
	meter        metric.Meter
	metrics      *Metrics
	stdout       io.Writer
	globals      *interp.Scope
	maxFileSize  int64
	checkLang    bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRegistry shares a hook registry between analyzers.
func WithRegistry(registry *Registry) Option {
	return func(an *Analyzer) { an.registry = registry }
}

// WithTreeCache shares a parsed tree cache between analyzers.
func WithTreeCache(trees *cache.TreeCache) Option {
	return func(an *Analyzer) { an.trees = trees }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(an *Analyzer) { an.logger = logger }
}

// WithTracer sets the tracer for session spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(an *Analyzer) { an.tracer = tracer }
}

// WithMeter sets the meter for session metrics.
func WithMeter(meter metric.Meter) Option {
	return func(an *Analyzer) { an.meter = meter }
}

// WithStdout sets where program output goes. Output is discarded by default.
func WithStdout(w io.Writer) Option {
	return func(an *Analyzer) { an.stdout = w }
}

// WithGlobals runs programs against the caller's bindings.
func WithGlobals(globals *interp.Scope) Option {
	return func(an *Analyzer) { an.globals = globals }
}

// WithMaxFileSize limits the size of files read by RunFile.
func WithMaxFileSize(limit int64) Option {
	return func(an *Analyzer) { an.maxFileSize = limit }
}

// WithLanguageCheck makes RunFile reject files enry detects as another
// language.
func WithLanguageCheck(enabled bool) Option {
	return func(an *Analyzer) { an.checkLang = enabled }
}

// NewAnalyzer creates an Analyzer with its own registry unless one is given.
func NewAnalyzer(opts ...Option) (*Analyzer, error) {
	an := &Analyzer{
		logger:      slog.New(slog.DiscardHandler),
		tracer:      nooptrace.NewTracerProvider().Tracer(instrumentationName),
		meter:       noopmetric.NewMeterProvider().Meter(instrumentationName),
		maxFileSize: source.DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(an)
	}

	if an.registry == nil {
		an.registry = NewRegistry()
	}

	if an.trees == nil {
		an.trees = cache.NewTreeCache(0)
	}

	p, err := parser.New()
	if err != nil {
		return nil, fmt.Errorf("create parser: %w", err)
	}

	metrics, err := NewMetrics(an.meter)
	if err != nil {
		return nil, err
	}

	an.parser = p
	an.instrumenter = NewInstrumenter(an.registry)
	an.metrics = metrics

	return an, nil
}

// Registry returns the hook registry of the analyzer.
func (an *Analyzer) Registry() *Registry {
	return an.registry
}

// Trees returns the parsed tree cache of the analyzer.
func (an *Analyzer) Trees() *cache.TreeCache {
	return an.trees
}

// parse returns the tree of text, from the cache when it was parsed before.
// Failed parses are not cached.
func (an *Analyzer) parse(ctx context.Context, text, fileTag string) (*node.Node, error) {
	key := cache.KeyOf(fileTag, text)

	if tree, ok := an.trees.Get(key); ok {
		return tree, nil
	}

	tree, err := an.parser.ParseString(ctx, text, fileTag)
	if err != nil {
		return nil, err
	}

	an.trees.Put(key, tree, int64(len(text)))

	return tree, nil
}

// RunText measures branch coverage of text. A parse failure is not an error:
// the report is empty and carries the failure in ParseErr. A runtime fault
// returns the partial report with an error wrapping ErrExecution.
func (an *Analyzer) RunText(ctx context.Context, text, fileTag string) (*Report, error) {
	if fileTag == "" {
		fileTag = node.DefaultFile
	}

	var parseErr error

	rep, err := an.session(ctx, opRun, fileTag, func(ctx context.Context) error {
		tree, err := an.parse(ctx, text, fileTag)
		if err != nil {
			parseErr = err
			an.logger.InfoContext(ctx, "source not parsed", "file", fileTag, "error", err)

			return nil
		}

		if tree == nil {
			return nil
		}

		prog, err := an.compile(tree)
		if err != nil {
			return err
		}

		_, err = an.Exec(ctx, prog)

		return err
	})

	rep.ParseErr = parseErr

	return rep, err
}

// RunFile measures branch coverage of the file at path, tagging diagnostics
// with the path.
func (an *Analyzer) RunFile(ctx context.Context, path string) (*Report, error) {
	data, err := source.Load(path, an.maxFileSize, source.WithLanguageCheck(an.checkLang))
	if err != nil {
		return nil, err
	}

	return an.RunText(ctx, string(data), path)
}

// CoverBlock measures branch coverage of code run by fn. Programs loaded with
// Load inside fn register their hooks into this session.
func (an *Analyzer) CoverBlock(ctx context.Context, fn func(ctx context.Context) error) (*Report, error) {
	return an.session(ctx, opBlock, node.DefaultFile, fn)
}

// Load parses and instruments text into the innermost session and compiles
// it without running it.
func (an *Analyzer) Load(ctx context.Context, text, fileTag string) (*interp.Program, error) {
	tree, err := an.parse(ctx, text, fileTag)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", fileTag, err)
	}

	return an.compile(tree)
}

// Instrument rewrites tree with hooks registered into the innermost session.
func (an *Analyzer) Instrument(tree *node.Node) (*node.Node, error) {
	return an.instrumenter.Instrument(tree, false)
}

// Exec runs prog with the analyzer's globals, output and hook registry.
// Any failure is wrapped in ErrExecution.
func (an *Analyzer) Exec(ctx context.Context, prog *interp.Program) (interp.Value, error) {
	v, err := prog.Run(ctx, interp.Env{
		Globals: an.globals,
		Hooks:   an.registry.Resolve,
		Stdout:  an.stdout,
	})
	if err != nil {
		an.logger.WarnContext(ctx, "program faulted", "error", err)

		return v, fmt.Errorf("%w: %w", ErrExecution, err)
	}

	return v, nil
}

func (an *Analyzer) compile(tree *node.Node) (*interp.Program, error) {
	tree, err := an.Instrument(tree)
	if err != nil {
		return nil, err
	}

	prog, err := interp.Compile(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	return prog, nil
}

// session pushes a hook list, runs body and pops the list on every path,
// panics included.
func (an *Analyzer) session(
	ctx context.Context, op, fileTag string, body func(ctx context.Context) error,
) (rep *Report, err error) {
	ctx, span := an.tracer.Start(ctx, spanSession, trace.WithAttributes(
		attribute.String("foliage.op", op),
		attribute.String("foliage.file", fileTag),
	))
	defer span.End()

	start := time.Now()

	an.registry.Push()
	an.logger.DebugContext(ctx, "coverage session started", "op", op, "file", fileTag, "depth", an.registry.Depth())

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrExecution, r)
		}

		hooks, popErr := an.registry.Pop()
		if popErr != nil {
			err = errors.Join(err, popErr)
		}

		rep = NewReport(fileTag, hooks)
		an.finish(ctx, span, op, start, rep, err)
	}()

	err = body(ctx)

	return rep, err
}

func (an *Analyzer) finish(ctx context.Context, span trace.Span, op string, start time.Time, rep *Report, err error) {
	elapsed := time.Since(start)
	status := statusOK

	span.SetAttributes(
		attribute.Int("foliage.hooks", len(rep.Hooks)),
		attribute.Int("foliage.diagnostics", len(rep.Diagnostics)),
	)

	if err != nil {
		status = statusError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	an.metrics.RecordSession(ctx, op, status, len(rep.Hooks), len(rep.Diagnostics), elapsed)
	an.logger.DebugContext(ctx, "coverage session finished",
		"op", op,
		"file", rep.File,
		"hooks", len(rep.Hooks),
		"diagnostics", len(rep.Diagnostics),
		"duration", elapsed,
		"status", status,
	)
}
