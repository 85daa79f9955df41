package portfolioai

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "portfolioai"

// Provider is the language-model collaborator. Implementations must honour
// ctx cancellation.
type Provider interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// ProviderFunc adapts a plain function to Provider.
type ProviderFunc func(ctx context.Context, prompt string) (string, error)

func (f ProviderFunc) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Stage is a step of a single analysis run.
type Stage string

const (
	StagePrompting     Stage = "prompting"
	StageAwaitingModel Stage = "awaiting_model"
	StageParsing       Stage = "parsing"
)

// Analyzer runs prompt building, the model call and parsing in sequence.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	provider Provider
	logger   *slog.Logger
	tracer   trace.Tracer
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithLogger sets the analyzer logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithTracer sets the tracer used for analysis spans. Defaults to the global
// otel tracer provider.
func WithTracer(tracer trace.Tracer) AnalyzerOption {
	return func(a *Analyzer) {
		if tracer != nil {
			a.tracer = tracer
		}
	}
}

// NewAnalyzer returns an Analyzer calling provider. provider must not be nil.
func NewAnalyzer(provider Provider, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		provider: provider,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GenerateAnalysis renders req into a prompt, asks the provider for a reply
// and parses it. The only error path is a provider failure, returned as an
// *Error with ErrCodeGeneration wrapping the cause.
func (a *Analyzer) GenerateAnalysis(ctx context.Context, req AnalysisRequest) (*AIAnalysisResult, error) {
	return a.GenerateAnalysisWithProgress(ctx, req, nil)
}

// GenerateAnalysisWithProgress is GenerateAnalysis reporting each stage to
// onStage before entering it. onStage may be nil.
func (a *Analyzer) GenerateAnalysisWithProgress(ctx context.Context, req AnalysisRequest, onStage func(Stage)) (*AIAnalysisResult, error) {
	if onStage == nil {
		onStage = func(Stage) {}
	}

	ctx, span := a.tracer.Start(ctx, "portfolioai.generate_analysis",
		trace.WithAttributes(
			attribute.Int("portfolioai.quotes", len(req.StockQuotes)),
			attribute.Int("portfolioai.holdings", len(req.Portfolio.Holdings)),
		),
	)
	defer span.End()

	if a.provider == nil {
		err := NewError(ErrCodeProviderConfig, "no language model provider configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Message)
		return nil, err
	}

	onStage(StagePrompting)
	prompt := BuildPrompt(req)
	a.logger.Debug("analysis prompt built", "prompt_chars", len(prompt), "quotes", len(req.StockQuotes))

	onStage(StageAwaitingModel)
	text, err := a.callProvider(ctx, prompt)
	if err != nil {
		a.logger.Error("analysis generation failed", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis generation failed")
		return nil, WrapError(ErrCodeGeneration, "analysis generation failed", err)
	}

	onStage(StageParsing)
	result := Parse(text, req)
	span.SetAttributes(attribute.Int("portfolioai.recommendations", len(result.Recommendations)))
	return &result, nil
}

func (a *Analyzer) callProvider(ctx context.Context, prompt string) (string, error) {
	ctx, span := a.tracer.Start(ctx, "portfolioai.provider.generate_content")
	defer span.End()

	start := time.Now()
	text, err := a.provider.GenerateContent(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("portfolioai.reply_chars", len(text)))
	a.logger.Debug("analysis reply received", "reply_chars", len(text), "elapsed", elapsed)
	return text, nil
}
