package transformer

import (
	"codetransform/internal/domain"
	"codetransform/internal/generator"
	"codetransform/internal/prompt"
	"context"
	"log/slog"
	"time"
	"unicode/utf8"
)

// Aggregator resolves a source reference to prompt-embeddable text.
type Aggregator interface {
	Aggregate(ctx context.Context, kind domain.SourceKind, url string) (string, error)
}

type Transformer struct {
	aggregator   Aggregator
	generator    generator.Generator
	modelTimeout time.Duration
	log          *slog.Logger
}

func New(
	aggregator Aggregator,
	gen generator.Generator,
	modelTimeout time.Duration,
	log *slog.Logger,
) *Transformer {
	return &Transformer{
		aggregator:   aggregator,
		generator:    gen,
		modelTimeout: modelTimeout,
		log:          log,
	}
}

// Generate runs one request end to end: aggregate the source, embed it in
// the prompt and ask the model. Errors are returned as produced so callers
// can match source.ErrAggregation and generator.ErrNoCandidates.
func (t *Transformer) Generate(ctx context.Context, req domain.TransformRequest) (string, error) {
	source, err := t.aggregator.Aggregate(ctx, req.SourceType, req.SourceURL)
	if err != nil {
		return "", err
	}

	assembled := prompt.Assemble(req.Prompt, source)

	t.log.InfoContext(ctx, "Prompt is assembled",
		"sourceType", req.SourceType.String(),
		"sourceCharacters", utf8.RuneCountInString(source),
		"promptCharacters", utf8.RuneCountInString(assembled),
		"requestID", domain.RequestIDFromContext(ctx))

	if t.modelTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.modelTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := t.generator.Generate(ctx, assembled)
	if err != nil {
		return "", err
	}

	t.log.InfoContext(ctx, "Model response is received",
		"responseCharacters", utf8.RuneCountInString(text),
		"elapsed", time.Since(start).String(),
		"requestID", domain.RequestIDFromContext(ctx))

	return text, nil
}
