package source

import (
	"codetransform/internal/domain"
	"context"
	"fmt"
	"log/slog"
)

// Aggregator turns a source reference into prompt-embeddable text.
type Aggregator struct {
	files    *FileFetcher
	archives *ArchiveFlattener
	log      *slog.Logger
}

func NewAggregator(
	files *FileFetcher,
	archives *ArchiveFlattener,
	log *slog.Logger,
) *Aggregator {
	return &Aggregator{
		files:    files,
		archives: archives,
		log:      log,
	}
}

// Aggregate fetches the source text for url. Every failure is logged here
// with the source URL and returned as a *FetchError.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	kind domain.SourceKind,
	url string,
) (string, error) {
	var (
		text string
		err  error
	)

	switch kind {
	case domain.SourceKindFile:
		text, err = a.files.Fetch(ctx, url)
	case domain.SourceKindRepository:
		text, err = a.archives.Flatten(ctx, url)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupported, kind)
	}

	if err != nil {
		a.log.ErrorContext(ctx, "Error getting file contents",
			"error", err,
			"sourceURL", url,
			"sourceType", kind.String(),
			"requestID", domain.RequestIDFromContext(ctx))

		return "", &FetchError{URL: url, Kind: kind, Err: err}
	}

	return text, nil
}
