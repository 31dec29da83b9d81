package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SourceKind says how TransformRequest.SourceURL is turned into text.
type SourceKind int

const (
	// SourceKindFile fetches a single file verbatim.
	SourceKindFile SourceKind = iota
	// SourceKindRepository downloads and flattens a zip archive.
	SourceKindRepository
)

func (k SourceKind) String() string {
	switch k {
	case SourceKindFile:
		return "File"
	case SourceKindRepository:
		return "Repository"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

func (k SourceKind) Valid() bool {
	return k == SourceKindFile || k == SourceKindRepository
}

func (k SourceKind) MarshalJSON() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid source kind %d", int(k))
	}

	return json.Marshal(k.String())
}

// UnmarshalJSON accepts the kind name (case-insensitive) or its ordinal.
func (k *SourceKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, ok := ParseSourceKind(name)
		if !ok {
			return fmt.Errorf("unknown source type %q", name)
		}
		*k = parsed

		return nil
	}

	var ordinal int
	if err := json.Unmarshal(data, &ordinal); err != nil {
		return fmt.Errorf("decode source type: %w", err)
	}

	parsed := SourceKind(ordinal)
	if !parsed.Valid() {
		return fmt.Errorf("unknown source type %d", ordinal)
	}
	*k = parsed

	return nil
}

func ParseSourceKind(s string) (SourceKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file":
		return SourceKindFile, true
	case "repository":
		return SourceKindRepository, true
	default:
		return 0, false
	}
}

type TransformRequest struct {
	Prompt     string     `json:"prompt"`
	SourceURL  string     `json:"sourceUrl"`
	SourceType SourceKind `json:"sourceType"`
}

type requestIDKey struct{}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID or "" when there is none.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)

	return id
}
