package generator

import (
	"context"
	"errors"
)

// ErrNoCandidates is returned when the model answers without any usable text.
var ErrNoCandidates = errors.New("no response from the model")

// Params holds the sampling parameters sent with every generation request.
type Params struct {
	CandidateCount  int32
	MaxOutputTokens int32
	Temperature     float32
	TopP            float32
}

// DefaultParams returns the fixed parameters used for code transformation.
func DefaultParams() Params {
	return Params{
		CandidateCount:  1,
		MaxOutputTokens: 8192,
		Temperature:     0.2,
		TopP:            1,
	}
}

// Generator produces a single completion for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
