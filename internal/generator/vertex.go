package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// VertexConfig describes how to reach a Vertex AI generative model.
type VertexConfig struct {
	Project  string
	Location string
	// Model is either a bare model ID or a full
	// "projects/.../publishers/google/models/..." resource name.
	Model  string
	Params Params

	// HTTPClient replaces the default client. When set, application default
	// credentials are not looked up.
	HTTPClient *http.Client
	BaseURL    string
}

// VertexGenerator calls Vertex AI's generateContent endpoint.
type VertexGenerator struct {
	client *genai.Client
	model  string
	params Params
}

// NewVertexGenerator builds a generator bound to a single model endpoint.
func NewVertexGenerator(ctx context.Context, cfg VertexConfig) (*VertexGenerator, error) {
	if cfg.Project == "" || cfg.Location == "" || cfg.Model == "" {
		return nil, errors.New("project, location and model are required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend:    genai.BackendVertexAI,
		Project:    cfg.Project,
		Location:   cfg.Location,
		HTTPClient: cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &VertexGenerator{
		client: client,
		model:  cfg.Model,
		params: cfg.Params,
	}, nil
}

// Generate sends prompt as a single user turn and returns the text of the
// first candidate.
func (g *VertexGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			CandidateCount:  g.params.CandidateCount,
			MaxOutputTokens: g.params.MaxOutputTokens,
			Temperature:     genai.Ptr(g.params.Temperature),
			TopP:            genai.Ptr(g.params.TopP),
		},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", fmt.Errorf("%w (finishReason = %s)", ErrNoCandidates, candidate.FinishReason)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w (finishReason = %s)", ErrNoCandidates, candidate.FinishReason)
	}

	return text.String(), nil
}
