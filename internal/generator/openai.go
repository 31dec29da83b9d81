package generator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

const limitMaxOutputTokens int64 = 32768

// OpenAIConfig describes how to reach the OpenAI Responses API.
type OpenAIConfig struct {
	APIKey string
	Model  string
	Params Params

	HTTPClient *http.Client
	BaseURL    string
}

// OpenAIGenerator calls OpenAI's Responses API to produce completions.
type OpenAIGenerator struct {
	client openai.Client
	model  string
	params Params
}

// NewOpenAIGenerator builds a new generator instance.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = openai.ChatModelGPT5Mini
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		model:  model,
		params: cfg.Params,
	}, nil
}

// Generate sends prompt as the sole input. Reasoning models reject sampling
// parameters, so only the output budget is forwarded; it is doubled while the
// response is cut short by max_output_tokens.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	maxOutputTokens := int64(g.params.MaxOutputTokens)
	if maxOutputTokens <= 0 {
		maxOutputTokens = int64(DefaultParams().MaxOutputTokens)
	}

	for {
		resp, err := g.client.Responses.New(ctx, responses.ResponseNewParams{
			Model:           g.model,
			MaxOutputTokens: openai.Int(maxOutputTokens),
			Reasoning: responses.ReasoningParam{
				Effort: openai.ReasoningEffortLow,
			},
			Input: responses.ResponseNewParamsInputUnion{
				OfString: openai.String(prompt),
			},
		})
		if err != nil {
			return "", fmt.Errorf("do request: %w", err)
		}

		if resp.Status == "incomplete" {
			if resp.IncompleteDetails.Reason == "max_output_tokens" && maxOutputTokens < limitMaxOutputTokens {
				maxOutputTokens = min(maxOutputTokens*2, limitMaxOutputTokens)
				continue
			}
			return "", fmt.Errorf(
				"response is incomplete (reason = %s, maxOutputTokens = %d)",
				resp.IncompleteDetails.Reason,
				maxOutputTokens,
			)
		}

		text := resp.OutputText()
		if text == "" {
			return "", fmt.Errorf("%w (status = %s)", ErrNoCandidates, resp.Status)
		}
		return text, nil
	}
}
