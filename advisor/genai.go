package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nstehr/towerbot/config"
	"google.golang.org/genai"
)

// GenAI invokes Gemini models through the Gemini API or Vertex AI.
type GenAI struct {
	client      *genai.Client
	temperature float32
	maxTokens   int32
}

// NewGenAI creates the client once at start-up. The gemini provider
// authenticates with an API key, vertex with a project and region.
func NewGenAI(ctx context.Context, cfg config.AdvisorConfig) (*GenAI, error) {
	cc := &genai.ClientConfig{}
	switch cfg.Provider {
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("GenAI API key is required")
		}
		cc.APIKey = cfg.APIKey
		cc.Backend = genai.BackendGeminiAPI
	case "vertex":
		if cfg.Project == "" || cfg.Region == "" {
			return nil, fmt.Errorf("vertex provider needs project and region")
		}
		cc.Project = cfg.Project
		cc.Location = cfg.Region
		cc.Backend = genai.BackendVertexAI
	default:
		return nil, fmt.Errorf("unknown advisor provider %q", cfg.Provider)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	slog.Info("advisor client initialized", "provider", cfg.Provider, "region", cfg.Region,
		"primary", cfg.PrimaryModel, "fallback", cfg.FallbackModel)

	return &GenAI{
		client:      client,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
	}, nil
}

// Invoke sends prompt as a single user turn and returns the text answer.
func (g *GenAI) Invoke(ctx context.Context, prompt, model string) (string, error) {
	slog.Debug("invoking model", "model", model, "promptChars", len(prompt))

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	})
	if err != nil {
		return "", Classify(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response from %s", ErrModel, model)
	}
	slog.Debug("model response received", "model", model, "chars", len(text))
	return text, nil
}
