// Package ai bridges the external Gemini gateway into the typed data
// model. The model's output is never trusted: every response runs
// through bracket-scanning JSON extraction and field-level validation
// before touching domain state.
package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/finsight/internal/domain"
)

// DefaultModel is the Gemini model used for parsing, suggestion and
// forecasting.
const DefaultModel = "gemini-2.5-flash"

// Client wraps the genai SDK for the tracker's request/response calls.
// Each call is independent; there is no retry policy at this layer.
type Client struct {
	genai *genai.Client
	model string
	log   zerolog.Logger
}

// NewClient creates a Gemini-backed client. An empty model selects
// DefaultModel.
func NewClient(ctx context.Context, apiKey, model string, log zerolog.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("ai.NewClient: create genai client: %w", err)
	}

	if model == "" {
		model = DefaultModel
	}
	return &Client{genai: gc, model: model, log: log}, nil
}

// Generative exposes the underlying SDK client for collaborators that
// drive other modalities (the AI lab).
func (c *Client) Generative() *genai.Client {
	return c.genai
}

// SourcesFromResponse maps Google Search grounding chunks into
// citations, keeping only entries with both a title and a URI.
func SourcesFromResponse(resp *genai.GenerateContentResponse) []domain.Source {
	sources := []domain.Source{}
	if resp == nil || len(resp.Candidates) == 0 {
		return sources
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return sources
	}
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		if chunk.Web.URI == "" || chunk.Web.Title == "" {
			continue
		}
		sources = append(sources, domain.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return sources
}
