package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"

	"github.com/dvloznov/finsight/internal/domain"
)

func TestSourcesFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				GroundingMetadata: &genai.GroundingMetadata{
					GroundingChunks: []*genai.GroundingChunk{
						{Web: &genai.GroundingChunkWeb{Title: "Inflation report", URI: "https://example.com/cpi"}},
						{Web: &genai.GroundingChunkWeb{Title: "", URI: "https://example.com/untitled"}},
						{Web: &genai.GroundingChunkWeb{Title: "No link", URI: ""}},
						{Web: nil},
						nil,
					},
				},
			},
		},
	}

	got := SourcesFromResponse(resp)
	assert.Equal(t, []domain.Source{
		{Title: "Inflation report", URI: "https://example.com/cpi"},
	}, got)
}

func TestSourcesFromResponse_Empty(t *testing.T) {
	assert.Empty(t, SourcesFromResponse(nil))
	assert.Empty(t, SourcesFromResponse(&genai.GenerateContentResponse{}))
	assert.Empty(t, SourcesFromResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{}},
	}))

	// Never nil: the forecast serializes searchSources as [].
	assert.NotNil(t, SourcesFromResponse(nil))
}
