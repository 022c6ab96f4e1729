// Package lab drives the multi-modal Gemini playground: grounded chat,
// image and video generation, speech synthesis, transcription, and the
// live audio bridge.
package lab

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/finsight/internal/ai"
	"github.com/dvloznov/finsight/internal/domain"
)

// Model names per modality.
const (
	ModelChat       = "gemini-2.5-flash"
	ModelImage      = "gemini-2.5-flash-image"
	ModelVideo      = "veo-3.1-fast-generate-preview"
	ModelSpeech     = "gemini-2.5-flash-preview-tts"
	ModelLive       = "gemini-2.5-flash-native-audio-preview-12-2025"
	ModelTranscribe = "gemini-2.5-flash"
)

// DefaultVideoPollInterval is how often a pending video operation is
// re-checked.
const DefaultVideoPollInterval = 10 * time.Second

// GroundingMode selects which tool, if any, backs a chat turn. Search
// and Maps grounding are mutually exclusive.
type GroundingMode string

const (
	GroundingNone   GroundingMode = ""
	GroundingSearch GroundingMode = "search"
	GroundingMaps   GroundingMode = "maps"
)

// Lab wraps the genai client for the playground calls.
type Lab struct {
	genai *genai.Client
	poll  time.Duration
	log   zerolog.Logger
}

// New creates a Lab. pollInterval <= 0 selects the default.
func New(client *genai.Client, pollInterval time.Duration, log zerolog.Logger) *Lab {
	if pollInterval <= 0 {
		pollInterval = DefaultVideoPollInterval
	}
	return &Lab{genai: client, poll: pollInterval, log: log}
}

// ChatResult is one chat answer plus any grounding citations.
type ChatResult struct {
	Text    string          `json:"text"`
	Sources []domain.Source `json:"sources"`
}

// Chat sends a single prompt, optionally grounded with Google Search or
// Google Maps.
func (l *Lab) Chat(ctx context.Context, prompt string, mode GroundingMode) (ChatResult, error) {
	model := ModelChat
	config := &genai.GenerateContentConfig{}

	switch mode {
	case GroundingSearch:
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	case GroundingMaps:
		config.Tools = []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}}
	case GroundingNone:
	default:
		return ChatResult{}, fmt.Errorf("lab.Chat: unknown grounding mode %q", mode)
	}

	resp, err := l.genai.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
	if err != nil {
		return ChatResult{}, fmt.Errorf("lab.Chat: generate content: %w", err)
	}

	return ChatResult{
		Text:    resp.Text(),
		Sources: ai.SourcesFromResponse(resp),
	}, nil
}

// Image is generated inline image data.
type Image struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// GenerateImage renders a prompt into an image.
func (l *Lab) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := l.genai.Models.GenerateContent(ctx, ModelImage, genai.Text(prompt), config)
	if err != nil {
		return Image{}, fmt.Errorf("lab.GenerateImage: generate content: %w", err)
	}

	for _, part := range responseParts(resp) {
		if part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "image/") {
			return Image{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}, nil
		}
	}
	return Image{}, fmt.Errorf("lab.GenerateImage: no image in model response")
}

// GenerateVideo starts a video generation operation and polls it until
// it finishes or ctx is cancelled. It returns the URI of the generated
// video. Video generation runs for minutes, so callers drive this from
// a background job.
func (l *Lab) GenerateVideo(ctx context.Context, prompt string) (string, error) {
	op, err := l.genai.Models.GenerateVideos(ctx, ModelVideo, prompt, nil, nil)
	if err != nil {
		return "", fmt.Errorf("lab.GenerateVideo: start operation: %w", err)
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(l.poll):
		}

		op, err = l.genai.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return "", fmt.Errorf("lab.GenerateVideo: poll operation: %w", err)
		}
		l.log.Debug().Bool("done", op.Done).Msg("Video operation polled")
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return "", fmt.Errorf("lab.GenerateVideo: operation finished with no video")
	}
	video := op.Response.GeneratedVideos[0].Video
	if video == nil || video.URI == "" {
		return "", fmt.Errorf("lab.GenerateVideo: generated video has no URI")
	}
	return video.URI, nil
}

// Audio is synthesized inline audio data.
type Audio struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Synthesize converts text to speech.
func (l *Lab) Synthesize(ctx context.Context, text string) (Audio, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: "Kore"},
			},
		},
	}

	resp, err := l.genai.Models.GenerateContent(ctx, ModelSpeech, genai.Text(text), config)
	if err != nil {
		return Audio{}, fmt.Errorf("lab.Synthesize: generate content: %w", err)
	}

	for _, part := range responseParts(resp) {
		if part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "audio/") {
			return Audio{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}, nil
		}
	}
	return Audio{}, fmt.Errorf("lab.Synthesize: no audio in model response")
}

// Transcribe turns an audio recording into text.
func (l *Lab) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: "Transcribe this audio recording verbatim."},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     audio,
					},
				},
			},
		},
	}

	resp, err := l.genai.Models.GenerateContent(ctx, ModelTranscribe, contents, nil)
	if err != nil {
		return "", fmt.Errorf("lab.Transcribe: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("lab.Transcribe: empty response from model")
	}
	return text, nil
}

func responseParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}
