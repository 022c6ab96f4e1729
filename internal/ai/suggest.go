package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/dvloznov/finsight/internal/domain"
)

// SuggestCategory is Mode B extraction: the response must be exactly
// one member of the closed category enumeration, modulo surrounding
// whitespace. Anything else yields no suggestion; the reconciler never
// guesses or fuzzy-matches.
func (c *Client) SuggestCategory(ctx context.Context, description string) (string, bool, error) {
	prompt := fmt.Sprintf(
		"Classify this transaction description into a spending category: %q.\n"+
			"Respond with exactly one of the following category names and nothing else:\n%s",
		description, strings.Join(domain.Categories, "\n"))

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", false, fmt.Errorf("SuggestCategory: generate content: %w", err)
	}

	got := strings.TrimSpace(resp.Text())
	if !domain.KnownCategory(got) {
		return "", false, nil
	}
	return got, true, nil
}

// Debounce defaults for the category suggestion slot.
const (
	DefaultQuietPeriod = 800 * time.Millisecond
	DefaultMinInputLen = 3
)

// SuggestFunc resolves a description to a category suggestion.
type SuggestFunc func(ctx context.Context, description string) (string, bool, error)

// Suggester governs when Mode B runs for one logical input slot.
// Re-invocation is suppressed until the input has been stable for the
// quiet period and exceeds the minimum length. Each new input bumps a
// monotonically increasing sequence number; a result is delivered only
// if its sequence still matches the latest issued request, so staleness
// is decided by input recency, not response arrival order. Superseded
// in-flight requests are not aborted, their results are simply
// discarded.
type Suggester struct {
	mu      sync.Mutex
	seq     uint64
	timer   *time.Timer
	suggest SuggestFunc
	apply   func(category string)
	quiet   time.Duration
	minLen  int
	log     zerolog.Logger
}

// NewSuggester builds a suggestion slot. apply receives accepted
// suggestions from the debounced path and may be nil when only Resolve
// is used.
func NewSuggester(suggest SuggestFunc, apply func(category string), quiet time.Duration, minLen int, log zerolog.Logger) *Suggester {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if minLen <= 0 {
		minLen = DefaultMinInputLen
	}
	return &Suggester{suggest: suggest, apply: apply, quiet: quiet, minLen: minLen, log: log}
}

// Input registers new text for the slot. Any pending or in-flight
// request is superseded immediately; a fresh request fires once the
// input has been quiet long enough.
func (s *Suggester) Input(ctx context.Context, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	trimmed := strings.TrimSpace(text)
	if len(trimmed) < s.minLen {
		return
	}

	seq := s.seq
	s.timer = time.AfterFunc(s.quiet, func() {
		s.fetch(ctx, seq, trimmed)
	})
}

func (s *Suggester) fetch(ctx context.Context, seq uint64, text string) {
	if s.stale(seq) {
		return
	}

	category, ok, err := s.suggest(ctx, text)
	if err != nil {
		s.log.Warn().Err(err).Msg("Category suggestion failed")
		return
	}
	if !ok || s.stale(seq) {
		return
	}
	if s.apply != nil {
		s.apply(category)
	}
}

// Resolve issues an immediate request for the slot, superseding any
// pending debounced one, and returns the suggestion unless a newer
// input arrived while the model was answering.
func (s *Suggester) Resolve(ctx context.Context, text string) (string, bool, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	trimmed := strings.TrimSpace(text)
	if len(trimmed) < s.minLen {
		return "", false, nil
	}

	category, ok, err := s.suggest(ctx, trimmed)
	if err != nil {
		return "", false, err
	}
	if !ok || s.stale(seq) {
		return "", false, nil
	}
	return category, true, nil
}

func (s *Suggester) stale(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq != s.seq
}
