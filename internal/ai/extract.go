package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/finsight/internal/domain"
)

// ExtractJSON locates the JSON payload inside free-form model output.
// It strips markdown fences if the model ignored instructions, then
// takes the first balanced top-level {...} or [...] substring via a
// bracket-matching scan. If no balanced candidate parses, the entire
// trimmed text is tried as-is. Both failing means the response is
// malformed.
func ExtractJSON(raw string) (json.RawMessage, error) {
	s := stripFences(raw)

	if candidate, ok := scanBalanced(s); ok && json.Valid([]byte(candidate)) {
		return json.RawMessage(candidate), nil
	}

	trimmed := strings.TrimSpace(s)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}

	return nil, fmt.Errorf("ai.ExtractJSON: %w", domain.ErrMalformedResponse)
}

// stripFences removes a ```json ... ``` (or plain ```) wrapper.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line.
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		return s
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// scanBalanced returns the first top-level balanced object or array
// substring. The scan is string- and escape-aware, so braces inside
// JSON string values do not confuse it.
func scanBalanced(s string) (string, bool) {
	start := -1
	var open, close byte
	for i := 0; i < len(s); i++ {
		if s[i] == '{' {
			start, open, close = i, '{', '}'
			break
		}
		if s[i] == '[' {
			start, open, close = i, '[', ']'
			break
		}
	}
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
