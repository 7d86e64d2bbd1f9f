package ai

import (
	"encoding/json"
	"strings"

	"github.com/sells-group/lead-enrich/internal/apperr"
)

// StripFences removes markdown code fences and any prose around the
// outermost JSON object or array in text.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		// Drop the info string ("json") up to the first newline.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		s = strings.TrimSpace(rest)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return s[start:]
	}
	return s[start : end+1]
}

// DecodeJSON strips fences from text and unmarshals it into dst. Malformed
// output is reported as a parse-kind error.
func DecodeJSON(text string, dst any) error {
	body := StripFences(text)
	if body == "" {
		return apperr.New(apperr.KindParse, "ai: decode json", "empty model output")
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return apperr.Parse("ai: decode json", err)
	}
	return nil
}
