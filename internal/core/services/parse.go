package services

import (
	"encoding/json"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// ParseAnswer extracts the structured answer from completion text.
// It accepts a bare JSON object, a fenced ```json block, or an object
// embedded in prose. Both fields must be present.
func ParseAnswer(raw string) (domain.ParsedAnswer, error) {
	body := extractJSON(raw)
	if body == "" {
		return domain.ParsedAnswer{}, &domain.ParseError{Raw: raw, Reason: "no JSON object found"}
	}

	var fields struct {
		Response *string `json:"response"`
		Source   *string `json:"source"`
	}
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return domain.ParsedAnswer{}, &domain.ParseError{Raw: raw, Reason: "decode JSON", Err: err}
	}
	if fields.Response == nil {
		return domain.ParsedAnswer{}, &domain.ParseError{Raw: raw, Reason: "response field is missing"}
	}
	if fields.Source == nil {
		return domain.ParsedAnswer{}, &domain.ParseError{Raw: raw, Reason: "source field is missing"}
	}

	parsed := domain.ParsedAnswer{
		Response: strings.TrimSpace(*fields.Response),
		Source:   strings.TrimSpace(*fields.Source),
	}
	if parsed.Response == "" {
		return domain.ParsedAnswer{}, &domain.ParseError{Raw: raw, Reason: "response field is empty"}
	}
	return parsed, nil
}

// extractJSON returns the candidate object text, or "" if there is none.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		// Skip the info string, e.g. "json".
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		}
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
