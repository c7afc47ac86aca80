// Package jsonx recovers structured data from free-form language-model text.
// Models routinely wrap valid JSON in prose or markdown fences, so extraction
// tries the cheapest, most precise strategy first and falls back to
// increasingly permissive pattern scans.
package jsonx

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when every extraction strategy fails. The message is
// surfaced verbatim in stage warnings and API responses.
var ErrNoJSON = errors.New("Could not extract valid JSON from response")

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

	// The object/array patterns support exactly one level of nesting. Deeper
	// JSON embedded in prose may fail to parse; that is an accepted
	// approximation, not a bug.
	objectRe = regexp.MustCompile(`\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\}`)
	arrayRe  = regexp.MustCompile(`\[[^\[\]]*(?:\[[^\[\]]*\][^\[\]]*)*\]`)
)

// Extract parses raw model output into a structured value. Strategies are
// tried in order, first success wins:
//
//  1. the entire text as JSON
//  2. each fenced code block's contents
//  3. each balanced {...} candidate
//  4. each balanced [...] candidate
//
// When all strategies fail it returns ErrNoJSON.
func Extract(raw string) (interface{}, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrNoJSON
	}

	var value interface{}
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		return value, nil
	}

	for _, match := range fencedBlockRe.FindAllStringSubmatch(trimmed, -1) {
		var v interface{}
		if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), &v); err == nil {
			return v, nil
		}
	}

	for _, candidate := range objectRe.FindAllString(trimmed, -1) {
		var v interface{}
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, nil
		}
	}

	for _, candidate := range arrayRe.FindAllString(trimmed, -1) {
		var v interface{}
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, nil
		}
	}

	return nil, ErrNoJSON
}
