package llm

import (
	"encoding/json"
	"strings"
)

// DecodeValue locates and parses a JSON value embedded in free-form model
// output. Models regularly wrap JSON in markdown fences or surround it with
// prose, so the raw text is cleaned first, then the span from the first
// opening brace/bracket to the last matching closer is parsed. Nested
// braces are expected, which is why the last closer wins, not the first.
// Malformed input never produces an error, only ok == false.
func DecodeValue(raw string) (any, bool) {
	s := stripFences(raw)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return nil, false
	}

	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end < start {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(s[start : end+1]))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// DecodeObject is DecodeValue restricted to a JSON object.
func DecodeObject(raw string) (map[string]any, bool) {
	v, ok := DecodeValue(raw)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// DecodeArray is DecodeValue restricted to a JSON array.
func DecodeArray(raw string) ([]any, bool) {
	v, ok := DecodeValue(raw)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

// stripFences removes a ```json ... ``` (or plain ```) wrapper when the
// model ignores instructions not to use one.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line (``` or ```json).
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		return s
	}
	s = strings.TrimSpace(s)

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
