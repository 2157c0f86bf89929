package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// errorBody is the part of a provider error response we know how to read.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   json.RawMessage `json:"error"`
	Detail  json.RawMessage `json:"detail"`
}

type extractRule func(body []byte, parsed *errorBody) (string, bool)

// extractRules are tried in order; the first match wins.
var extractRules = []extractRule{
	plainText,
	fromField(func(b *errorBody) json.RawMessage { return b.Message }),
	fromField(func(b *errorBody) json.RawMessage { return b.Error }),
	fromField(func(b *errorBody) json.RawMessage { return b.Detail }),
}

// plainText matches a JSON string body or a body that is not JSON at all.
func plainText(body []byte, parsed *errorBody) (string, bool) {
	if parsed != nil || len(body) == 0 {
		return "", false
	}
	var s string
	if json.Unmarshal(body, &s) == nil {
		return s, s != ""
	}
	if json.Valid(body) || bytes.HasPrefix(body, []byte("{")) {
		return "", false
	}
	return string(body), true
}

func fromField(pick func(*errorBody) json.RawMessage) extractRule {
	return func(_ []byte, parsed *errorBody) (string, bool) {
		if parsed == nil {
			return "", false
		}
		return render(pick(parsed))
	}
}

// render returns strings verbatim and other truthy JSON values encoded.
func render(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s, s != ""
	}
	switch string(raw) {
	case "null", "false", "0":
		return "", false
	}
	return string(raw), true
}

// ExtractMessage returns a best-effort human-readable message from a
// non-success provider response.
func ExtractMessage(status int, body []byte) string {
	body = bytes.TrimSpace(body)

	var parsed *errorBody
	if bytes.HasPrefix(body, []byte("{")) {
		var b errorBody
		if json.Unmarshal(body, &b) == nil {
			parsed = &b
		}
	}

	for _, rule := range extractRules {
		if msg, ok := rule(body, parsed); ok {
			return strings.TrimSpace(msg)
		}
	}
	return fmt.Sprintf("HeyGen API error (%d): %s", status, string(body))
}
