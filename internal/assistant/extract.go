package assistant

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ParseError means the provider answered but no text could be found in
// the body.
type ParseError struct {
	Reason string
	Body   string
}

func (e *ParseError) Error() string {
	if e.Body == "" {
		return "assistant: unusable response: " + e.Reason
	}
	return fmt.Sprintf("assistant: unusable response: %s: %.200s", e.Reason, e.Body)
}

// StatusError is a non-2xx answer from a provider endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("assistant: status %d: %.200s", e.StatusCode, e.Body)
}

// textPaths are tried in order. Some gateways wrap the messages response
// in a one-element array, hence the leading "0.".
var textPaths = []string{
	"0.content.0.text",
	"content.0.text",
	"choices.0.message.content",
	"completion",
	"output_text",
}

// ExtractText pulls the answer text out of a provider response body.
func ExtractText(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", &ParseError{Reason: "invalid JSON", Body: string(body)}
	}
	for _, path := range textPaths {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
			return r.Str, nil
		}
	}
	return "", &ParseError{Reason: "no text field", Body: string(body)}
}
