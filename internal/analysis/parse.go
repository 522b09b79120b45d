package analysis

import (
	"encoding/json"
	"strings"

	"rexpaces/internal/services"
)

// ParseContext decodes the conversation context from a model response. The
// object is taken from the first '{' to the last '}' so code fences and
// surrounding chatter are ignored.
func ParseContext(response string) (ConversationContext, error) {
	var conv ConversationContext
	body, ok := span(response, '{', '}')
	if !ok {
		return conv, services.Wrap(services.ErrContextParse, "analysis", "context", "no JSON object in response", nil)
	}
	if err := json.Unmarshal([]byte(body), &conv); err != nil {
		return ConversationContext{}, services.Wrap(services.ErrContextParse, "analysis", "context", "decode context", err)
	}
	return conv, nil
}

// ParseHighlights decodes detected quotes from a model response, taking the
// first '[' to the last ']'.
func ParseHighlights(response string) ([]DetectedQuote, error) {
	body, ok := span(response, '[', ']')
	if !ok {
		return nil, services.Wrap(services.ErrHighlightParse, "analysis", "detect", "no JSON array in response", nil)
	}
	var quotes []DetectedQuote
	if err := json.Unmarshal([]byte(body), &quotes); err != nil {
		return nil, services.Wrap(services.ErrHighlightParse, "analysis", "detect", "decode highlights", err)
	}
	return quotes, nil
}

func span(text string, open, close byte) (string, bool) {
	text = strings.TrimSpace(text)
	first := strings.IndexByte(text, open)
	last := strings.LastIndexByte(text, close)
	if first < 0 || last < first {
		return "", false
	}
	return text[first : last+1], true
}
