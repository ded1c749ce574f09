package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/museme-app/museme-engine/pkg/apperrors"
)

// ExtractJSON pulls a single JSON object out of a model response that may
// include leading or trailing prose. It takes the span from the first '{' to
// the last '}' inclusive; no partial recovery or repair is attempted.
func ExtractJSON(response string) (json.RawMessage, error) {
	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start < 0 || end < start {
		return nil, apperrors.ErrNoStructuredPayload
	}

	span := response[start : end+1]
	if !json.Valid([]byte(span)) {
		return nil, apperrors.ErrMalformedPayload
	}
	return json.RawMessage(span), nil
}

// ParseJSONResponse extracts the JSON object from a response and unmarshals
// it into T.
func ParseJSONResponse[T any](response string) (T, json.RawMessage, error) {
	var result T

	raw, err := ExtractJSON(response)
	if err != nil {
		return result, nil, err
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return result, nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedPayload, err)
	}
	return result, raw, nil
}
