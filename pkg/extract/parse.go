package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var fencedJSONRE = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

const maxRawInError = 200

// ResponseFormatError is returned when no JSON object can be located in the model output.
type ResponseFormatError struct {
	Raw string
	Err error
}

func (e *ResponseFormatError) Error() string {
	raw := e.Raw
	if len(raw) > maxRawInError {
		raw = raw[:maxRawInError] + "..."
	}
	return fmt.Sprintf("model response is not a JSON object: %v (response: %q)", e.Err, raw)
}

func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

var errNotObject = errors.New("decoded value is not an object")

// Parse extracts a JSON object from free-form model output. A ```json fenced block is
// preferred; otherwise the whole text is decoded. No repair is attempted.
func Parse(raw string) (map[string]any, error) {
	candidate := strings.TrimSpace(raw)
	if match := fencedJSONRE.FindStringSubmatch(raw); match != nil {
		candidate = match[1]
	}
	var value any
	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return nil, &ResponseFormatError{Raw: raw, Err: err}
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, &ResponseFormatError{Raw: raw, Err: errNotObject}
	}
	return obj, nil
}
