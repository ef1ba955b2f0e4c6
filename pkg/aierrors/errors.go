package aierrors

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
)

// Reason is a coarse classification of provider failures, used for logging and user messages.
type Reason string

const (
	ReasonAuth          Reason = "auth"
	ReasonBilling       Reason = "billing"
	ReasonRateLimit     Reason = "rate_limit"
	ReasonTimeout       Reason = "timeout"
	ReasonOverload      Reason = "overload"
	ReasonModelNotFound Reason = "model_not_found"
	ReasonImage         Reason = "image"
	ReasonServer        Reason = "server"
	ReasonUnknown       Reason = "unknown"
)

const maxProviderMessageLength = 600

// Classify returns the most specific reason that matches the error.
func Classify(err error) Reason {
	switch {
	case err == nil:
		return ReasonUnknown
	case IsAuthError(err):
		return ReasonAuth
	case IsBillingError(err):
		return ReasonBilling
	case IsRateLimitError(err):
		return ReasonRateLimit
	case IsTimeoutError(err):
		return ReasonTimeout
	case IsOverloadedError(err):
		return ReasonOverload
	case IsModelNotFound(err):
		return ReasonModelNotFound
	case IsImageError(err):
		return ReasonImage
	case IsServerError(err):
		return ReasonServer
	default:
		return ReasonUnknown
	}
}

// ProviderMessage extracts the provider's own error text, falling back to the error string.
func ProviderMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			return truncate(msg)
		}
		if msg := parseJSONErrorMessage(apiErr.RawJSON()); msg != "" {
			return truncate(msg)
		}
	}
	msg := strings.TrimSpace(err.Error())
	if strings.HasPrefix(msg, "{") || strings.HasPrefix(msg, "[") {
		if parsed := parseJSONErrorMessage(msg); parsed != "" {
			msg = parsed
		}
	}
	return truncate(msg)
}

func truncate(msg string) string {
	if len(msg) > maxProviderMessageLength {
		return msg[:maxProviderMessageLength] + "..."
	}
	return msg
}

func statusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsRateLimitError checks if the error is a rate limit (429) error
func IsRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if strings.EqualFold(apiErr.Code, "rate_limit_exceeded") || apiErr.StatusCode == 429 {
			return true
		}
	}
	return ContainsAnyPattern(err, []string{
		"resource_exhausted",
		"quota exceeded",
		"usage limit",
	})
}

// IsServerError checks if the error is a server-side (5xx) error
func IsServerError(err error) bool {
	return statusCode(err) >= 500
}

// IsAuthError checks if the error is an authentication error.
func IsAuthError(err error) bool {
	if code := statusCode(err); code == 401 || code == 403 {
		return true
	}
	return ContainsAnyPattern(err, []string{
		"invalid api key",
		"invalid_api_key",
		"api key not valid",
		"unauthorized",
		"permission_denied",
	})
}

// IsModelNotFound checks if the error is a model not found (404) error
func IsModelNotFound(err error) bool {
	return statusCode(err) == 404
}

// IsBillingError checks if the error is a billing/payment error (402)
func IsBillingError(err error) bool {
	if statusCode(err) == 402 {
		return true
	}
	return ContainsAnyPattern(err, []string{
		"payment required",
		"insufficient credits",
		"billing",
	})
}

// IsOverloadedError checks if the error indicates the service is overloaded
func IsOverloadedError(err error) bool {
	if statusCode(err) == 503 {
		return true
	}
	return ContainsAnyPattern(err, []string{
		"overloaded",
		"service unavailable",
	})
}

// IsTimeoutError checks if the error is a timeout error
func IsTimeoutError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"timeout",
		"timed out",
		"deadline exceeded",
	})
}

// IsImageError checks if the error is related to image size or dimensions
func IsImageError(err error) bool {
	return ContainsAnyPattern(err, []string{
		"image exceeds",
		"image dimensions exceed",
		"image too large",
		"unable to process input image",
	})
}

// ContainsAnyPattern checks if the lowercased error message contains any of the given patterns.
func ContainsAnyPattern(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range patterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// parseJSONErrorMessage extracts a message from {"error": {...}}, [{"error": {...}}] or {"message": ...} payloads.
func parseJSONErrorMessage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	type errorBody struct {
		Message string `json:"message"`
		Status  string `json:"status"`
		Error   *struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	pick := func(body errorBody) string {
		if body.Error != nil && body.Error.Message != "" {
			return body.Error.Message
		}
		return body.Message
	}
	if strings.HasPrefix(raw, "[") {
		var list []errorBody
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			for _, item := range list {
				if msg := pick(item); msg != "" {
					return msg
				}
			}
		}
		return ""
	}
	var body errorBody
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return ""
	}
	return pick(body)
}
