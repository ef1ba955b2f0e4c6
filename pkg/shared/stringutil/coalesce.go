package stringutil

import (
	"os"
	"strings"
)

// EnvOr returns the trimmed value of the environment variable if set, otherwise existing.
func EnvOr(existing, key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return existing
	}
	return value
}
