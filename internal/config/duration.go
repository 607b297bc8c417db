package config

import (
	"fmt"
	"strings"
	"time"

	"quizbot/internal/quiz"
)

// durationSetting parses a Go duration setting. Empty means zero; negative
// values are rejected.
func durationSetting(key, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &quiz.ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid duration %q, want e.g. 30s or 2m", raw)}
	}
	if d < 0 {
		return 0, &quiz.ConfigurationError{Key: key, Reason: "must not be negative"}
	}
	return d, nil
}

// durationOr is durationSetting with def replacing a zero or invalid value.
// Validate reports the invalid case; accessors only need a usable value.
func durationOr(key, raw string, def time.Duration) time.Duration {
	d, err := durationSetting(key, raw)
	if err != nil || d == 0 {
		return def
	}
	return d
}
