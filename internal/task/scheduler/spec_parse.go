package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseClock parses a 24h wall-clock time "H:MM" or "HH:MM".
func ParseClock(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	hs, ms, ok := strings.Cut(s, ":")
	if !ok || len(hs) < 1 || len(hs) > 2 || len(ms) != 2 || !digits(hs) || !digits(ms) {
		return 0, 0, fmt.Errorf("invalid time %q, expected H:MM", s)
	}
	h, _ := strconv.Atoi(hs)
	if h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, _ := strconv.Atoi(ms)
	if m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
