package quiz

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Normalize validates raw and reshapes it to fit Telegram's quiz poll limits.
//
// Text that is too long is cut and suffixed with Ellipsis. Options beyond
// MaxOptions are dropped unless that would drop the correct answer, which is
// an error. The explanation always starts with the correct answer:
//
//	✓ <correct option>\n<source explanation>
func Normalize(raw RawQuiz) (Poll, error) {
	var truncated []string

	question := raw.Question
	if strings.TrimSpace(question) == "" {
		return Poll{}, ErrEmptyQuestion
	}
	if runeLen(question) > MaxQuestionLen {
		question = truncate(question, MaxQuestionLen)
		truncated = append(truncated, "question")
	}

	options := raw.Options
	if len(options) < MinOptions {
		return Poll{}, ErrTooFewOptions
	}
	if len(options) > MaxOptions {
		if raw.CorrectOptionID >= MaxOptions {
			return Poll{}, &CorrectOptionOutOfRangeError{Index: raw.CorrectOptionID, Options: len(options)}
		}
		options = options[:MaxOptions]
		truncated = append(truncated, "options")
	}

	trimmed := make([]string, 0, len(options))
	for i, opt := range options {
		if strings.TrimSpace(opt) == "" {
			return Poll{}, &EmptyOptionError{Index: i}
		}
		if runeLen(opt) > MaxOptionLen {
			opt = truncate(opt, MaxOptionLen)
			truncated = append(truncated, fmt.Sprintf("option[%d]", i))
		}
		trimmed = append(trimmed, opt)
	}

	correct := raw.CorrectOptionID
	if correct < 0 || correct >= len(trimmed) {
		return Poll{}, &CorrectOptionOutOfRangeError{Index: correct, Options: len(trimmed)}
	}

	explanation, cut := composeExplanation(trimmed[correct], raw.Explanation)
	if cut {
		truncated = append(truncated, "explanation")
	}

	return Poll{
		Question:        question,
		Options:         trimmed,
		CorrectOptionID: correct,
		Explanation:     explanation,
		Truncated:       truncated,
	}, nil
}

// composeExplanation builds "✓ answer\nexplanation" within MaxExplanationLen.
func composeExplanation(answer, source string) (string, bool) {
	prefix := CorrectMark + " " + answer + "\n"
	budget := MaxExplanationLen - runeLen(prefix)

	cut := false
	var out string
	if source != "" {
		if runeLen(source) > budget {
			source = truncate(source, budget)
			cut = true
		}
		out = prefix + source
	} else {
		out = strings.TrimRight(prefix, " \t\r\n")
	}

	if runeLen(out) > MaxExplanationLen {
		out = truncate(out, MaxExplanationLen)
		cut = true
	}
	return out, cut
}

// truncate cuts s to max runes, the last len(Ellipsis) of which are the
// ellipsis itself. Callers only pass strings longer than max.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	keep := max - len(Ellipsis)
	if keep <= 0 {
		return Ellipsis[:max]
	}
	n := 0
	for i := range s {
		if n == keep {
			return s[:i] + Ellipsis
		}
		n++
	}
	return s
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
