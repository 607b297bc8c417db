package quiz

import (
	"errors"
	"fmt"
)

// ErrValidation is matched (errors.Is) by every error Normalize and the
// sources return for a record that breaks the quiz contract.
var ErrValidation = errors.New("quiz validation failed")

var (
	ErrEmptyQuestion   = fmt.Errorf("%w: question cannot be empty", ErrValidation)
	ErrTooFewOptions   = fmt.Errorf("%w: quiz must have at least %d options", ErrValidation, MinOptions)
	ErrNoCorrectAnswer = fmt.Errorf("%w: no correct answer found", ErrValidation)
	ErrEmptySource     = fmt.Errorf("%w: source returned no quiz records", ErrValidation)
)

// EmptyOptionError reports an empty or whitespace-only option.
// Index is zero-based.
type EmptyOptionError struct {
	Index int
}

func (e *EmptyOptionError) Error() string {
	return fmt.Sprintf("%v: option %d cannot be empty", ErrValidation, e.Index+1)
}

func (e *EmptyOptionError) Is(target error) bool { return target == ErrValidation }

// CorrectOptionOutOfRangeError reports a correct option index that does not
// address one of the (possibly truncated) options.
type CorrectOptionOutOfRangeError struct {
	Index   int
	Options int
}

func (e *CorrectOptionOutOfRangeError) Error() string {
	if e.Options > MaxOptions && e.Index >= MaxOptions {
		return fmt.Sprintf("%v: correct option %d is beyond the %d option limit", ErrValidation, e.Index, MaxOptions)
	}
	return fmt.Sprintf("%v: invalid correct_option_id %d for %d options", ErrValidation, e.Index, e.Options)
}

func (e *CorrectOptionOutOfRangeError) Is(target error) bool { return target == ErrValidation }

// MissingFieldError reports a source payload without a required key.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("source data missing required field: %s", e.Field)
}

// ConfigurationError reports a missing or invalid setting needed by a source.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration error: %s must be set", e.Key)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// NoSingleAnswerQuestionError is returned when every attempt yielded a
// question with more than one correct answer.
type NoSingleAnswerQuestionError struct {
	Attempts int
}

func (e *NoSingleAnswerQuestionError) Error() string {
	return fmt.Sprintf("could not find a question with a single correct answer after %d attempts", e.Attempts)
}

// TransportError wraps a network or HTTP failure while fetching quiz data or
// publishing a poll.
type TransportError struct {
	Op  string // "fetch" | "publish"
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
