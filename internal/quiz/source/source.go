// Package source provides the quiz sources: a static JSON document and the
// QuizAPI.io service. Exactly one source is selected at startup.
package source

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"quizbot/internal/quiz"
	logx "quizbot/pkg/logx"
)

// Kind selects a source implementation.
type Kind string

const (
	KindJSON    Kind = "json"
	KindQuizAPI Kind = "quizapi"
)

const (
	DefaultJSONURL     = "https://raw.githubusercontent.com/devops-md/quiz-bot/refs/heads/main/questions.json"
	DefaultAPIEndpoint = "https://quizapi.io/api/v1/questions"
	DefaultDifficulty  = "hard"
)

// Provider supplies one raw quiz record per call.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (quiz.RawQuiz, error)
}

// Config is the source section mapped from the app config.
type Config struct {
	Kind Kind

	// Static JSON source.
	JSONURL string

	// QuizAPI source.
	APIKey      string
	APIEndpoint string
	Difficulty  string
	// RequestInterval paces QuizAPI attempts within one Fetch.
	// 0 disables pacing.
	RequestInterval time.Duration
}

// Deps are injected collaborators. Zero values get working defaults.
type Deps struct {
	HTTP    *http.Client
	Log     logx.Logger
	Shuffle quiz.Shuffler
	// IntN returns a uniform int in [0,n); used to pick records and categories.
	IntN func(n int) int
}

func (d Deps) withDefaults() Deps {
	if d.HTTP == nil {
		d.HTTP = NewHTTPClient(30 * time.Second)
	}
	if d.Log.IsZero() {
		d.Log = logx.Nop()
	}
	if d.Shuffle == nil {
		d.Shuffle = quiz.DefaultShuffler
	}
	if d.IntN == nil {
		d.IntN = rand.IntN
	}
	return d
}

// ParseKind maps a selector string (case-insensitive) to a Kind.
// An empty selector means KindJSON.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case "":
		return KindJSON, nil
	case KindJSON, KindQuizAPI:
		return k, nil
	default:
		return "", &quiz.ConfigurationError{
			Key:    "QUIZ_SOURCE",
			Reason: "invalid value " + strings.TrimSpace(raw) + ", must be 'json' or 'quizapi'",
		}
	}
}

// New builds the provider selected by cfg.Kind.
func New(cfg Config, deps Deps) (Provider, error) {
	deps = deps.withDefaults()
	kind, err := ParseKind(string(cfg.Kind))
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindQuizAPI:
		p, err := NewQuizAPI(cfg, deps)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return NewWebJSON(cfg, deps), nil
	}
}
