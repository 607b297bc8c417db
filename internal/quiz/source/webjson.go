package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"quizbot/internal/quiz"
	logx "quizbot/pkg/logx"
)

// requiredFields must be present in every static JSON record.
var requiredFields = []string{"question", "options", "correct_option_id", "explanation"}

// WebJSON picks a random quiz from a JSON array hosted on the web.
//
// Document format:
//
//	[{"question": "...", "options": ["a", "b"], "correct_option_id": 0, "explanation": "..."}]
type WebJSON struct {
	url  string
	deps Deps
	log  logx.Logger
}

func NewWebJSON(cfg Config, deps Deps) *WebJSON {
	deps = deps.withDefaults()
	url := strings.TrimSpace(cfg.JSONURL)
	if url == "" {
		url = DefaultJSONURL
	}
	return &WebJSON{
		url:  url,
		deps: deps,
		log:  deps.Log.With(logx.String("source", string(KindJSON))),
	}
}

func (w *WebJSON) Name() string { return string(KindJSON) }

func (w *WebJSON) Fetch(ctx context.Context) (quiz.RawQuiz, error) {
	w.log.Info("fetching quiz from json", logx.String("url", w.url))

	req, err := http.NewRequest(http.MethodGet, w.url, nil)
	if err != nil {
		return quiz.RawQuiz{}, fmt.Errorf("build request: %w", err)
	}

	var records []json.RawMessage
	if err := getJSON(ctx, w.deps.HTTP, req, &records); err != nil {
		return quiz.RawQuiz{}, err
	}
	if len(records) == 0 {
		return quiz.RawQuiz{}, quiz.ErrEmptySource
	}

	pick := w.deps.IntN(len(records))
	raw, err := decodeRecord(records[pick])
	if err != nil {
		return quiz.RawQuiz{}, fmt.Errorf("record %d: %w", pick, err)
	}

	shuffled, err := raw.Shuffle(w.deps.Shuffle)
	if err != nil {
		return quiz.RawQuiz{}, fmt.Errorf("record %d: %w", pick, err)
	}
	w.log.Debug("quiz selected", logx.Int("index", pick), logx.Int("total", len(records)))
	return shuffled, nil
}

// decodeRecord checks the required keys before decoding, so a missing key is
// reported by name instead of silently becoming a zero value.
func decodeRecord(b json.RawMessage) (quiz.RawQuiz, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return quiz.RawQuiz{}, fmt.Errorf("decode quiz record: %w", err)
	}
	for _, f := range requiredFields {
		if _, ok := keys[f]; !ok {
			return quiz.RawQuiz{}, &quiz.MissingFieldError{Field: f}
		}
	}

	var raw quiz.RawQuiz
	if err := json.Unmarshal(b, &raw); err != nil {
		return quiz.RawQuiz{}, fmt.Errorf("decode quiz record: %w", err)
	}
	return raw, nil
}
