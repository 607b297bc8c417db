package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"quizbot/internal/quiz"
	logx "quizbot/pkg/logx"
)

// Categories is the QuizAPI category allow-list a random topic is drawn from.
var Categories = []string{
	"Linux",
	"bash",
	"uncategorized",
	"Docker",
	"SQL",
	"Code",
	"DevOps",
	"Postgres",
	"Apache Kafka",
}

// answerKeys are QuizAPI's answer slots, in display order.
// NOTE: relies on QuizAPI keeping the fixed a..f lettering.
var answerKeys = []string{"answer_a", "answer_b", "answer_c", "answer_d", "answer_e", "answer_f"}

const (
	// MaxAttempts bounds how many questions are fetched looking for one with
	// a single correct answer.
	MaxAttempts = 5

	noExplanation = "No explanation provided"
)

// errMultipleCorrect marks a question that is not known to have exactly one correct answer.
var errMultipleCorrect = fmt.Errorf("%w: more than one correct answer", quiz.ErrValidation)

// QuizAPI fetches questions from QuizAPI.io.
type QuizAPI struct {
	endpoint   string
	apiKey     string
	difficulty string
	limiter    *rate.Limiter
	deps       Deps
	log        logx.Logger
}

func NewQuizAPI(cfg Config, deps Deps) (*QuizAPI, error) {
	deps = deps.withDefaults()
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, &quiz.ConfigurationError{Key: "QUIZAPI_KEY"}
	}
	endpoint := strings.TrimSpace(cfg.APIEndpoint)
	if endpoint == "" {
		endpoint = DefaultAPIEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, &quiz.ConfigurationError{Key: "QUIZAPI_ENDPOINT", Reason: err.Error()}
	}
	difficulty := strings.TrimSpace(cfg.Difficulty)
	if difficulty == "" {
		difficulty = DefaultDifficulty
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}

	return &QuizAPI{
		endpoint:   endpoint,
		apiKey:     key,
		difficulty: difficulty,
		limiter:    limiter,
		deps:       deps,
		log:        deps.Log.With(logx.String("source", string(KindQuizAPI))),
	}, nil
}

func (q *QuizAPI) Name() string { return string(KindQuizAPI) }

// Fetch returns one single-answer question from a random category.
//
// Questions with several correct answers are skipped and another one is
// requested, up to MaxAttempts. Transport failures are returned immediately.
func (q *QuizAPI) Fetch(ctx context.Context) (quiz.RawQuiz, error) {
	category := Categories[q.deps.IntN(len(Categories))]
	q.log.Info("fetching quiz from quizapi", logx.String("category", category), logx.String("difficulty", q.difficulty))

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if err := q.limiter.Wait(ctx); err != nil {
			return quiz.RawQuiz{}, err
		}

		item, err := q.fetchOne(ctx, category)
		if err != nil {
			return quiz.RawQuiz{}, err
		}
		raw, err := item.toRaw()
		if errors.Is(err, errMultipleCorrect) {
			q.log.Info("question has multiple correct answers, fetching another",
				logx.String("flag", string(item.MultipleCorrectAnswers)),
				logx.Int("attempt", attempt), logx.Int("max_attempts", MaxAttempts))
			continue
		}
		if err != nil {
			return quiz.RawQuiz{}, err
		}
		return raw.Shuffle(q.deps.Shuffle)
	}
	return quiz.RawQuiz{}, &quiz.NoSingleAnswerQuestionError{Attempts: MaxAttempts}
}

func (q *QuizAPI) fetchOne(ctx context.Context, category string) (apiQuestion, error) {
	u, err := url.Parse(q.endpoint)
	if err != nil {
		return apiQuestion{}, err
	}
	params := u.Query()
	params.Set("limit", "1")
	params.Set("difficulty", q.difficulty)
	params.Set("category", category)
	u.RawQuery = params.Encode()

	req, err := http.NewRequest(http.MethodGet, u.String(), nil)
	if err != nil {
		return apiQuestion{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", q.apiKey)

	var items []apiQuestion
	if err := getJSON(ctx, q.deps.HTTP, req, &items); err != nil {
		return apiQuestion{}, err
	}
	if len(items) == 0 {
		return apiQuestion{}, quiz.ErrEmptySource
	}
	return items[0], nil
}

// apiQuestion is the subset of a QuizAPI question we use.
type apiQuestion struct {
	Question               string             `json:"question"`
	Answers                map[string]*string `json:"answers"`
	MultipleCorrectAnswers json.RawMessage    `json:"multiple_correct_answers"`
	CorrectAnswers         map[string]apiFlag `json:"correct_answers"`
	Explanation            *string            `json:"explanation"`
	Tip                    *string            `json:"tip"`
}

// singleAnswer is true only when multiple_correct_answers is explicitly
// "false" or false. Absent, null and unknown values are treated as multiple.
func (a apiQuestion) singleAnswer() bool {
	var s string
	if err := json.Unmarshal(a.MultipleCorrectAnswers, &s); err == nil {
		return strings.EqualFold(strings.TrimSpace(s), "false")
	}
	var v bool
	return json.Unmarshal(a.MultipleCorrectAnswers, &v) == nil && !v
}

// toRaw returns errMultipleCorrect unless the question is flagged single
// answer and exactly one non-empty slot is marked correct.
func (a apiQuestion) toRaw() (quiz.RawQuiz, error) {
	if !a.singleAnswer() {
		return quiz.RawQuiz{}, errMultipleCorrect
	}
	options := make([]string, 0, len(answerKeys))
	correct, marked := -1, 0
	for _, key := range answerKeys {
		text := a.Answers[key]
		if text == nil || *text == "" {
			continue
		}
		options = append(options, *text)
		if a.CorrectAnswers[key+"_correct"].True() {
			correct = len(options) - 1
			marked++
		}
	}
	if marked > 1 {
		return quiz.RawQuiz{}, errMultipleCorrect
	}
	if correct < 0 {
		return quiz.RawQuiz{}, quiz.ErrNoCorrectAnswer
	}

	explanation := noExplanation
	switch {
	case a.Explanation != nil && *a.Explanation != "":
		explanation = *a.Explanation
	case a.Tip != nil && *a.Tip != "":
		explanation = *a.Tip
	}

	return quiz.RawQuiz{
		Question:        a.Question,
		Options:         options,
		CorrectOptionID: correct,
		Explanation:     explanation,
	}, nil
}

// apiFlag accepts QuizAPI's stringly booleans ("true"/"false") as well as
// JSON booleans. Absent or null decodes as false.
type apiFlag bool

func (f *apiFlag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = false
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = apiFlag(strings.EqualFold(strings.TrimSpace(s), "true"))
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("quizapi flag: %w", err)
	}
	*f = apiFlag(v)
	return nil
}

func (f apiFlag) True() bool { return bool(f) }
