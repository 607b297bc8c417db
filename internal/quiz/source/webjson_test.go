package source

import (
	"errors"
	"net/http"
	"reflect"
	"testing"

	"quizbot/internal/quiz"
)

const twoRecords = `[
  {"question": "first?", "options": ["a", "b"], "correct_option_id": 0, "explanation": "one"},
  {"question": "second?", "options": ["x", "y", "z"], "correct_option_id": 2, "explanation": "two"}
]`

func TestWebJSONFetchPicksRecord(t *testing.T) {
	t.Parallel()

	var seenURL string
	deps := testDeps(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seenURL = r.URL.String()
		return jsonResponse(http.StatusOK, twoRecords), nil
	}))
	deps.IntN = func(n int) int {
		if n != 2 {
			t.Errorf("IntN(%d), want 2", n)
		}
		return 1
	}

	src := NewWebJSON(Config{JSONURL: "https://example.test/q.json"}, deps)
	raw, err := src.Fetch(t.Context())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if seenURL != "https://example.test/q.json" {
		t.Fatalf("url = %q", seenURL)
	}
	want := quiz.RawQuiz{
		Question:        "second?",
		Options:         []string{"x", "y", "z"},
		CorrectOptionID: 2,
		Explanation:     "two",
	}
	if !reflect.DeepEqual(raw, want) {
		t.Fatalf("raw = %+v, want %+v", raw, want)
	}
}

func TestWebJSONFetchShufflesAndTracksAnswer(t *testing.T) {
	t.Parallel()

	deps := testDeps(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, twoRecords), nil
	}))
	// reverse
	deps.Shuffle = func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}
	deps.IntN = func(int) int { return 1 }

	raw, err := NewWebJSON(Config{JSONURL: "https://example.test/q.json"}, deps).Fetch(t.Context())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !reflect.DeepEqual(raw.Options, []string{"z", "y", "x"}) {
		t.Fatalf("options = %v", raw.Options)
	}
	if raw.CorrectOptionID != 0 {
		t.Fatalf("correct = %d, want 0", raw.CorrectOptionID)
	}
}

func TestWebJSONFetchMissingField(t *testing.T) {
	t.Parallel()

	cases := []struct {
		body  string
		field string
	}{
		{`[{"options": ["a","b"], "correct_option_id": 0, "explanation": "e"}]`, "question"},
		{`[{"question": "q", "correct_option_id": 0, "explanation": "e"}]`, "options"},
		{`[{"question": "q", "options": ["a","b"], "explanation": "e"}]`, "correct_option_id"},
		{`[{"question": "q", "options": ["a","b"], "correct_option_id": 0}]`, "explanation"},
	}
	for _, tc := range cases {
		deps := testDeps(roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, tc.body), nil
		}))
		_, err := NewWebJSON(Config{}, deps).Fetch(t.Context())
		var mf *quiz.MissingFieldError
		if !errors.As(err, &mf) {
			t.Fatalf("%s: err = %v, want MissingFieldError", tc.field, err)
		}
		if mf.Field != tc.field {
			t.Fatalf("field = %q, want %q", mf.Field, tc.field)
		}
	}
}

func TestWebJSONFetchEmptyArray(t *testing.T) {
	t.Parallel()

	deps := testDeps(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `[]`), nil
	}))
	_, err := NewWebJSON(Config{}, deps).Fetch(t.Context())
	if !errors.Is(err, quiz.ErrEmptySource) {
		t.Fatalf("err = %v, want ErrEmptySource", err)
	}
}

func TestWebJSONFetchNonOKStatus(t *testing.T) {
	t.Parallel()

	deps := testDeps(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `not found`), nil
	}))
	_, err := NewWebJSON(Config{}, deps).Fetch(t.Context())
	if !quiz.IsTransport(err) {
		t.Fatalf("err = %v, want TransportError", err)
	}
}

func TestWebJSONFetchNetworkError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	deps := testDeps(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	}))
	_, err := NewWebJSON(Config{}, deps).Fetch(t.Context())
	if !quiz.IsTransport(err) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestWebJSONFetchInvalidJSON(t *testing.T) {
	t.Parallel()

	deps := testDeps(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `not-json`), nil
	}))
	_, err := NewWebJSON(Config{}, deps).Fetch(t.Context())
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if quiz.IsTransport(err) {
		t.Fatalf("decode error should not be a transport error: %v", err)
	}
}
