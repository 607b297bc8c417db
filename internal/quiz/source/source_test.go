package source

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"testing"

	"quizbot/internal/quiz"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

// identityShuffle leaves options in place so tests can assert exact order.
func identityShuffle(int, func(i, j int)) {}

func testDeps(rt http.RoundTripper) Deps {
	return Deps{
		HTTP:    &http.Client{Transport: rt},
		Shuffle: identityShuffle,
		IntN:    func(int) int { return 0 },
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindJSON, false},
		{"json", KindJSON, false},
		{" JSON ", KindJSON, false},
		{"quizapi", KindQuizAPI, false},
		{"QuizAPI", KindQuizAPI, false},
		{"xml", "", true},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.wantErr {
			var ce *quiz.ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("ParseKind(%q) err = %v, want ConfigurationError", tc.in, err)
			}
			if ce.Key != "QUIZ_SOURCE" {
				t.Fatalf("ParseKind(%q) key = %q", tc.in, ce.Key)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseKind(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewSelectsProvider(t *testing.T) {
	t.Parallel()

	p, err := New(Config{Kind: KindJSON}, Deps{})
	if err != nil {
		t.Fatalf("New json: %v", err)
	}
	if p.Name() != "json" {
		t.Fatalf("Name = %q, want json", p.Name())
	}

	p, err = New(Config{Kind: KindQuizAPI, APIKey: "k"}, Deps{})
	if err != nil {
		t.Fatalf("New quizapi: %v", err)
	}
	if p.Name() != "quizapi" {
		t.Fatalf("Name = %q, want quizapi", p.Name())
	}
}

func TestNewQuizAPIRequiresKey(t *testing.T) {
	t.Parallel()

	p, err := New(Config{Kind: KindQuizAPI, APIKey: "  "}, Deps{})
	if p != nil {
		t.Fatalf("expected nil provider, got %T", p)
	}
	var ce *quiz.ConfigurationError
	if !errors.As(err, &ce) || ce.Key != "QUIZAPI_KEY" {
		t.Fatalf("err = %v, want QUIZAPI_KEY configuration error", err)
	}
}

func TestGetJSONRedactsQueryInTransportError(t *testing.T) {
	t.Parallel()

	deps := testDeps(roundTripperFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"error":"bad key"}`), nil
	}))
	req, _ := http.NewRequest(http.MethodGet, "https://example.test/api?apiKey=secret&limit=1", nil)

	var out any
	err := getJSON(t.Context(), deps.HTTP, req, &out)
	var te *quiz.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransportError", err)
	}
	if te.URL != "https://example.test/api" {
		t.Fatalf("URL = %q, want query stripped", te.URL)
	}
}
