package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"quizbot/internal/quiz"
)

// UserAgent is sent with every source request.
var UserAgent = "quizbot/1.0"

// maxBodyBytes caps source payloads; the static question bank is well below this.
const maxBodyBytes = 8 << 20

// NewHTTPClient returns the client used by all sources.
// Requests are traced through otelhttp (a no-op without a tracer provider).
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// getJSON performs req and decodes the JSON body into out.
// Network failures and non-2xx statuses are returned as *quiz.TransportError.
func getJSON(ctx context.Context, client *http.Client, req *http.Request, out any) error {
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return &quiz.TransportError{Op: "fetch", URL: redactedURL(req), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &quiz.TransportError{
			Op:  "fetch",
			URL: redactedURL(req),
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", redactedURL(req), err)
	}
	return nil
}

// redactedURL drops the query string so credentials never reach logs.
func redactedURL(req *http.Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	u := *req.URL
	u.RawQuery = ""
	u.User = nil
	return u.String()
}
