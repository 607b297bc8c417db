package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"quizbot/internal/quiz"
	logx "quizbot/pkg/logx"
	"quizbot/pkg/systemd"
)

const (
	stageFetch     = "fetch"
	stageNormalize = "normalize"
	stagePublish   = "publish"
)

// CycleResult summarizes the last finished cycle.
type CycleResult struct {
	RunID     string        `json:"run_id"`
	Trigger   string        `json:"trigger"`
	StartedAt time.Time     `json:"started_at"`
	Took      time.Duration `json:"took"`
	Published int           `json:"published"`
	Err       string        `json:"err,omitempty"`
}

// RunCycle fetches, normalizes and publishes Quiz.PerCycle quizzes in turn.
// The first failure ends the cycle. Errors are logged and returned to the
// scheduler; they never stop the process or later triggers.
func (a *App) RunCycle(ctx context.Context, trigger string) error {
	runID := uuid.NewString()
	src := a.provider.Name()

	ctx, span := a.tracer.Start(ctx, "quiz.cycle", trace.WithAttributes(
		attribute.String("quiz.run_id", runID),
		attribute.String("quiz.trigger", trigger),
		attribute.String("quiz.source", src),
	))
	defer span.End()

	total := max(a.cfg.Quiz.PerCycle, 1)
	log := a.log.With(logx.String("run_id", runID), logx.String("trigger", trigger))
	log.Info("quiz cycle started", logx.String("source", src), logx.Int("quizzes", total))

	done := a.metrics.CycleStarted(trigger)
	start := time.Now()

	var (
		published int
		err       error
	)
	for i := range total {
		if err = a.publishOne(ctx, log.With(logx.Int("quiz", i+1))); err != nil {
			break
		}
		published++
	}

	res := CycleResult{
		RunID:     runID,
		Trigger:   trigger,
		StartedAt: start,
		Took:      time.Since(start),
		Published: published,
	}
	span.SetAttributes(attribute.Int("quiz.published", published))

	if err != nil {
		res.Err = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "cycle failed")
		done("error")
		log.Error("quiz cycle failed",
			logx.String("kind", errorKind(err)),
			logx.Int("published", published),
			logx.Int("quizzes", total),
			logx.Duration("took", res.Took),
			logx.Err(err))
	} else {
		done("ok")
		log.Info("quiz cycle finished", logx.Int("published", published), logx.Duration("took", res.Took))
	}

	a.mu.Lock()
	a.lastCycle = &res
	a.mu.Unlock()

	status := fmt.Sprintf("last %s cycle at %s: %d/%d published", trigger, start.Format(time.RFC3339), published, total)
	if err != nil {
		status += " (" + errorKind(err) + ")"
	}
	_, _ = systemd.Status(status)
	return err
}

func (a *App) publishOne(ctx context.Context, log logx.Logger) error {
	raw, err := a.provider.Fetch(ctx)
	if err != nil {
		a.metrics.Failed(stageFetch, errorKind(err))
		return fmt.Errorf("fetch quiz: %w", err)
	}

	poll, err := quiz.Normalize(raw)
	if err != nil {
		a.metrics.Failed(stageNormalize, errorKind(err))
		return fmt.Errorf("normalize quiz: %w", err)
	}
	if len(poll.Truncated) > 0 {
		a.metrics.Truncated(poll.Truncated)
		log.Warn("quiz shortened to fit telegram limits", logx.Strings("fields", poll.Truncated))
	}

	ref, err := a.pub.Publish(ctx, poll)
	if err != nil {
		a.metrics.Failed(stagePublish, errorKind(err))
		return err
	}

	now := time.Now()
	a.metrics.Published(a.provider.Name(), now)
	a.mu.Lock()
	a.lastPublish = now
	a.mu.Unlock()
	log.Debug("quiz delivered", logx.Int("message_id", ref.MessageID))
	return nil
}

// errorKind classifies err for the errors_total metric and logs.
func errorKind(err error) string {
	var (
		missing  *quiz.MissingFieldError
		cfgErr   *quiz.ConfigurationError
		noSingle *quiz.NoSingleAnswerQuestionError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &missing):
		return "missing_field"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &noSingle):
		return "no_single_answer"
	case errors.Is(err, quiz.ErrValidation):
		return "validation"
	case quiz.IsTransport(err):
		return "transport"
	default:
		return "other"
	}
}
