// Package publisher sends normalized quizzes to the configured chat.
package publisher

import (
	"context"
	"errors"
	"time"

	"quizbot/internal/quiz"
	kit "quizbot/internal/transport"
	logx "quizbot/pkg/logx"
)

// Publisher sends one quiz poll per call. It does not retry.
type Publisher struct {
	sender kit.PollSender
	target kit.ChatTarget
	log    logx.Logger
}

func New(sender kit.PollSender, target kit.ChatTarget, log logx.Logger) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("publisher: nil sender")
	}
	if _, ok := kit.ParseChat(target.Chat); !ok {
		return nil, &quiz.ConfigurationError{Key: "CHANNEL_ID", Reason: "must be a numeric chat id or @username"}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Publisher{
		sender: sender,
		target: target,
		log:    log.With(logx.String("comp", "publisher")),
	}, nil
}

// Target returns the chat polls are sent to.
func (p *Publisher) Target() kit.ChatTarget { return p.target }

// Publish sends poll as an anonymous quiz. Failures are wrapped in
// *quiz.TransportError with Op "publish".
func (p *Publisher) Publish(ctx context.Context, poll quiz.Poll) (kit.MessageRef, error) {
	start := time.Now()
	ref, err := p.sender.SendPoll(ctx, p.target, kit.Poll{
		Question:        poll.Question,
		Options:         poll.Options,
		CorrectOptionID: poll.CorrectOptionID,
		Explanation:     poll.Explanation,
		Anonymous:       true,
	})
	if err != nil {
		p.log.Error("failed to publish quiz",
			logx.String("chat", p.target.Chat),
			logx.Int("thread_id", p.target.ThreadID),
			logx.Err(err))
		return kit.MessageRef{}, &quiz.TransportError{Op: "publish", Err: err}
	}
	p.log.Info("quiz published",
		logx.String("chat", ref.Chat),
		logx.Int("thread_id", ref.ThreadID),
		logx.Int("message_id", ref.MessageID),
		logx.Int("options", len(poll.Options)),
		logx.String("answer", poll.CorrectAnswer()),
		logx.Duration("took", time.Since(start)))
	return ref, nil
}
