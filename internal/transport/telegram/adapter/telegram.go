package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "quizbot/internal/transport"
	logx "quizbot/pkg/logx"
)

type Config struct {
	Token string
	// APIURL overrides the Bot API base url (tests, local bot api server).
	APIURL string
	// HTTP is used for Bot API calls. Nil means a client with a 30s timeout.
	HTTP *http.Client
	// Offline skips the getMe token check on construction.
	Offline bool
}

// Adapter publishes polls through the Telegram Bot API. It never polls for
// updates; the bot is send-only.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot

	mu       sync.Mutex
	stopped  bool
	inflight sync.WaitGroup
}

// ErrStopped is returned by SendPoll after Stop.
var ErrStopped = errors.New("telegram adapter stopped")

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	client := cfg.HTTP
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     cfg.APIURL,
		Token:   cfg.Token,
		Client:  client,
		Offline: cfg.Offline,
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, bot: b}
	if b.Me != nil && b.Me.Username != "" {
		log.Info("telegram bot authorized", logx.String("username", b.Me.Username))
	}
	return a, nil
}

// recipient lets a chat be addressed by @username as well as by numeric id.
type recipient string

func (r recipient) Recipient() string { return string(r) }

// SendPoll sends p as a quiz poll.
func (a *Adapter) SendPoll(ctx context.Context, to kit.ChatTarget, p kit.Poll) (kit.MessageRef, error) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return kit.MessageRef{}, ErrStopped
	}
	a.inflight.Add(1)
	a.mu.Unlock()
	defer a.inflight.Done()

	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return kit.MessageRef{}, err
		}
	}

	poll := &tele.Poll{
		Type:          tele.PollQuiz,
		Question:      p.Question,
		CorrectOption: p.CorrectOptionID,
		Explanation:   p.Explanation,
		Anonymous:     p.Anonymous,
	}
	for _, o := range p.Options {
		poll.Options = append(poll.Options, tele.PollOption{Text: o})
	}

	sendOpt := &tele.SendOptions{ThreadID: to.ThreadID}
	msg, err := a.bot.Send(recipient(to.Chat), poll, sendOpt)
	if err != nil {
		var flood tele.FloodError
		if errors.As(err, &flood) {
			a.log.Warn("telegram rate limited", logx.Int("retry_after_s", flood.RetryAfter))
		}
		return kit.MessageRef{}, err
	}

	ref := kit.MessageRef{Chat: to.Chat, ThreadID: to.ThreadID}
	if msg != nil {
		ref.MessageID = msg.ID
	}
	return ref, nil
}

// Stop rejects new sends and waits for in-flight ones until ctx is done.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.log.Info("telegram adapter stopped")
		return nil
	case <-ctx.Done():
		a.log.Warn("telegram stop timed out with sends in flight", logx.Err(ctx.Err()))
		return ctx.Err()
	}
}
