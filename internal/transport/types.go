// Package transport holds the chat-platform neutral types the publisher sends
// through. The Telegram implementation lives in transport/telegram/adapter.
package transport

import (
	"context"
	"strconv"
	"strings"
)

// ChatTarget addresses one chat, optionally a forum topic inside it.
type ChatTarget struct {
	// Chat is a numeric chat id ("-1001234567890") or a public "@username".
	Chat     string
	ThreadID int // 0 if none
}

// ParseChat validates a chat reference. Numeric ids and @usernames are accepted.
func ParseChat(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if strings.HasPrefix(s, "@") {
		return s, len(s) > 1 && !strings.ContainsAny(s, " \t")
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return "", false
	}
	return s, true
}

type MessageRef struct {
	Chat      string
	ThreadID  int
	MessageID int
}

// Poll is an already normalized quiz poll.
type Poll struct {
	Question        string
	Options         []string
	CorrectOptionID int
	Explanation     string
	Anonymous       bool
}

// PollSender delivers quiz polls.
type PollSender interface {
	SendPoll(ctx context.Context, to ChatTarget, p Poll) (MessageRef, error)
}

// Adapter is a PollSender with a lifecycle.
type Adapter interface {
	PollSender
	Stop(ctx context.Context) error
}
