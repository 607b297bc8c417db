package app

import (
	"quizbot/internal/quiz/source"
	kit "quizbot/internal/transport"
	logx "quizbot/pkg/logx"
)

// Option overrides a collaborator NewApp would otherwise build from config.
type Option func(*options)

type options struct {
	log      logx.Logger
	provider source.Provider
	sender   kit.Adapter
}

// WithLogger replaces the configured logging service.
func WithLogger(log logx.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithProvider replaces the configured quiz source.
func WithProvider(p source.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithSender replaces the Telegram adapter.
func WithSender(s kit.Adapter) Option {
	return func(o *options) { o.sender = s }
}
