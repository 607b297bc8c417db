package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"quizbot/internal/quiz"
	"quizbot/internal/quiz/source"
	"quizbot/internal/task/scheduler"
	kit "quizbot/internal/transport"
	logx "quizbot/pkg/logx"
)

// Validate reports every invalid or missing setting.
func (c *Config) Validate() error {
	var errs []error
	add := func(key, reason string) {
		errs = append(errs, &quiz.ConfigurationError{Key: key, Reason: reason})
	}

	if strings.TrimSpace(c.Telegram.Token) == "" {
		add("BOT_TOKEN", "")
	}
	if strings.TrimSpace(c.Telegram.ChannelID) == "" {
		add("CHANNEL_ID", "")
	} else if _, ok := kit.ParseChat(c.Telegram.ChannelID); !ok {
		add("CHANNEL_ID", fmt.Sprintf("invalid value %q, want a numeric chat id or @username", c.Telegram.ChannelID))
	}
	if c.Telegram.ThreadID < 0 {
		add("THREAD_ID", "must be >= 0")
	}

	kind, err := source.ParseKind(c.Quiz.Source)
	if err != nil {
		errs = append(errs, err)
	}
	if kind == source.KindQuizAPI && strings.TrimSpace(c.Quiz.APIKey) == "" {
		add("QUIZAPI_KEY", "required when QUIZ_SOURCE is quizapi")
	}
	if c.Quiz.PerCycle < 1 || c.Quiz.PerCycle > MaxPerCycle {
		add("DAILY_QUIZZES", fmt.Sprintf("must be between 1 and %d", MaxPerCycle))
	}
	if _, err := durationSetting("FETCH_TIMEOUT", c.Quiz.FetchTimeout); err != nil {
		errs = append(errs, err)
	}
	if _, err := durationSetting("QUIZAPI_REQUEST_INTERVAL", c.Quiz.RequestInterval); err != nil {
		errs = append(errs, err)
	}

	if _, _, err := scheduler.ParseClock(c.Schedule.PublishTime); err != nil {
		add("PUBLISH_TIME", err.Error())
	}
	if tz := strings.TrimSpace(c.Schedule.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			add("TIMEZONE", err.Error())
		}
	}
	if _, err := durationSetting("CYCLE_TIMEOUT", c.Schedule.CycleTimeout); err != nil {
		errs = append(errs, err)
	}
	if _, err := durationSetting("SHUTDOWN_TIMEOUT", c.Schedule.ShutdownTimeout); err != nil {
		errs = append(errs, err)
	}

	if lvl := strings.TrimSpace(c.Logging.Level); lvl != "" && !logx.ValidLevel(lvl) {
		add("LOG_LEVEL", fmt.Sprintf("unknown level %q", lvl))
	}
	if !logx.ValidFormat(c.Logging.Format) {
		add("LOG_FORMAT", fmt.Sprintf("unknown format %q, want console or json", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// SourceKind is the validated source selector.
func (c *Config) SourceKind() source.Kind {
	k, _ := source.ParseKind(c.Quiz.Source)
	return k
}

func (c *Config) DebugEnabled() bool { return ParseBool(c.Schedule.Debug) }

func (c *Config) RunOnStart() bool { return ParseBool(c.Schedule.RunOnStart) }

func (c *Config) FetchTimeout() time.Duration {
	return durationOr("FETCH_TIMEOUT", c.Quiz.FetchTimeout, DefaultFetchTimeout)
}

// RequestInterval returns 0 when pacing is disabled with "0s".
func (c *Config) RequestInterval() time.Duration {
	d, _ := durationSetting("QUIZAPI_REQUEST_INTERVAL", c.Quiz.RequestInterval)
	return d
}

func (c *Config) CycleTimeout() time.Duration {
	return durationOr("CYCLE_TIMEOUT", c.Schedule.CycleTimeout, DefaultCycleTimeout)
}

func (c *Config) ShutdownTimeout() time.Duration {
	return durationOr("SHUTDOWN_TIMEOUT", c.Schedule.ShutdownTimeout, DefaultShutdownTimeout)
}

// Target is the chat quizzes are published to.
func (c *Config) Target() kit.ChatTarget {
	chat, _ := kit.ParseChat(c.Telegram.ChannelID)
	return kit.ChatTarget{Chat: chat, ThreadID: c.Telegram.ThreadID}
}

// SourceConfig maps the quiz section to the source package.
func (c *Config) SourceConfig() source.Config {
	return source.Config{
		Kind:            c.SourceKind(),
		JSONURL:         c.Quiz.JSONURL,
		APIKey:          c.Quiz.APIKey,
		APIEndpoint:     c.Quiz.APIEndpoint,
		Difficulty:      c.Quiz.Difficulty,
		RequestInterval: c.RequestInterval(),
	}
}

// LogConfig maps the logging section to logx.
func (c *Config) LogConfig() logx.Config {
	return logx.Config{
		Level:   c.Logging.Level,
		Format:  c.Logging.Format,
		Console: c.Logging.Console,
		File: logx.FileConfig{
			Enabled: strings.TrimSpace(c.Logging.File) != "",
			Path:    strings.TrimSpace(c.Logging.File),
		},
	}
}
