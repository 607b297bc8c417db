package config

import (
	"time"

	"quizbot/internal/quiz/source"
)

const (
	DefaultPublishTime     = "8:55"
	DefaultPerCycle        = 1
	MaxPerCycle            = 10
	DefaultFetchTimeout    = 30 * time.Second
	DefaultRequestInterval = time.Second
	DefaultCycleTimeout    = 5 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second

	// DebugInterval is the period of the debug trigger.
	DebugInterval = time.Minute
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Quiz: QuizConfig{
			Source:          string(source.KindJSON),
			JSONURL:         source.DefaultJSONURL,
			APIEndpoint:     source.DefaultAPIEndpoint,
			Difficulty:      source.DefaultDifficulty,
			PerCycle:        DefaultPerCycle,
			FetchTimeout:    DefaultFetchTimeout.String(),
			RequestInterval: DefaultRequestInterval.String(),
		},
		Schedule: ScheduleConfig{
			PublishTime:     DefaultPublishTime,
			CycleTimeout:    DefaultCycleTimeout.String(),
			ShutdownTimeout: DefaultShutdownTimeout.String(),
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
	}
}
