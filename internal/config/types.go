package config

// Config is the bot configuration. Every key can come from the optional
// config file (JSON or YAML, see CONFIG_FILE) and is overridden by the
// environment variable named in its env tag.
//
// Durations are Go duration strings (e.g. "30s", "5m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Quiz     QuizConfig     `json:"quiz"`
	Schedule ScheduleConfig `json:"schedule"`
	Logging  LoggingConfig  `json:"logging"`
	Ops      OpsConfig      `json:"ops"`
}

type TelegramConfig struct {
	Token string `json:"token" env:"BOT_TOKEN"`
	// ChannelID is a numeric chat id or a public @username.
	ChannelID string `json:"channel_id" env:"CHANNEL_ID"`
	ThreadID  int    `json:"thread_id,omitempty" env:"THREAD_ID"`
	// APIURL overrides the Bot API base url (local bot api server).
	APIURL string `json:"api_url,omitempty" env:"TELEGRAM_API_URL"`
}

type QuizConfig struct {
	Source      string `json:"source" env:"QUIZ_SOURCE"` // json | quizapi
	JSONURL     string `json:"json_url,omitempty" env:"MCQ_URL"`
	APIKey      string `json:"api_key,omitempty" env:"QUIZAPI_KEY"`
	APIEndpoint string `json:"api_endpoint,omitempty" env:"QUIZAPI_ENDPOINT"`
	Difficulty  string `json:"difficulty,omitempty" env:"DIFFICULTY"`

	// PerCycle is how many quizzes one trigger publishes (1..10).
	PerCycle int `json:"per_cycle,omitempty" env:"DAILY_QUIZZES"`

	FetchTimeout string `json:"fetch_timeout,omitempty" env:"FETCH_TIMEOUT"`
	// RequestInterval paces QuizAPI requests within one fetch. "0s" disables.
	RequestInterval string `json:"request_interval,omitempty" env:"QUIZAPI_REQUEST_INTERVAL"`
}

type ScheduleConfig struct {
	// PublishTime is the daily wall-clock trigger, "H:MM" 24h.
	PublishTime string `json:"publish_time" env:"PUBLISH_TIME"`
	Timezone    string `json:"timezone,omitempty" env:"TIMEZONE"`

	// Debug and RunOnStart accept true/1/yes/y/on (case-insensitive);
	// anything else is false.
	Debug      string `json:"debug,omitempty" env:"DEBUG_MODE"`
	RunOnStart string `json:"run_on_start,omitempty" env:"RUN_ON_START"`

	CycleTimeout    string `json:"cycle_timeout,omitempty" env:"CYCLE_TIMEOUT"`
	ShutdownTimeout string `json:"shutdown_timeout,omitempty" env:"SHUTDOWN_TIMEOUT"`
}

type LoggingConfig struct {
	Level string `json:"level" env:"LOG_LEVEL"`
	// Format of stdout logs: console or json.
	Format  string `json:"format,omitempty" env:"LOG_FORMAT"`
	Console bool   `json:"console"`
	// File enables a JSON log file at this path when set.
	File string `json:"file,omitempty" env:"LOG_FILE"`
}

// OpsConfig controls the /healthz, /metrics and pprof server. Empty Addr disables it.
type OpsConfig struct {
	Addr  string `json:"addr,omitempty" env:"OPS_ADDR"`
	Token string `json:"token,omitempty" env:"OPS_TOKEN"` // do not log
}
