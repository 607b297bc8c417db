package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// Config selects the log sinks.
type Config struct {
	Level string
	// Format of the stdout sink: "console" (human readable, default) or
	// "json" (one object per line, for journald and log shippers).
	Format  string
	Console bool
	File    FileConfig
}

// FileConfig enables an append-only JSON log file.
type FileConfig struct {
	Enabled bool
	Path    string
}

// Service owns the sinks. Loggers derived from it write through whatever
// sinks are current.
type Service struct {
	mu   sync.Mutex
	file *os.File
	root atomic.Pointer[zerolog.Logger]

	stdout io.Writer
	format string
}

// New opens the sinks described by cfg. A log file that cannot be opened is
// an error; with no sink enabled, output goes to stdout.
func New(cfg Config) (*Service, Logger, error) {
	return newService(cfg, os.Stdout)
}

func init() {
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = timeFormat
}

func newService(cfg Config, stdout io.Writer) (*Service, Logger, error) {
	s := &Service{stdout: stdout, format: cfg.Format}
	writers := make([]io.Writer, 0, 2)
	if cfg.Console || !cfg.File.Enabled {
		writers = append(writers, s.stdoutWriter())
	}
	if cfg.File.Enabled {
		path := strings.TrimSpace(cfg.File.Path)
		if path == "" {
			path = "./quizbot.log"
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, Logger{}, fmt.Errorf("open log file %q: %w", path, err)
		}
		s.file = f
		writers = append(writers, zerolog.SyncWriter(f))
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(cfg.Level)).
		With().Timestamp().Logger()
	s.root.Store(&zl)
	return s, Logger{svc: s}, nil
}

func (s *Service) stdoutWriter() io.Writer {
	if strings.EqualFold(strings.TrimSpace(s.format), "json") {
		return s.stdout
	}
	cw := zerolog.ConsoleWriter{Out: s.stdout, TimeFormat: timeFormat}
	cw.FormatCaller = func(i any) string {
		c, _ := i.(string)
		return c
	}
	return cw
}

func (s *Service) current() *zerolog.Logger {
	if zl := s.root.Load(); zl != nil {
		return zl
	}
	return &nop
}

// Logger returns a root logger bound to the service.
func (s *Service) Logger() Logger { return Logger{svc: s} }

// Close flushes and closes the log file. Later events go to stdout only.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	zl := zerolog.New(s.stdoutWriter()).Level(s.current().GetLevel()).With().Timestamp().Logger()
	s.root.Store(&zl)

	err := s.file.Close()
	s.file = nil
	return err
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ValidLevel reports whether s is empty or a level name New understands.
func ValidLevel(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return true
	}
	return false
}

// ValidFormat reports whether s is empty, "console" or "json".
func ValidFormat(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "console", "json":
		return true
	}
	return false
}
