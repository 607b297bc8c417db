package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"quizbot/internal/runtime/supervisor"
	logx "quizbot/pkg/logx"
)

var (
	ErrNotRunning  = errors.New("scheduler not running")
	ErrUnknownJob  = errors.New("schedule not found")
	ErrOverlapSkip = errors.New("run skipped due to overlap policy")
)

// Config controls the scheduler service.
type Config struct {
	Timezone string // IANA TZ, e.g. "Europe/Chisinau"; empty means Local
	// DefaultTimeout bounds one job run when JobOptions.Timeout is 0.
	// 0 means no timeout.
	DefaultTimeout time.Duration
}

type OverlapPolicy int

const (
	OverlapSkipIfRunning OverlapPolicy = iota
	OverlapAllow
)

type JobOptions struct {
	Overlap OverlapPolicy
	Timeout time.Duration
	// State gates overlap. Nil gives the schedule its own state.
	State *RunState
}

// RunState tracks whether a job guarded by it is in flight.
type RunState struct {
	mu       sync.Mutex
	inflight int
}

func (s *RunState) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight > 0 {
		return false
	}
	s.inflight++
	return true
}

func (s *RunState) release() {
	s.mu.Lock()
	if s.inflight > 0 {
		s.inflight--
	}
	s.mu.Unlock()
}

// Busy reports whether a guarded job is running.
func (s *RunState) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Job is the unit of work a schedule fires. trigger names the schedule or
// "manual" for RunNow.
type Job func(ctx context.Context, trigger string) error

type scheduleDef struct {
	name    string
	spec    string
	job     Job
	opt     JobOptions
	entryID cron.EntryID

	// guarded by Service.mu
	runs     uint64
	skips    uint64
	lastRun  time.Time
	lastErr  string
	lastTook time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithSkipHook is called (synchronously) for every skipped firing.
func WithSkipHook(fn func(name string)) Option {
	return func(s *Service) { s.onSkip = fn }
}

type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config
	loc *time.Location

	parser cron.Parser
	c      *cron.Cron
	sup    *supervisor.Supervisor
	defs   []*scheduleDef

	onSkip func(name string)

	skipMu       sync.Mutex
	lastSkipWarn map[string]time.Time
}

type ScheduleInfo struct {
	Name     string        `json:"name"`
	Spec     string        `json:"spec"`
	Next     time.Time     `json:"next"`
	Prev     time.Time     `json:"prev"`
	Runs     uint64        `json:"runs"`
	Skips    uint64        `json:"skips"`
	LastRun  time.Time     `json:"last_run"`
	LastTook time.Duration `json:"last_took"`
	LastErr  string        `json:"last_err,omitempty"`
}

type Snapshot struct {
	Running   bool                `json:"running"`
	Timezone  string              `json:"timezone"`
	Schedules []ScheduleInfo      `json:"schedules"`
	Jobs      supervisor.Snapshot `json:"jobs"`
}
