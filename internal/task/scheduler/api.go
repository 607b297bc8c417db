package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	logx "quizbot/pkg/logx"
)

// AddCron registers job on a cron spec (5 or 6 fields, or a descriptor such
// as "@hourly"). Registering an existing name replaces it.
func (s *Service) AddCron(name, spec string, opt JobOptions, job Job) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name required")
	}
	if job == nil {
		return errors.New("job required")
	}
	if _, err := s.parser.Parse(spec); err != nil {
		return fmt.Errorf("schedule %s: invalid spec %q: %w", name, spec, err)
	}
	if opt.State == nil {
		opt.State = &RunState{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(name)
	d := &scheduleDef{name: name, spec: spec, job: job, opt: opt}
	s.defs = append(s.defs, d)
	if s.c != nil {
		if err := s.addCronLocked(d); err != nil {
			return err
		}
	}
	s.log.Info("schedule registered", logx.String("name", name), logx.String("spec", spec), logx.String("next", s.previewNextLocked(spec, 3)))
	return nil
}

// AddDaily fires job every day at atHMM ("8:55", "08:55") in the scheduler timezone.
func (s *Service) AddDaily(name, atHMM string, opt JobOptions, job Job) error {
	h, m, err := ParseClock(atHMM)
	if err != nil {
		return err
	}
	return s.AddCron(name, fmt.Sprintf("%d %d * * *", m, h), opt, job)
}

// AddInterval fires job every interval, first firing one interval after Start.
func (s *Service) AddInterval(name string, every time.Duration, opt JobOptions, job Job) error {
	if every <= 0 {
		return fmt.Errorf("schedule %s: interval must be > 0", name)
	}
	return s.AddCron(name, "@every "+every.String(), opt, job)
}

// RunNow fires the named schedule immediately, honoring its overlap policy.
// The run itself is asynchronous.
func (s *Service) RunNow(name string) error {
	s.mu.Lock()
	var d *scheduleDef
	for _, it := range s.defs {
		if it.name == name {
			d = it
			break
		}
	}
	s.mu.Unlock()
	if d == nil {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.fire(d, "manual")
}

// removeLocked drops an earlier registration of name. Call with s.mu held.
func (s *Service) removeLocked(name string) {
	n := 0
	for _, d := range s.defs {
		if d.name == name {
			if s.c != nil && d.entryID != 0 {
				s.c.Remove(d.entryID)
			}
			continue
		}
		s.defs[n] = d
		n++
	}
	s.defs = s.defs[:n]
}

// previewNextLocked lists the next n run times of spec. Call with s.mu held.
func (s *Service) previewNextLocked(spec string, n int) string {
	sched, err := s.parser.Parse(spec)
	if err != nil {
		return ""
	}
	t := time.Now().In(s.loc)
	var b strings.Builder
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.Format("2006-01-02 15:04:05 MST"))
	}
	return b.String()
}
