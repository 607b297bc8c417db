package scheduler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"quizbot/internal/runtime/supervisor"
	logx "quizbot/pkg/logx"
)

const skipWarnThrottle = 5 * time.Second

func New(cfg Config, log logx.Logger, opts ...Option) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		cfg: cfg,
		log: log,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser:       cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		lastSkipWarn: map[string]time.Time{},
	}
	for _, o := range opts {
		o(s)
	}
	s.loc = loadLocation(cfg.Timezone, log)
	return s
}

// Location is the timezone schedules are evaluated in.
func (s *Service) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

// Start starts cron triggering. Jobs run under a supervisor derived from ctx.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}

	s.sup = supervisor.New(ctx, supervisor.WithLogger(s.log))
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(s.loc))
	for _, d := range s.defs {
		if err := s.addCronLocked(d); err != nil {
			s.log.Error("schedule register failed", logx.String("name", d.name), logx.String("spec", d.spec), logx.Err(err))
		}
	}
	s.c.Start()
	s.log.Info("service started", logx.String("tz", s.loc.String()), logx.Int("schedules", len(s.defs)))
}

// Stop stops triggering first, then waits for in-flight jobs until ctx is
// done. Jobs still running at that point have their context cancelled.
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.log.Info("stop requested")

	s.mu.Lock()
	c, sup := s.c, s.sup
	s.c, s.sup = nil, nil
	s.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	if sup == nil {
		return nil
	}

	err := sup.Wait(ctx)
	sup.Cancel()
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.log.Warn("jobs still running at stop deadline, cancelled", logx.Int64("active", sup.Snapshot().Active))
		return err
	}
	s.log.Info("service stopped", logx.Duration("took", time.Since(start)))
	return nil
}

func (s *Service) addCronLocked(d *scheduleDef) error {
	eid, err := s.c.AddJob(d.spec, cron.FuncJob(func() {
		_ = s.fire(d, d.name)
	}))
	if err != nil {
		return err
	}
	d.entryID = eid
	return nil
}

// fire applies the overlap policy and hands the run to the supervisor.
func (s *Service) fire(d *scheduleDef, trigger string) error {
	s.mu.Lock()
	if s.sup == nil || s.sup.Context().Err() != nil {
		s.mu.Unlock()
		return ErrNotRunning
	}

	gated := d.opt.Overlap == OverlapSkipIfRunning
	if gated && !d.opt.State.tryAcquire() {
		d.skips++
		s.mu.Unlock()
		s.reportSkip(d.name, trigger)
		return ErrOverlapSkip
	}

	s.sup.Go0("job:"+d.name, func(ctx context.Context) {
		if gated {
			defer d.opt.State.release()
		}
		s.run(ctx, d, trigger)
	})
	s.mu.Unlock()
	return nil
}

func (s *Service) run(ctx context.Context, d *scheduleDef, trigger string) {
	timeout := d.opt.Timeout
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	s.log.Debug("job started", logx.String("schedule", d.name), logx.String("trigger", trigger))
	err := d.job(ctx, trigger)
	took := time.Since(start)

	s.mu.Lock()
	d.runs++
	d.lastRun = start
	d.lastTook = took
	d.lastErr = ""
	if err != nil {
		d.lastErr = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("job finished with error", logx.String("schedule", d.name), logx.String("trigger", trigger), logx.Duration("took", took), logx.Err(err))
		return
	}
	s.log.Debug("job finished", logx.String("schedule", d.name), logx.String("trigger", trigger), logx.Duration("took", took))
}

func (s *Service) reportSkip(name, trigger string) {
	if s.onSkip != nil {
		s.onSkip(name)
	}

	now := time.Now()
	s.skipMu.Lock()
	last := s.lastSkipWarn[name]
	if !last.IsZero() && now.Sub(last) < skipWarnThrottle {
		s.skipMu.Unlock()
		s.log.Debug("schedule trigger skipped", logx.String("schedule", name), logx.String("trigger", trigger))
		return
	}
	s.lastSkipWarn[name] = now
	s.skipMu.Unlock()

	s.log.Warn("previous run still in progress, trigger skipped", logx.String("schedule", name), logx.String("trigger", trigger))
}

func loadLocation(tz string, log logx.Logger) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
