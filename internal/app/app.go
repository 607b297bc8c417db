package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"quizbot/internal/config"
	"quizbot/internal/observability/metrics"
	"quizbot/internal/observability/ops"
	"quizbot/internal/publisher"
	"quizbot/internal/quiz/source"
	"quizbot/internal/runtime/supervisor"
	"quizbot/internal/task/scheduler"
	kit "quizbot/internal/transport"
	telegram "quizbot/internal/transport/telegram/adapter"
	logx "quizbot/pkg/logx"
	"quizbot/pkg/systemd"
)

// Schedule names; also the trigger label of scheduled cycles.
const (
	ScheduleDaily = "daily"
	ScheduleDebug = "debug"
)

type App struct {
	cfg *config.Config

	log  logx.Logger
	logs *logx.Service

	provider source.Provider
	adapter  kit.Adapter
	pub      *publisher.Publisher

	metrics *metrics.Metrics
	sched   *scheduler.Service
	ops     *ops.Service
	tracer  trace.Tracer

	// cycleState is shared by every quiz schedule so cycles never overlap.
	cycleState *scheduler.RunState

	sup *supervisor.Supervisor

	mu          sync.Mutex
	lastCycle   *CycleResult
	lastPublish time.Time
}

func NewApp(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var logSvc *logx.Service
	log := o.log
	if log.IsZero() {
		var err error
		if logSvc, log, err = logx.New(cfg.LogConfig()); err != nil {
			return nil, err
		}
	}

	// sources and the Bot API share the traced client
	httpClient := source.NewHTTPClient(cfg.FetchTimeout())

	provider := o.provider
	if provider == nil {
		p, err := source.New(cfg.SourceConfig(), source.Deps{
			HTTP: httpClient,
			Log:  log.With(logx.String("comp", "source")),
		})
		if err != nil {
			return nil, err
		}
		provider = p
	}

	ad := o.sender
	if ad == nil {
		tg, err := telegram.New(telegram.Config{
			Token:  cfg.Telegram.Token,
			APIURL: cfg.Telegram.APIURL,
			HTTP:   httpClient,
		}, log.With(logx.String("comp", "telegram")))
		if err != nil {
			return nil, fmt.Errorf("telegram: %w", err)
		}
		ad = tg
	}

	pub, err := publisher.New(ad, cfg.Target(), log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	sched := scheduler.New(scheduler.Config{
		Timezone:       cfg.Schedule.Timezone,
		DefaultTimeout: cfg.CycleTimeout(),
	}, log.With(logx.String("comp", "scheduler")), scheduler.WithSkipHook(m.Skipped))

	a := &App{
		cfg:        cfg,
		log:        log.With(logx.String("comp", "app")),
		logs:       logSvc,
		provider:   provider,
		adapter:    ad,
		pub:        pub,
		metrics:    m,
		sched:      sched,
		tracer:     otel.Tracer("quizbot/internal/app"),
		cycleState: &scheduler.RunState{},
	}

	if addr := strings.TrimSpace(cfg.Ops.Addr); addr != "" {
		a.ops = ops.New(ops.Config{
			Addr:         addr,
			Token:        cfg.Ops.Token,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second, // pprof profile defaults to 30s
			IdleTimeout:  60 * time.Second,
		}, m.Registry(), a.health, log.With(logx.String("comp", "ops")))
	}
	return a, nil
}

// Metrics exposes the cycle metrics (ops server, tests).
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start registers the quiz schedules and starts triggering.
//
// Cancelling ctx does not stop the app; shutdown goes through Stop so an
// in-flight cycle can finish.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(context.WithoutCancel(ctx), supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	opt := scheduler.JobOptions{
		Overlap: scheduler.OverlapSkipIfRunning,
		Timeout: a.cfg.CycleTimeout(),
		State:   a.cycleState,
	}
	if err := a.sched.AddDaily(ScheduleDaily, a.cfg.Schedule.PublishTime, opt, a.RunCycle); err != nil {
		return fmt.Errorf("schedule %s: %w", ScheduleDaily, err)
	}
	debug := a.cfg.DebugEnabled()
	if debug {
		if err := a.sched.AddInterval(ScheduleDebug, config.DebugInterval, opt, a.RunCycle); err != nil {
			return fmt.Errorf("schedule %s: %w", ScheduleDebug, err)
		}
		a.log.Warn("debug mode enabled, publishing on an interval", logx.Duration("every", config.DebugInterval))
	}

	a.sched.Start(a.sup.Context())

	if a.ops != nil {
		if err := a.ops.Start(a.sup.Context()); err != nil {
			return err
		}
		// a dead ops listener is fatal for the app
		a.sup.Go("ops", a.ops.Wait)
	}

	if iv := systemd.WatchdogInterval(); iv > 0 {
		a.sup.Go0("systemd.watchdog", func(c context.Context) {
			systemd.Watchdog(c, iv, a.healthy)
		})
	}

	target := a.pub.Target()
	a.log.Info("quiz bot started",
		logx.String("source", a.provider.Name()),
		logx.String("chat", target.Chat),
		logx.Int("thread_id", target.ThreadID),
		logx.String("publish_time", a.cfg.Schedule.PublishTime),
		logx.String("tz", a.sched.Location().String()),
		logx.Int("quizzes_per_cycle", a.cfg.Quiz.PerCycle),
		logx.Bool("debug", debug))

	if a.cfg.RunOnStart() {
		if err := a.sched.RunNow(ScheduleDaily); err != nil {
			a.log.Warn("run on start skipped", logx.Err(err))
		}
	}

	if ok, err := systemd.Ready(); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified ready")
	}
	return nil
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = systemd.Stopping()

	// Helper: run a shutdown step with an upper bound so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", max))

		stepCtx := ctx
		if max > 0 {
			// respect the caller's deadline; never extend it
			var cancel context.CancelFunc
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
			took := time.Since(start)
			if took >= 500*time.Millisecond {
				a.log.Info("stop step end", logx.String("name", name), logx.Duration("took", took))
			} else {
				a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", took))
			}
		case <-stepCtx.Done():
			// fn must honor stepCtx; report the leak if it does not
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Err(stepCtx.Err()),
				logx.Duration("elapsed", time.Since(start)))
			go func() {
				err := <-done
				a.log.Warn("stop step finished after deadline", logx.String("name", name), logx.Err(err), logx.Duration("took", time.Since(start)))
			}()
		}
	}

	// The scheduler goes first and gets the whole deadline: no new triggers,
	// and an in-flight cycle may finish its publish. Cancelling the app
	// supervisor before this would abort that cycle.
	step("scheduler", 0, a.sched.Stop)
	step("ops", 2*time.Second, func(c context.Context) error {
		if a.ops != nil {
			a.ops.Stop(c)
		}
		return nil
	})
	step("adapter", 2*time.Second, a.adapter.Stop)

	a.sup.Cancel()
	step("supervisor", 2*time.Second, a.sup.Wait)

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}
