package app

import (
	"time"

	"quizbot/internal/task/scheduler"
)

// Status is served on /healthz.
type Status struct {
	Status        string             `json:"status"`
	Source        string             `json:"source"`
	Chat          string             `json:"chat"`
	ThreadID      int                `json:"thread_id,omitempty"`
	CycleRunning  bool               `json:"cycle_running"`
	LastCycle     *CycleResult       `json:"last_cycle,omitempty"`
	LastPublishAt time.Time          `json:"last_publish_at,omitzero"`
	Scheduler     scheduler.Snapshot `json:"scheduler"`
}

// healthy is true while the scheduler is triggering. A failed cycle does not
// make the bot unhealthy; the next trigger may succeed.
func (a *App) healthy() bool {
	return a.sched.Snapshot().Running
}

func (a *App) health() (any, bool) {
	snap := a.sched.Snapshot()
	target := a.pub.Target()

	st := Status{
		Status:       "ok",
		Source:       a.provider.Name(),
		Chat:         target.Chat,
		ThreadID:     target.ThreadID,
		CycleRunning: a.cycleState.Busy(),
		Scheduler:    snap,
	}
	a.mu.Lock()
	if a.lastCycle != nil {
		c := *a.lastCycle
		st.LastCycle = &c
	}
	st.LastPublishAt = a.lastPublish
	a.mu.Unlock()

	if !snap.Running {
		st.Status = "stopped"
	}
	return st, snap.Running
}
