// Package scheduler fires registered jobs on cron, daily and interval
// schedules (robfig/cron) in a configured timezone.
//
// Each firing runs on a supervised goroutine. Overlap is gated per RunState:
// with OverlapSkipIfRunning a firing that finds its RunState busy is skipped
// and logged, never queued. Several schedules may share one RunState so that
// at most one of them runs at a time.
package scheduler
