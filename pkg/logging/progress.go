package logging

import (
	"time"

	"github.com/kbase/workspace-usage/pkg/humanfmt"
	"github.com/rs/zerolog"
)

// ProgressTracker tracks progress over a set of workspaces with ETA
// calculation. The scan is strictly sequential, so no locking is needed.
type ProgressTracker struct {
	total     int64
	completed int64
	skipped   int64
	startTime time.Time

	// Moving average of recent workspace scan durations.
	recentDurations []time.Duration
	maxRecent       int
}

// NewProgressTracker creates a tracker for total items.
func NewProgressTracker(total int64) *ProgressTracker {
	return &ProgressTracker{
		total:           total,
		startTime:       time.Now(),
		recentDurations: make([]time.Duration, 0, 10),
		maxRecent:       10,
	}
}

// RecordCompletion records that an item completed with the given duration.
func (pt *ProgressTracker) RecordCompletion(d time.Duration) {
	pt.completed++
	if len(pt.recentDurations) >= pt.maxRecent {
		pt.recentDurations = pt.recentDurations[1:]
	}
	pt.recentDurations = append(pt.recentDurations, d)
}

// RecordSkip records that an item was skipped.
func (pt *ProgressTracker) RecordSkip() {
	pt.skipped++
}

// Progress returns current progress stats.
func (pt *ProgressTracker) Progress() (completed, skipped, total int64) {
	return pt.completed, pt.skipped, pt.total
}

// ProgressPct returns the progress percentage (0-100).
func (pt *ProgressTracker) ProgressPct() float64 {
	if pt.total == 0 {
		return 100.0
	}
	return float64(pt.completed+pt.skipped) * 100.0 / float64(pt.total)
}

// ETA returns the estimated time remaining based on average completion rate.
func (pt *ProgressTracker) ETA() time.Duration {
	if pt.completed == 0 {
		return 0
	}

	remaining := pt.total - pt.completed - pt.skipped
	if remaining <= 0 {
		return 0
	}

	// Use moving average if available, else overall average
	var avgDuration time.Duration
	if len(pt.recentDurations) > 0 {
		var sum time.Duration
		for _, d := range pt.recentDurations {
			sum += d
		}
		avgDuration = sum / time.Duration(len(pt.recentDurations))
	} else {
		avgDuration = time.Since(pt.startTime) / time.Duration(pt.completed)
	}

	return avgDuration * time.Duration(remaining)
}

// Elapsed returns time since tracking started.
func (pt *ProgressTracker) Elapsed() time.Duration {
	return time.Since(pt.startTime)
}

// WorkspaceStarted logs the start of one workspace scan. The logger is
// expected to already carry the ws field.
func WorkspaceStarted(log zerolog.Logger, objCount, done, total int64) {
	log.Info().
		Str("event", "workspace_started").
		Int64("objects", objCount).
		Int64("done", done).
		Int64("total", total).
		Msg("processing workspace")
}

// PageComplete logs one processed object-id page.
func PageComplete(log zerolog.Logger, start, end int64, objects, versions, counted int, elapsed time.Duration) {
	e := log.Info().
		Str("event", "page_completed").
		Int64("range_start", start).
		Int64("range_end", end).
		Int("objects", objects).
		Int("versions", versions).
		Int("counted", counted).
		Int64("duration_ms", elapsed.Milliseconds())
	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(elapsed))
	}
	e.Msg("page processed")
}

// WorkspaceComplete logs one finished workspace with overall scan progress.
func WorkspaceComplete(log zerolog.Logger, versions, bytes int64, elapsed time.Duration, pt *ProgressTracker) {
	completed, skipped, total := pt.Progress()
	e := log.Info().
		Str("event", "workspace_completed").
		Int64("versions", versions).
		Int64("bytes", bytes).
		Int64("duration_ms", elapsed.Milliseconds()).
		Int64("completed", completed).
		Int64("skipped", skipped).
		Int64("total", total)
	if total > 0 {
		e = e.Float64("progress_pct", pt.ProgressPct())
	}
	if eta := pt.ETA(); eta > 0 {
		e = e.Int64("eta_ms", eta.Milliseconds())
		if IsPrettyMode() {
			e = e.Str("eta_h", humanfmt.Duration(eta))
		}
	}
	if IsPrettyMode() {
		e = e.Str("bytes_h", humanfmt.Bytes(bytes)).
			Str("versions_h", humanfmt.Count(versions)).
			Str("duration_h", humanfmt.Duration(elapsed))
	}
	e.Msg("workspace processed")
}

// PhaseComplete logs a completed phase.
func PhaseComplete(log zerolog.Logger, phase string, elapsed time.Duration) {
	e := log.Info().
		Str("event", "phase_completed").
		Str("phase", phase).
		Int64("duration_ms", elapsed.Milliseconds())
	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(elapsed))
	}
	e.Msg("phase completed")
}
