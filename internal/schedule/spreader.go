package schedule

import (
	"time"

	"autopilot/internal/config"
)

// boundaryBuffer shrinks the spreading window so the last item never lands
// exactly on the next run's start.
const boundaryBuffer = 0.9

// Spreader computes publish timestamps for a batch of items across the run
// interval.
type Spreader struct {
	workHours config.WorkHoursConfig
}

// NewSpreader builds a spreader honoring an optional work-hours window.
func NewSpreader(workHours config.WorkHoursConfig) *Spreader {
	return &Spreader{workHours: workHours}
}

// Times returns one slot per item. The first slot is always nil (publish
// immediately); the rest are spread evenly across 90% of the run interval,
// capped to the remaining work-hours window today when one is active.
func (s *Spreader) Times(count int, interval time.Duration, now time.Time) []*time.Time {
	if count <= 1 {
		return []*time.Time{nil}
	}

	window := int64(interval.Seconds())
	if s.workHours.Enabled {
		remaining := RemainingWorkSeconds(now, s.workHours.Start, s.workHours.End)
		if remaining > 0 && remaining < window {
			window = remaining
		}
	}
	window = int64(float64(window) * boundaryBuffer)

	gap := window / int64(count)
	times := make([]*time.Time, count)
	for i := 1; i < count; i++ {
		t := now.Add(time.Duration(gap*int64(i)) * time.Second)
		times[i] = &t
	}
	return times
}

// RemainingWorkSeconds computes whole seconds left until the work-hours end
// today, handling windows that wrap past midnight (start > end). Elapsed
// minutes of the current hour are subtracted; the result is clamped to >= 0.
func RemainingWorkSeconds(now time.Time, start, end int) int64 {
	hour := now.Hour()
	minute := now.Minute()

	var remainingHours int
	if start <= end {
		remainingHours = end - hour
	} else if hour >= start {
		remainingHours = (24 - hour) + end
	} else {
		remainingHours = end - hour
	}

	remaining := int64(remainingHours)*3600 - int64(minute)*60
	if remaining < 0 {
		return 0
	}
	return remaining
}

// WithinWorkHours reports whether now falls inside the configured window.
// A disabled window always passes.
func WithinWorkHours(workHours config.WorkHoursConfig, now time.Time) bool {
	if !workHours.Enabled {
		return true
	}

	hour := now.Hour()
	if workHours.Start <= workHours.End {
		return hour >= workHours.Start && hour < workHours.End
	}
	return hour >= workHours.Start || hour < workHours.End
}
