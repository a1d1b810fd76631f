package rnc

import "time"

// ResponseWindowDays is the supplier response window of a notice.
const ResponseWindowDays = 7

type DeadlineLevel string

const (
	DeadlineNone    DeadlineLevel = "none"
	DeadlineWarning DeadlineLevel = "warning"
	DeadlineUrgent  DeadlineLevel = "urgent"
	DeadlineOverdue DeadlineLevel = "overdue"
)

type Deadline struct {
	Start         time.Time
	Due           time.Time
	DaysElapsed   int
	DaysRemaining int
	Level         DeadlineLevel
}

// DaysElapsed counts whole calendar days between the midnights of start and
// now in loc. Same day is 0.
func DaysElapsed(start time.Time, now time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	s := start.In(loc)
	n := now.In(loc)
	startDay := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	nowDay := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return int(nowDay.Sub(startDay) / (24 * time.Hour))
}

func RemainingDays(elapsed int) int {
	if remaining := ResponseWindowDays - elapsed; remaining > 0 {
		return remaining
	}
	return 0
}

func LevelFor(elapsed int) DeadlineLevel {
	switch {
	case elapsed > ResponseWindowDays:
		return DeadlineOverdue
	case elapsed == ResponseWindowDays:
		return DeadlineUrgent
	case elapsed >= ResponseWindowDays-2:
		return DeadlineWarning
	default:
		return DeadlineNone
	}
}

// DeadlineFor returns the response deadline of n, or false when the notice
// is not deadline-tracked.
func DeadlineFor(n Notice, now time.Time, loc *time.Location) (Deadline, bool) {
	if n.PrazoInicio == nil || !n.Status.DeadlineTracked() {
		return Deadline{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	start := n.PrazoInicio.In(loc)
	elapsed := DaysElapsed(start, now, loc)
	due := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, ResponseWindowDays)
	return Deadline{
		Start:         start,
		Due:           due,
		DaysElapsed:   elapsed,
		DaysRemaining: RemainingDays(elapsed),
		Level:         LevelFor(elapsed),
	}, true
}
