package scraper

import "time"

// Window is the UTC date range a run collects posts for.
type Window struct {
	Start time.Time
	End   time.Time
}

// PreviousDay returns the window covering the full calendar day before now,
// in UTC: [yesterday 00:00:00, yesterday 23:59:59].
func PreviousDay(now time.Time) Window {
	now = now.UTC()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Window{
		Start: midnight.AddDate(0, 0, -1),
		End:   midnight.Add(-time.Second),
	}
}

// Contains reports whether t falls inside the window, inclusive on both ends.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return w.Start.Format("2006-01-02 15:04:05") + " to " + w.End.Format("2006-01-02 15:04:05") + " UTC"
}
