package reconcile

import "time"

const dayKeyLayout = "2006-01-02"

// Day is one calendar day in the engine's zone.
// Start is the first instant of the day (normally 00:00, later when a DST
// jump skips midnight); End is 1ms before the next day's Start.
type Day struct {
	Start time.Time
	End   time.Time
}

// Key is the calendar date, used to join daily readings.
func (d Day) Key() string {
	return d.Start.Format(dayKeyLayout)
}

// DayOf returns the calendar day containing t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return dayAt(t.Year(), t.Month(), t.Day(), loc)
}

// DayOfDate returns the calendar day year-month-day in loc.
func DayOfDate(year int, month time.Month, day int, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return dayAt(year, month, day, loc)
}

// DayKey formats the calendar date of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dayKeyLayout)
}

// DateRange returns every calendar day from start's day to end's day, inclusive.
// Days are derived from the first day's date plus an offset, never by adding
// 24h, so DST transitions neither skip nor repeat a day.
// An inverted range yields no days.
func DateRange(start, end time.Time, loc *time.Location) []Day {
	if loc == nil {
		loc = time.UTC
	}
	if end.Before(start) {
		return nil
	}
	first := start.In(loc)
	last := DayOf(end, loc)

	var days []Day
	for i := 0; ; i++ {
		d := dayAt(first.Year(), first.Month(), first.Day()+i, loc)
		if d.Start.After(last.Start) {
			break
		}
		days = append(days, d)
	}
	return days
}

func dayAt(year int, month time.Month, day int, loc *time.Location) Day {
	start := startOfDay(year, month, day, loc)
	next := startOfDay(year, month, day+1, loc)
	return Day{
		Start: start,
		End:   next.Add(-time.Millisecond),
	}
}

// startOfDay is the first instant of the given date in loc. time.Date
// resolves a nonexistent local midnight to the previous day, so in that case
// the day starts where the zone offset in effect at noon begins.
func startOfDay(year int, month time.Month, day int, loc *time.Location) time.Time {
	noon := time.Date(year, month, day, 12, 0, 0, 0, loc)
	y, m, d := noon.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if sy, sm, sd := start.Date(); sy == y && sm == m && sd == d {
		return start
	}
	zoneStart, _ := noon.ZoneBounds()
	return zoneStart
}
