/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// TimeRange builds range queries over an index keyed by time. Results come oldest first;
// call Reverse on the returned query for newest first.
type TimeRange[T any] struct {
	index Index[T]
	wrap  func(time.Time) T
	now   func() time.Time
}

// Times returns a TimeRange over an index keyed by time.Time.
func Times(index Index[time.Time]) TimeRange[time.Time] {
	return TimeRange[time.Time]{index: index, wrap: func(t time.Time) time.Time { return t }, now: time.Now}
}

// DateTimes returns a TimeRange over an index keyed by strfmt.DateTime.
func DateTimes(index Index[strfmt.DateTime]) TimeRange[strfmt.DateTime] {
	return TimeRange[strfmt.DateTime]{index: index, wrap: func(t time.Time) strfmt.DateTime { return strfmt.DateTime(t) }, now: time.Now}
}

// WithClock replaces the clock the relative windows are computed from.
func (r TimeRange[T]) WithClock(now func() time.Time) TimeRange[T] {
	r.now = now
	return r
}

// Since matches keys at or after t.
func (r TimeRange[T]) Since(t time.Time) Query[T] {
	return r.index.Geq(r.wrap(t))
}

// Before matches keys strictly before t.
func (r TimeRange[T]) Before(t time.Time) Query[T] {
	return r.index.Before(r.wrap(t))
}

// Between matches keys in [from, to).
func (r TimeRange[T]) Between(from, to time.Time) Query[T] {
	return r.index.Between(r.wrap(from), r.wrap(to.Add(-time.Nanosecond)))
}

// LastHours matches keys within the last n hours.
func (r TimeRange[T]) LastHours(n int) Query[T] {
	return r.Since(r.now().Add(-time.Duration(n) * time.Hour))
}

// LastDays matches keys within the last n days.
func (r TimeRange[T]) LastDays(n int) Query[T] {
	return r.Since(r.now().AddDate(0, 0, -n))
}

// Today matches keys of the current calendar day in the clock's location.
func (r TimeRange[T]) Today() Query[T] {
	start := startOfDay(r.now())
	return r.Between(start, start.AddDate(0, 0, 1))
}

// ThisWeek matches keys since Monday 00:00.
func (r TimeRange[T]) ThisWeek() Query[T] {
	now := r.now()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return r.Since(startOfDay(now.AddDate(0, 0, 1-weekday)))
}

// ThisMonth matches keys since the first day of the month.
func (r TimeRange[T]) ThisMonth() Query[T] {
	now := r.now()
	return r.Since(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
