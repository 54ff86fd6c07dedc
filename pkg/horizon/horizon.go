// Package horizon resolves named, relative time windows ("this week",
// "next 3 months") into concrete date intervals, and classifies funding
// deadlines into urgency tiers.
package horizon

import (
	"time"
)

// Token is a named horizon selectable in the filter UI.
type Token string

const (
	All         Token = "all"
	Today       Token = "today"
	ThisWeek    Token = "thisWeek"
	NextWeek    Token = "nextWeek"
	ThisMonth   Token = "thisMonth"
	NextMonth   Token = "nextMonth"
	Next3Months Token = "next3Months"
	Next6Months Token = "next6Months"
	Ongoing     Token = "ongoing"
	Upcoming    Token = "upcoming"
)

// Tokens lists every valid horizon token.
func Tokens() []Token {
	return []Token{All, Today, ThisWeek, NextWeek, ThisMonth, NextMonth,
		Next3Months, Next6Months, Ongoing, Upcoming}
}

// ParseToken validates a raw horizon string.
func ParseToken(s string) (Token, bool) {
	for _, t := range Tokens() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Window is a resolved horizon. Start and End are the local midnights of the
// first and last included day. Ongoing matches only records without a fixed
// date window; Unbounded matches everything.
type Window struct {
	Start     time.Time
	End       time.Time
	Ongoing   bool
	Unbounded bool
}

// Contains reports whether the given instant's day falls inside the window.
// Ongoing and unbounded windows have no interval and always report false and
// true respectively; callers handle the ongoing sentinel separately.
func (w Window) Contains(t time.Time) bool {
	if w.Unbounded {
		return true
	}
	if w.Ongoing {
		return false
	}
	day := Midnight(t)
	return !day.Before(w.Start) && !day.After(w.End)
}

// Midnight truncates t to local midnight.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Resolve computes the concrete window for a token, anchored at now's day.
func Resolve(tok Token, now time.Time) Window {
	today := Midnight(now)

	switch tok {
	case Today:
		return Window{Start: today, End: today}

	case ThisWeek:
		// Week starts Monday. Sunday counts as the last day of the running
		// week, not the first, hence the explicit special case.
		dow := int(today.Weekday()) // 0=Sunday .. 6=Saturday
		diff := dow - 1
		if dow == 0 {
			diff = 6
		}
		start := today.AddDate(0, 0, -diff)
		return Window{Start: start, End: start.AddDate(0, 0, 6)}

	case NextWeek:
		dow := int(today.Weekday())
		diff := 8 - dow
		if dow == 0 {
			diff = 1
		}
		start := today.AddDate(0, 0, diff)
		return Window{Start: start, End: start.AddDate(0, 0, 6)}

	case ThisMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return Window{Start: first, End: first.AddDate(0, 1, -1)}

	case NextMonth:
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location()).AddDate(0, 1, 0)
		return Window{Start: first, End: first.AddDate(0, 1, -1)}

	case Next3Months:
		return Window{Start: today, End: addMonthsClamped(today, 3)}

	case Next6Months:
		return Window{Start: today, End: addMonthsClamped(today, 6)}

	case Upcoming:
		return Window{Start: today, End: today.AddDate(0, 0, 6)}

	case Ongoing:
		return Window{Ongoing: true}

	default: // All and anything unrecognized: no constraint
		return Window{Unbounded: true}
	}
}

// addMonthsClamped increments the month field by n, clamping the day when the
// target month is shorter (Jan 31 + 1 month = Feb 28/29, not Mar 2/3).
func addMonthsClamped(t time.Time, n int) time.Time {
	months := int(t.Month()) - 1 + n
	year := t.Year() + months/12
	month := time.Month(months%12 + 1)

	day := t.Day()
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1).Day()
}
