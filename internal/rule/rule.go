// Package rule evaluates reminder conditions against a wall-clock instant.
//
// A condition is a short string embedded in page text. Supported forms, in
// match order:
//
//	2024-01-15 14:00        absolute, optionally ":SS", optionally "time " prefix
//	daily 08:30             every day at that time (second 00)
//	daily 08:30:15          every day at that exact second
//	every 30s / 5m / 2h     interval, aligned to the zero boundary of finer units
//
// Any other form never fires. Evaluation is pure: the same (condition, now)
// pair always yields the same answer, which keeps the scheduler trivially
// testable.
package rule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	offsetRe   = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([dhms])?`)
	intervalRe = regexp.MustCompile(`^(\d+)([smh])$`)
)

// Fires reports whether cond holds at now.
func Fires(cond string, now time.Time) bool {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return false
	}

	full := now.Format("2006-01-02 15:04")
	fullSec := now.Format("2006-01-02 15:04:05")
	hm := now.Format("15:04")
	hms := now.Format("15:04:05")
	sec := now.Second()

	// Absolute timestamps, with or without seconds and a "time " prefix.
	switch cond {
	case full, "time " + full, fullSec, "time " + fullSec:
		return true
	}

	if rest, ok := strings.CutPrefix(cond, "daily "); ok {
		t := strings.TrimSpace(rest)
		if t == hms {
			return true
		}
		// Minute-precision form fires only at second 00, otherwise the
		// notification would repeat 60 times within the minute.
		return t == hm && sec == 0
	}

	if rest, ok := strings.CutPrefix(cond, "every "); ok {
		m := intervalRe.FindStringSubmatch(strings.TrimSpace(rest))
		if m == nil {
			return false
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			return false
		}
		switch m[2] {
		case "s":
			return sec%n == 0
		case "m":
			return now.Minute()%n == 0 && sec == 0
		case "h":
			return now.Hour()%n == 0 && now.Minute() == 0 && sec == 0
		}
	}

	return false
}

// ParseOffset converts a lead-time string like "15m", "2h", "1.5d" into a
// duration. The unit defaults to minutes when omitted; unparseable input
// yields 0.
func ParseOffset(s string) time.Duration {
	s = strings.ToLower(strings.TrimSpace(s))
	m := offsetRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	num, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	unit := m[2]
	if unit == "" {
		unit = "m"
	}
	var per time.Duration
	switch unit {
	case "d":
		per = 24 * time.Hour
	case "h":
		per = time.Hour
	case "m":
		per = time.Minute
	case "s":
		per = time.Second
	}
	return time.Duration(num * float64(per))
}

// EventWindow reports whether now falls inside the lead-time window of an
// event starting at eventTime with the given offset string:
// eventTime-offset <= now < eventTime.
func EventWindow(eventTime time.Time, offset string, now time.Time) bool {
	d := ParseOffset(offset)
	if d <= 0 {
		return false
	}
	trigger := eventTime.Add(-d)
	return !now.Before(trigger) && now.Before(eventTime)
}

// ParseEventTime combines a calendar day and an HH:MM start time in the
// local timezone of now-processing.
func ParseEventTime(date, start string) (time.Time, error) {
	if strings.TrimSpace(start) == "" {
		return time.Time{}, fmt.Errorf("event has no start time")
	}
	return time.ParseInLocation("2006-01-02 15:04", date+" "+start, time.Local)
}
