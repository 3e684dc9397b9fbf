package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Keys are the routing-calendar buckets an event is counted in.
type Keys struct {
	DateKey  string `json:"dateKey"`
	WeekKey  string `json:"weekKey"`
	MonthKey string `json:"monthKey"`
}

// Location resolves the router timezone, falling back to Chicago and then
// to a fixed UTC-6 offset when no zone database is available.
func Location(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		name = DefaultTimezone
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.FixedZone("CST", -6*60*60)
}

// KeysAt computes the date, ISO week and month keys of t in loc.
func KeysAt(t time.Time, loc *time.Location) Keys {
	local := t.In(loc)
	year, week := local.ISOWeek()
	return Keys{
		DateKey:  local.Format("2006-01-02"),
		WeekKey:  fmt.Sprintf("%d-W%02d", year, week),
		MonthKey: local.Format("2006-01"),
	}
}

// MinuteOfDay returns the minutes since local midnight of t in loc.
func MinuteOfDay(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// ParseClock converts "HH:MM" to minutes. Unreadable parts count as zero.
func ParseClock(v string) int {
	hh, mm, _ := strings.Cut(strings.TrimSpace(v), ":")
	h, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		h = 0
	}
	m, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil {
		m = 0
	}
	return h*60 + m
}
