package domain

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

var requestedAtRegex = regexp.MustCompile(`(?i)^(\d{4}-\d{2}-\d{2})\s+(\d{1,2}):(\d{2})\s*(AM|PM)$`)

// ParseRequestedAt reads "YYYY-MM-DD h:mm AM/PM" as wall time in loc.
func ParseRequestedAt(value string, loc *time.Location) (time.Time, bool) {
	m := requestedAtRegex.FindStringSubmatch(strings.TrimSpace(value))
	if m == nil {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation("2006-01-02", m[1], loc)
	if err != nil {
		return time.Time{}, false
	}
	hour, _ := strconv.Atoi(m[2])
	minute, _ := strconv.Atoi(m[3])
	if hour < 1 || hour > 12 || minute > 59 {
		return time.Time{}, false
	}
	switch strings.ToUpper(m[4]) {
	case "PM":
		if hour != 12 {
			hour += 12
		}
	case "AM":
		if hour == 12 {
			hour = 0
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), true
}

const calendarStamp = "20060102T150405Z"

// CalendarLink builds a one-hour Google Calendar template link for the
// booked session, or "" when the requested time cannot be read.
func CalendarLink(b Booking, loc *time.Location) string {
	start, ok := ParseRequestedAt(b.RequestedAtEST, loc)
	if !ok {
		return ""
	}
	end := start.Add(time.Hour)

	applicant := strings.TrimSpace(b.ApplicantName)
	if applicant == "" {
		applicant = "Applicant"
	}
	referrer := strings.TrimSpace(b.ReferredBy)
	if referrer == "" {
		referrer = "Unknown"
	}
	details := strings.Join([]string{
		"Referral Owner: " + referrer,
		"This claim is for handling the booked application session only.",
		"Referral ownership does NOT transfer with this claim.",
	}, "\n")

	return "https://calendar.google.com/calendar/render?action=TEMPLATE" +
		"&text=" + url.QueryEscape("Sponsorship Application - "+applicant) +
		"&dates=" + start.UTC().Format(calendarStamp) + "/" + end.UTC().Format(calendarStamp) +
		"&details=" + url.QueryEscape(details)
}

var (
	confirmRegex   = regexp.MustCompile(`(?i)^\s*CONFIRM\b`)
	bookingIDRegex = regexp.MustCompile(`(?i)\b(book_[0-9]+)\b`)
	claimerRegex   = regexp.MustCompile(`(?i)^\s*CONFIRM\s+book_[0-9]+\s*-\s*([^\-\n]+)(?:-|$)`)
)

// Confirm is a parsed "CONFIRM book_<digits> - <Name> - ..." chat command.
type Confirm struct {
	BookingID string
	Claimer   string
}

// IsConfirm reports whether text starts with the CONFIRM keyword.
func IsConfirm(text string) bool {
	return confirmRegex.MatchString(text)
}

// ParseConfirm extracts the booking id and the free-text claimer name.
// Either may be empty; the caller falls back to the sender's name.
func ParseConfirm(text string) Confirm {
	var c Confirm
	if m := bookingIDRegex.FindStringSubmatch(text); m != nil {
		c.BookingID = strings.ToLower(m[1])
	}
	if m := claimerRegex.FindStringSubmatch(text); m != nil {
		c.Claimer = strings.TrimSpace(m[1])
	}
	return c
}
