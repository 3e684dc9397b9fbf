package domain

import (
	"sort"
	"strings"
	"time"

	"leadops_backend/platform/ids"
)

const (
	EventAssigned      = "assigned"
	EventReassignedSLA = "reassigned_sla"

	ReasonEligibleRandom   = "eligible_random"
	ReasonEligibleBalanced = "eligible_balanced"
	ReasonOverflow         = "overflow"
	ReasonRouterDisabled   = "router_disabled"
	ReasonSLAReassign      = "sla_reassign"

	// MaxEvents is the retention window of the assignment log.
	MaxEvents = 5000
)

// Event is one immutable routing decision.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	DateKey       string    `json:"dateKey"`
	WeekKey       string    `json:"weekKey"`
	MonthKey      string    `json:"monthKey"`
	LeadID        string    `json:"leadId"`
	ExternalID    string    `json:"externalId"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	AssignedTo    string    `json:"assignedTo"`
	PreviousOwner string    `json:"previousOwner,omitempty"`
	Reason        string    `json:"reason"`
	Mode          string    `json:"mode"`
}

// Contact is the lead snapshot copied into an event.
type Contact struct {
	LeadID     string
	ExternalID string
	Name       string
	Email      string
	Phone      string
}

// NewEvent stamps an event of kind eventType at now.
func NewEvent(eventType string, c Contact, d Decision, now time.Time, loc *time.Location, rnd ids.RandomSource) Event {
	keys := KeysAt(now, loc)
	return Event{
		ID:         ids.Synthetic("evt", now, rnd),
		Type:       eventType,
		Timestamp:  now,
		DateKey:    keys.DateKey,
		WeekKey:    keys.WeekKey,
		MonthKey:   keys.MonthKey,
		LeadID:     c.LeadID,
		ExternalID: c.ExternalID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		AssignedTo: d.AssignedTo,
		Reason:     d.Reason,
		Mode:       d.Mode,
	}
}

// Truncate sorts events oldest first and keeps the newest MaxEvents.
func Truncate(events []Event) []Event {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	if len(events) > MaxEvents {
		events = append([]Event(nil), events[len(events)-MaxEvents:]...)
	}
	return events
}

// NewestFirst returns a copy of events ordered by descending timestamp.
func NewestFirst(events []Event) []Event {
	out := append([]Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// Count is an agent's assignment total per calendar bucket.
type Count struct {
	Today int `json:"today"`
	Week  int `json:"week"`
	Month int `json:"month"`
}

// Tally is everything the engine needs from the event log.
type Tally struct {
	Counts         map[string]Count
	Yesterday      map[string]int
	LastAssigned   string
	LastAssignedAt map[string]time.Time
}

// BuildTally derives per-agent counts from "assigned" events. The log is
// the only source of truth for caps, so a truncated day undercounts.
func BuildTally(agents []Agent, events []Event, now time.Time, loc *time.Location) Tally {
	keys := KeysAt(now, loc)
	yesterdayKey := KeysAt(now.Add(-24*time.Hour), loc).DateKey

	t := Tally{
		Counts:         make(map[string]Count, len(agents)),
		Yesterday:      make(map[string]int, len(agents)),
		LastAssignedAt: make(map[string]time.Time),
	}
	for _, a := range agents {
		t.Counts[a.Name] = Count{}
		t.Yesterday[a.Name] = 0
	}

	var lastAt time.Time
	for _, e := range events {
		if e.Type != EventAssigned {
			continue
		}
		owner := strings.TrimSpace(e.AssignedTo)
		if owner == "" {
			continue
		}
		c := t.Counts[owner]
		if e.DateKey == keys.DateKey {
			c.Today++
		}
		if e.WeekKey == keys.WeekKey {
			c.Week++
		}
		if e.MonthKey == keys.MonthKey {
			c.Month++
		}
		t.Counts[owner] = c
		if e.DateKey == yesterdayKey {
			t.Yesterday[owner]++
		}
		if prev, ok := t.LastAssignedAt[owner]; !ok || e.Timestamp.After(prev) {
			t.LastAssignedAt[owner] = e.Timestamp
		}
		if t.LastAssigned == "" || e.Timestamp.After(lastAt) {
			t.LastAssigned = owner
			lastAt = e.Timestamp
		}
	}
	return t
}

// Record adds one assignment to the in-memory tally so several decisions
// within one request respect caps.
func (t *Tally) Record(owner string, at time.Time) {
	c := t.Counts[owner]
	c.Today++
	c.Week++
	c.Month++
	t.Counts[owner] = c
	t.LastAssigned = owner
	t.LastAssignedAt[owner] = at
}
