package domain

import (
	"testing"
	"time"
)

type fixedRand struct{ n int }

func (r fixedRand) Intn(n int) int { return r.n % n }

func intp(v int) *int { return &v }

var chicago = Location("America/Chicago")

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, chicago)
}

func testSettings(names ...string) Settings {
	s := DefaultSettings(names, "Kimora Link")
	s.MaxPerDay = 0
	s.MaxPerWeek = 0
	s.MaxPerMonth = 0
	return s
}

func emptyTally(s Settings) Tally {
	return BuildTally(s.Agents, nil, at(12, 0), chicago)
}

func TestDecideRouterDisabled(t *testing.T) {
	s := testSettings("Jamal Holmes")
	s.Enabled = false

	d := NewEngine(fixedRand{}).Decide(s, emptyTally(s), at(12, 0))
	if d.AssignedTo != "Kimora Link" || d.Reason != ReasonRouterDisabled {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestDecideExcludesAgentOutsideWindow(t *testing.T) {
	s := testSettings("Jamal Holmes")
	s.OverflowAgent = "Overflow Person"

	d := NewEngine(fixedRand{}).Decide(s, emptyTally(s), at(22, 0))
	if d.Reason != ReasonOverflow || d.AssignedTo != "Overflow Person" {
		t.Fatalf("expected overflow at 22:00, got %+v", d)
	}

	d = NewEngine(fixedRand{}).Decide(s, emptyTally(s), at(21, 0))
	if d.AssignedTo != "Jamal Holmes" || d.Reason != ReasonEligibleRandom {
		t.Fatalf("window end is inclusive, got %+v", d)
	}
	d = NewEngine(fixedRand{}).Decide(s, emptyTally(s), at(9, 0))
	if d.AssignedTo != "Jamal Holmes" {
		t.Fatalf("window start is inclusive, got %+v", d)
	}
}

func TestDecideHonoursDailyCap(t *testing.T) {
	s := testSettings("Jamal Holmes", "Kelin Brown")
	s.Agents[0].CapPerDay = intp(2)

	engine := NewEngine(fixedRand{n: 0})
	var events []Event
	for i := 0; i < 6; i++ {
		now := at(10, i)
		tally := BuildTally(s.Agents, events, now, chicago)
		d := engine.Decide(s, tally, now)
		events = append(events, NewEvent(EventAssigned, Contact{LeadID: "l"}, d, now, chicago, fixedRand{}))
	}

	jamal := 0
	for _, e := range events {
		if e.AssignedTo == "Jamal Holmes" {
			jamal++
		}
	}
	if jamal != 2 {
		t.Fatalf("expected Jamal capped at 2, got %d", jamal)
	}

	tomorrow := at(10, 0).Add(24 * time.Hour)
	tally := BuildTally(s.Agents, events, tomorrow, chicago)
	if got := engine.Decide(s, tally, tomorrow); got.AssignedTo != "Jamal Holmes" {
		t.Fatalf("cap should reset on the next routing day, got %+v", got)
	}
}

func TestDecideGlobalCapAndZeroMeansUncapped(t *testing.T) {
	s := testSettings("Jamal Holmes")
	s.MaxPerDay = 1
	tally := emptyTally(s)
	tally.Counts["Jamal Holmes"] = Count{Today: 1}

	if d := NewEngine(nil).Decide(s, tally, at(12, 0)); d.Reason != ReasonOverflow {
		t.Fatalf("global cap should exclude, got %+v", d)
	}

	s.Agents[0].CapPerDay = intp(0)
	if d := NewEngine(nil).Decide(s, tally, at(12, 0)); d.AssignedTo != "Jamal Holmes" {
		t.Fatalf("agent cap 0 is uncapped, got %+v", d)
	}
}

func TestDecideAlwaysPicksRosterMemberOrOverflow(t *testing.T) {
	s := testSettings("A One", "B Two", "C Three")
	s.Agents[1].Paused = true
	s.Agents[2].Active = false

	for n := 0; n < 10; n++ {
		for hour := 0; hour < 24; hour++ {
			d := NewEngine(fixedRand{n: n}).Decide(s, emptyTally(s), at(hour, 30))
			if d.Reason == ReasonOverflow {
				if d.AssignedTo != s.OverflowAgent {
					t.Fatalf("overflow must use overflow agent, got %+v", d)
				}
				continue
			}
			if d.AssignedTo != "A One" {
				t.Fatalf("only A One is eligible, got %+v", d)
			}
		}
	}
}

func TestDecideEmptyRosterReturnsOverflowUnvalidated(t *testing.T) {
	s := testSettings()
	s.OverflowAgent = "Nobody Configured"
	d := NewEngine(nil).Decide(s, emptyTally(s), at(12, 0))
	if d.AssignedTo != "Nobody Configured" || d.Reason != ReasonOverflow {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestPickBalanced(t *testing.T) {
	agents := []Agent{NewAgent("Ann"), NewAgent("Bob"), NewAgent("Cid")}
	base := at(8, 0)
	tally := Tally{
		Counts:         map[string]Count{"Ann": {Today: 1}, "Bob": {Today: 0}, "Cid": {Today: 0}},
		Yesterday:      map[string]int{"Bob": 2, "Cid": 2},
		LastAssigned:   "Cid",
		LastAssignedAt: map[string]time.Time{"Bob": base, "Cid": base.Add(time.Minute)},
	}
	if got := PickBalanced(agents, tally); got.Name != "Bob" {
		t.Fatalf("expected Bob (Cid was last), got %s", got.Name)
	}

	tally.LastAssigned = ""
	tally.LastAssignedAt = map[string]time.Time{"Bob": base.Add(time.Hour), "Cid": base}
	if got := PickBalanced(agents, tally); got.Name != "Cid" {
		t.Fatalf("expected least recently assigned Cid, got %s", got.Name)
	}

	tally.Yesterday["Cid"] = 3
	if got := PickBalanced(agents, tally); got.Name != "Bob" {
		t.Fatalf("expected fewer-yesterday Bob, got %s", got.Name)
	}
}

func TestWithDefaultsNeverDropsAgents(t *testing.T) {
	defaults := DefaultSettings([]string{"Ann", "Bob"}, "Ann")
	raw := Settings{
		Enabled: true,
		Agents: []Agent{
			{Name: "Bob", Active: false, WindowStart: "10:00", WindowEnd: "18:00"},
			{Name: "Zed", Active: true},
		},
	}

	got := WithDefaults(raw, defaults)
	if len(got.Agents) != 3 {
		t.Fatalf("expected union of 3 agents, got %+v", got.Agents)
	}
	if got.Agents[0].Name != "Ann" || !got.Agents[0].Active {
		t.Errorf("default agent missing: %+v", got.Agents[0])
	}
	if got.Agents[1].Active || got.Agents[1].WindowStart != "10:00" {
		t.Errorf("persisted agent config lost: %+v", got.Agents[1])
	}
	if got.Agents[2].Name != "Zed" || got.Agents[2].WindowEnd != DefaultWindowEnd {
		t.Errorf("custom agent not defaulted: %+v", got.Agents[2])
	}
	if got.Mode != ModeRandom || got.Timezone != DefaultTimezone || got.OverflowAgent != "Ann" {
		t.Errorf("blank fields not defaulted: %+v", got)
	}
}

func TestTruncateKeepsNewest(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	events := make([]Event, 0, MaxEvents+10)
	for i := MaxEvents + 9; i >= 0; i-- {
		events = append(events, Event{ID: "e", Timestamp: base.Add(time.Duration(i) * time.Second)})
	}

	got := Truncate(events)
	if len(got) != MaxEvents {
		t.Fatalf("expected %d events, got %d", MaxEvents, len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(10*time.Second)) {
		t.Fatalf("oldest kept should be +10s, got %v", got[0].Timestamp)
	}
	if !got[len(got)-1].Timestamp.Equal(base.Add(time.Duration(MaxEvents+9) * time.Second)) {
		t.Fatalf("newest event dropped")
	}
}

func TestKeysAt(t *testing.T) {
	// 03:30 UTC on Jan 1 is still Dec 31 in Chicago.
	k := KeysAt(time.Date(2026, 1, 1, 3, 30, 0, 0, time.UTC), chicago)
	if k.DateKey != "2025-12-31" || k.MonthKey != "2025-12" || k.WeekKey != "2026-W01" {
		t.Fatalf("unexpected keys %+v", k)
	}
	if ParseClock("9:05") != 545 || ParseClock("bad") != 0 {
		t.Fatalf("ParseClock mismatch")
	}
}
