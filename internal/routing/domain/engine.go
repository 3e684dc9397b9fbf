package domain

import (
	"sort"
	"time"

	"leadops_backend/platform/ids"
)

// Decision is the engine's answer for one lead.
type Decision struct {
	AssignedTo string `json:"assignedTo"`
	Reason     string `json:"reason"`
	Mode       string `json:"mode"`
}

// Engine picks an owner for a new lead. The random source is injected so
// decisions are reproducible under test.
type Engine struct {
	rnd ids.RandomSource
}

// NewEngine creates an engine. A nil source uses the process default.
func NewEngine(rnd ids.RandomSource) *Engine {
	if rnd == nil {
		rnd = ids.Random
	}
	return &Engine{rnd: rnd}
}

// Decide assigns among eligible agents or falls back to the overflow agent.
// The overflow name is returned as configured, even when it is not on the
// roster.
func (e *Engine) Decide(s Settings, tally Tally, now time.Time) Decision {
	if !s.Enabled {
		return Decision{AssignedTo: s.OverflowAgent, Reason: ReasonRouterDisabled, Mode: s.Mode}
	}

	minute := MinuteOfDay(now, Location(s.Timezone))
	eligible := Eligible(s, tally, minute)
	if len(eligible) == 0 {
		return Decision{AssignedTo: s.OverflowAgent, Reason: ReasonOverflow, Mode: s.Mode}
	}

	if s.Mode == ModeBalanced {
		return Decision{AssignedTo: PickBalanced(eligible, tally).Name, Reason: ReasonEligibleBalanced, Mode: s.Mode}
	}
	return Decision{AssignedTo: eligible[e.rnd.Intn(len(eligible))].Name, Reason: ReasonEligibleRandom, Mode: s.Mode}
}

// Pick chooses among a pre-filtered eligible set using the settings mode.
func (e *Engine) Pick(s Settings, eligible []Agent, tally Tally) Agent {
	if s.Mode == ModeBalanced {
		return PickBalanced(eligible, tally)
	}
	return eligible[e.rnd.Intn(len(eligible))]
}

// Eligible filters the roster to active, unpaused agents inside their
// window (inclusive on both ends) and under every cap.
func Eligible(s Settings, tally Tally, minute int) []Agent {
	out := make([]Agent, 0, len(s.Agents))
	for _, a := range s.Agents {
		if !a.Active || a.Paused {
			continue
		}
		start := ParseClock(orDefault(a.WindowStart, "00:00"))
		end := ParseClock(orDefault(a.WindowEnd, "23:59"))
		if minute < start || minute > end {
			continue
		}
		c := tally.Counts[a.Name]
		if over(c.Today, a.dayCap(s.MaxPerDay)) ||
			over(c.Week, a.weekCap(s.MaxPerWeek)) ||
			over(c.Month, a.monthCap(s.MaxPerMonth)) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func over(count, limit int) bool {
	return limit > 0 && count >= limit
}

// PickBalanced prefers the fewest assignments today, then the fewest
// yesterday, then anyone but the last assignee, then the least recently
// assigned, then name order.
func PickBalanced(eligible []Agent, tally Tally) Agent {
	pool := lowest(eligible, func(a Agent) int { return tally.Counts[a.Name].Today })
	if len(pool) > 1 {
		pool = lowest(pool, func(a Agent) int { return tally.Yesterday[a.Name] })
	}
	if len(pool) > 1 && tally.LastAssigned != "" {
		without := make([]Agent, 0, len(pool))
		for _, a := range pool {
			if a.Name != tally.LastAssigned {
				without = append(without, a)
			}
		}
		if len(without) > 0 {
			pool = without
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		ti, tj := tally.LastAssignedAt[pool[i].Name], tally.LastAssignedAt[pool[j].Name]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return pool[i].Name < pool[j].Name
	})
	return pool[0]
}

func lowest(agents []Agent, score func(Agent) int) []Agent {
	best := -1
	for _, a := range agents {
		if v := score(a); best < 0 || v < best {
			best = v
		}
	}
	out := make([]Agent, 0, len(agents))
	for _, a := range agents {
		if score(a) == best {
			out = append(out, a)
		}
	}
	return out
}
