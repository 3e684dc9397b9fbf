// Package domain holds the lead router's settings model, its assignment
// event log and the pure assignment decision. Nothing here performs I/O.
package domain

import "strings"

const (
	ModeRandom   = "random"
	ModeBalanced = "balanced"

	SLAActionReassign = "reassign"

	DefaultTimezone    = "America/Chicago"
	DefaultWindowStart = "09:00"
	DefaultWindowEnd   = "21:00"
	DefaultMaxPerDay   = 2
	DefaultMaxPerWeek  = 14
	DefaultMaxPerMonth = 60
	DefaultSLAMinutes  = 10
)

// Agent is one routable team member. A nil cap falls back to the global
// setting; a cap of 0 means uncapped.
type Agent struct {
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	Paused      bool   `json:"paused"`
	WindowStart string `json:"windowStart"`
	WindowEnd   string `json:"windowEnd"`
	CapPerDay   *int   `json:"capPerDay"`
	CapPerWeek  *int   `json:"capPerWeek"`
	CapPerMonth *int   `json:"capPerMonth"`
}

// Settings is the process-wide router configuration document.
type Settings struct {
	Enabled       bool    `json:"enabled"`
	Mode          string  `json:"mode"`
	MaxPerDay     int     `json:"maxPerDay"`
	MaxPerWeek    int     `json:"maxPerWeek"`
	MaxPerMonth   int     `json:"maxPerMonth"`
	Timezone      string  `json:"timezone"`
	OverflowAgent string  `json:"overflowAgent"`
	Agents        []Agent `json:"agents"`

	OutboundWebhookURL string `json:"outboundWebhookUrl"`
	OutboundToken      string `json:"outboundToken"`
	OutboundEnabled    bool   `json:"outboundEnabled"`

	SLAEnabled bool   `json:"slaEnabled"`
	SLAMinutes int    `json:"slaMinutes"`
	SLAAction  string `json:"slaAction"`
}

// DefaultSettings builds the settings used before anything is persisted.
func DefaultSettings(roster []string, overflowAgent string) Settings {
	agents := make([]Agent, 0, len(roster))
	for _, name := range roster {
		agents = append(agents, NewAgent(name))
	}
	return Settings{
		Enabled:       true,
		Mode:          ModeRandom,
		MaxPerDay:     DefaultMaxPerDay,
		MaxPerWeek:    DefaultMaxPerWeek,
		MaxPerMonth:   DefaultMaxPerMonth,
		Timezone:      DefaultTimezone,
		OverflowAgent: overflowAgent,
		Agents:        agents,
		SLAEnabled:    true,
		SLAMinutes:    DefaultSLAMinutes,
		SLAAction:     SLAActionReassign,
	}
}

// NewAgent returns an active agent with the default window and no caps.
func NewAgent(name string) Agent {
	return Agent{
		Name:        strings.TrimSpace(name),
		Active:      true,
		WindowStart: DefaultWindowStart,
		WindowEnd:   DefaultWindowEnd,
	}
}

// WithDefaults fills blanks in raw from defaults and merges the roster: the
// result lists every default agent followed by every additional persisted
// agent, so a merge never drops anyone. Persisted agent entries win over
// the default entry of the same name.
func WithDefaults(raw, defaults Settings) Settings {
	out := raw
	if strings.TrimSpace(out.Mode) == "" {
		out.Mode = defaults.Mode
	}
	if strings.TrimSpace(out.Timezone) == "" {
		out.Timezone = defaults.Timezone
	}
	if strings.TrimSpace(out.OverflowAgent) == "" {
		out.OverflowAgent = defaults.OverflowAgent
	}
	if out.SLAMinutes <= 0 {
		out.SLAMinutes = defaults.SLAMinutes
	}
	if strings.TrimSpace(out.SLAAction) == "" {
		out.SLAAction = defaults.SLAAction
	}

	persisted := make(map[string]Agent, len(raw.Agents))
	for _, a := range raw.Agents {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		if _, seen := persisted[name]; !seen {
			persisted[name] = a
		}
	}

	seen := make(map[string]struct{}, len(defaults.Agents)+len(raw.Agents))
	merged := make([]Agent, 0, len(defaults.Agents)+len(raw.Agents))
	add := func(base Agent) {
		name := strings.TrimSpace(base.Name)
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		a := base
		if p, ok := persisted[name]; ok {
			a = p
		}
		a.Name = name
		a.WindowStart = orDefault(a.WindowStart, DefaultWindowStart)
		a.WindowEnd = orDefault(a.WindowEnd, DefaultWindowEnd)
		merged = append(merged, a)
	}
	for _, a := range defaults.Agents {
		add(a)
	}
	for _, a := range raw.Agents {
		add(a)
	}
	out.Agents = merged
	return out
}

// Agent returns the named agent.
func (s Settings) Agent(name string) (Agent, bool) {
	for _, a := range s.Agents {
		if a.Name == name {
			return a, true
		}
	}
	return Agent{}, false
}

// HasAgent reports roster membership.
func (s Settings) HasAgent(name string) bool {
	_, ok := s.Agent(name)
	return ok
}

func (a Agent) dayCap(global int) int   { return capOr(a.CapPerDay, global) }
func (a Agent) weekCap(global int) int  { return capOr(a.CapPerWeek, global) }
func (a Agent) monthCap(global int) int { return capOr(a.CapPerMonth, global) }

func capOr(v *int, global int) int {
	if v == nil {
		return global
	}
	return *v
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
