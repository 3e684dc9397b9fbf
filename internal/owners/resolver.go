// Package owners decides which agent a lead or referral belongs to. It
// canonicalizes free-text owner names through the reference alias tables
// and falls back to static overrides and the assignment history.
package owners

import (
	"context"
	"strings"

	leaddomain "leadops_backend/internal/leads/domain"
	"leadops_backend/internal/refdata"
	routingdomain "leadops_backend/internal/routing/domain"
	"leadops_backend/platform/phone"
	"leadops_backend/platform/sanitize"
)

// Resolution sources.
const (
	SourceHint          = "hint"
	SourceOverrideName  = "override_name"
	SourceOverrideEmail = "override_email"
	SourceOverridePhone = "override_phone"
	SourceEventLog      = "event_log"
	SourceFallback      = "fallback"
)

// History is the assignment log the resolver consults.
type History interface {
	Events(ctx context.Context) ([]routingdomain.Event, error)
}

// Subject is the contact being resolved.
type Subject struct {
	ExternalID string
	Name       string
	Email      string
	Phone      string
	Hint       string
}

// Resolution is the chosen owner and which rule produced it.
type Resolution struct {
	Owner  string `json:"owner"`
	Source string `json:"source"`
}

// Known reports whether a real owner was found.
func (r Resolution) Known() bool {
	return r.Source != SourceFallback
}

// Resolver applies hint, override and history rules in that order.
type Resolver struct {
	tables  *refdata.Tables
	history History
}

// NewResolver creates a resolver over the given tables and history.
func NewResolver(tables *refdata.Tables, history History) *Resolver {
	return &Resolver{tables: tables, history: history}
}

// Canonical maps a free-text owner name onto the roster: substring rules
// first, then the alias table, then a normalized roster match. Unknown
// names are returned trimmed; "Unknown"/"unassigned" read as empty.
func (r *Resolver) Canonical(name string) string {
	name = strings.TrimSpace(name)
	if !leaddomain.IsKnownOwner(name) {
		return ""
	}
	lower := strings.ToLower(name)
	for _, s := range r.tables.Substrings {
		if m := strings.ToLower(strings.TrimSpace(s.Match)); m != "" && strings.Contains(lower, m) {
			return s.Owner
		}
	}
	key := sanitize.NameKey(name)
	if owner, ok := r.tables.Aliases[key]; ok {
		return owner
	}
	for _, rostered := range r.tables.Roster {
		if sanitize.NameKey(rostered) == key {
			return rostered
		}
	}
	return name
}

// Resolve returns the owner for s. The error is non-nil only when the
// history could not be loaded; the resolution is still usable then.
func (r *Resolver) Resolve(ctx context.Context, s Subject) (Resolution, error) {
	if owner := r.Canonical(s.Hint); owner != "" {
		return Resolution{Owner: owner, Source: SourceHint}, nil
	}
	if res, ok := r.override(s); ok {
		return res, nil
	}

	events, err := r.loadHistory(ctx)
	if err != nil {
		return fallback(), err
	}
	return r.fromStored(s, routingdomain.NewestFirst(events)), nil
}

// ResolveStored applies only the override and history rules against a
// history already ordered newest first.
func (r *Resolver) ResolveStored(s Subject, newestFirst []routingdomain.Event) Resolution {
	return r.fromStored(s, newestFirst)
}

func (r *Resolver) fromStored(s Subject, newestFirst []routingdomain.Event) Resolution {
	if res, ok := r.override(s); ok {
		return res
	}
	if res, ok := r.fromHistory(s, newestFirst); ok {
		return res
	}
	return fallback()
}

func (r *Resolver) loadHistory(ctx context.Context) ([]routingdomain.Event, error) {
	if r.history == nil {
		return nil, nil
	}
	return r.history.Events(ctx)
}

// override checks every entry by name, then every entry by email, then by
// phone digits.
func (r *Resolver) override(s Subject) (Resolution, bool) {
	name := sanitize.NameKey(s.Name)
	email := sanitize.EmailKey(s.Email)
	digits := phone.Digits(s.Phone)

	checks := []struct {
		value  string
		source string
		key    func(refdata.Override) string
	}{
		{name, SourceOverrideName, func(o refdata.Override) string { k, _, _ := o.OverrideKeys(); return k }},
		{email, SourceOverrideEmail, func(o refdata.Override) string { _, k, _ := o.OverrideKeys(); return k }},
		{digits, SourceOverridePhone, func(o refdata.Override) string { _, _, k := o.OverrideKeys(); return k }},
	}
	for _, check := range checks {
		if check.value == "" {
			continue
		}
		for _, o := range r.tables.Overrides {
			if check.key(o) == check.value {
				if owner := r.Canonical(o.Owner); owner != "" {
					return Resolution{Owner: owner, Source: check.source}, true
				}
			}
		}
	}
	return Resolution{}, false
}

func (r *Resolver) fromHistory(s Subject, newestFirst []routingdomain.Event) (Resolution, bool) {
	externalID := strings.TrimSpace(s.ExternalID)
	email := sanitize.EmailKey(s.Email)
	digits := phone.Digits(s.Phone)
	name := sanitize.NameKey(s.Name)
	if name == sanitize.NameKey(leaddomain.UnknownLeadName) {
		name = ""
	}

	for _, e := range newestFirst {
		if !leaddomain.IsKnownOwner(e.AssignedTo) {
			continue
		}
		matched := (externalID != "" && strings.TrimSpace(e.ExternalID) == externalID) ||
			(email != "" && sanitize.EmailKey(e.Email) == email) ||
			(digits != "" && phone.Digits(e.Phone) == digits) ||
			(name != "" && sanitize.NameKey(e.Name) == name)
		if !matched {
			continue
		}
		owner := r.Canonical(e.AssignedTo)
		if owner == "" {
			continue
		}
		return Resolution{Owner: owner, Source: SourceEventLog}, true
	}
	return Resolution{}, false
}

func fallback() Resolution {
	return Resolution{Owner: leaddomain.OwnerUnknown, Source: SourceFallback}
}
