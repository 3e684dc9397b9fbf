package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"leadops_backend/internal/events"
	leaddomain "leadops_backend/internal/leads/domain"
	"leadops_backend/internal/routing/domain"
	"leadops_backend/internal/routing/transport"
)

// slaBatch caps how many stale leads one pass reassigns.
const slaBatch = 5

// SweepSLA runs the reassignment pass on its own, as the scheduler and the
// admin endpoint do between inbound leads.
func (s *Service) SweepSLA(ctx context.Context) (transport.SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	settings, history, leads, err := s.load(ctx)
	if err != nil {
		return transport.SweepResult{}, err
	}

	tally := domain.BuildTally(settings.Agents, history, now, domain.Location(settings.Timezone))
	reassigned := s.sweep(settings, &tally, leads, now)
	result := transport.SweepResult{Reassigned: len(reassigned), LeadIDs: make([]string, 0, len(reassigned))}
	if len(reassigned) == 0 {
		return result, nil
	}

	if err := s.leads.SaveAll(ctx, leads); err != nil {
		return transport.SweepResult{}, err
	}
	if _, err := s.repo.SaveEvents(ctx, append(history, reassigned...)); err != nil {
		return transport.SweepResult{}, err
	}

	for _, evt := range reassigned {
		result.LeadIDs = append(result.LeadIDs, evt.LeadID)
		s.publish(ctx, evt, events.KindSLAReassign)
		if s.metrics != nil {
			s.metrics.ObserveRouting(evt.Reason, evt.AssignedTo)
		}
	}
	s.log.WithContext(ctx).Info("sla sweep reassigned leads", "count", len(reassigned))
	return result, nil
}

// sweep moves up to slaBatch stale leads to another eligible agent,
// mutating leads and tally in place, and returns one reassigned_sla event
// per move. A lead with no other eligible agent is left alone.
func (s *Service) sweep(settings domain.Settings, tally *domain.Tally, leads []leaddomain.Lead, now time.Time) []domain.Event {
	if !settings.Enabled || !settings.SLAEnabled || settings.SLAAction != domain.SLAActionReassign {
		return nil
	}

	minutes := settings.SLAMinutes
	if minutes <= 0 {
		minutes = domain.DefaultSLAMinutes
	}
	loc := domain.Location(settings.Timezone)
	minute := domain.MinuteOfDay(now, loc)

	var out []domain.Event
	for _, idx := range staleLeads(leads, now, time.Duration(minutes)*time.Minute) {
		lead := &leads[idx]
		previous := strings.TrimSpace(lead.Owner)

		eligible := withoutAgent(domain.Eligible(settings, *tally, minute), previous)
		if len(eligible) == 0 {
			continue
		}
		picked := s.engine.Pick(settings, eligible, *tally)

		at := now
		lead.Owner = picked.Name
		lead.ReassignedAt = &at
		lead.ReassignCount++
		lead.UpdatedAt = now
		tally.Record(picked.Name, now)

		decision := domain.Decision{AssignedTo: picked.Name, Reason: domain.ReasonSLAReassign, Mode: settings.Mode}
		evt := domain.NewEvent(domain.EventReassignedSLA, contactOf(*lead), decision, now, loc, s.rnd)
		evt.PreviousOwner = previous
		out = append(out, evt)
	}
	return out
}

// staleLeads returns the indexes of owned, uncalled leads still in stage
// New whose age reached threshold, oldest first.
func staleLeads(leads []leaddomain.Lead, now time.Time, threshold time.Duration) []int {
	var idx []int
	for i, l := range leads {
		stage := strings.TrimSpace(l.Stage)
		if stage != "" && !strings.EqualFold(stage, leaddomain.StageNew) {
			continue
		}
		if l.CalledAt != nil || !l.HasKnownOwner() {
			continue
		}
		created := createdOf(l)
		if created.IsZero() || now.Sub(created) < threshold {
			continue
		}
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return createdOf(leads[idx[a]]).Before(createdOf(leads[idx[b]]))
	})
	if len(idx) > slaBatch {
		idx = idx[:slaBatch]
	}
	return idx
}

func createdOf(l leaddomain.Lead) time.Time {
	if !l.CreatedAt.IsZero() {
		return l.CreatedAt
	}
	return l.UpdatedAt
}

func withoutAgent(agents []domain.Agent, name string) []domain.Agent {
	out := make([]domain.Agent, 0, len(agents))
	for _, a := range agents {
		if a.Name != name {
			out = append(out, a)
		}
	}
	return out
}
