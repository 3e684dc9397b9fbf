package service

import (
	"context"
	"strings"
	"time"

	"leadops_backend/internal/email"
	sponsorshipdomain "leadops_backend/internal/sponsorship/domain"
)

// followupTarget pairs a pending application with its idempotency record.
// record points into the state document, so marking updates it in place.
type followupTarget struct {
	pending    sponsorshipdomain.Pending
	agentEmail string
	record     *sponsorshipdomain.FollowupRecord
}

func (s *Service) runFollowup(ctx context.Context) (Result, error) {
	if s.deps.Followups == nil || s.deps.State == nil {
		return Result{Job: JobFollowup, Errors: []RecordError{}}, nil
	}
	pending, err := s.deps.Followups.ApprovedNotBooked(ctx)
	if err != nil {
		return Result{}, err
	}
	state, err := s.deps.State.FollowupState(ctx)
	if err != nil {
		return Result{}, err
	}

	targets := make([]followupTarget, 0, len(pending))
	for _, p := range pending {
		id := p.Application.ID
		if existing, ok := state.ByID[id]; ok && existing.Done() {
			continue
		}
		// Work on a detached record and attach it only once something is sent.
		rec := &sponsorshipdomain.FollowupRecord{}
		if existing, ok := state.ByID[id]; ok {
			*rec = *existing
		}
		targets = append(targets, followupTarget{
			pending:    p,
			agentEmail: s.deps.Followups.AgentEmail(p.Agent),
			record:     rec,
		})
	}

	now := s.now()
	res := Result{Job: JobFollowup, Errors: []RecordError{}}
	applicant, _ := Run(ctx, s.applicantFollowupJob(), targets, now, s.observe)
	agent, _ := Run(ctx, s.agentFollowupJob(), targets, now, s.observe)
	res.Scanned = len(targets)
	res.Sent = applicant.Sent + agent.Sent
	res.Errors = append(res.Errors, applicant.Errors...)
	res.Errors = append(res.Errors, agent.Errors...)
	res.Skipped = len(targets) - touched(targets)

	for _, t := range targets {
		if t.record.LastTouchedAt != nil {
			*state.Record(t.pending.Application.ID) = *t.record
		}
	}
	stamp := now
	state.UpdatedAt = &stamp
	if err := s.deps.State.SaveFollowupState(ctx, state); err != nil {
		return Result{}, err
	}
	return res, nil
}

func touched(targets []followupTarget) int {
	n := 0
	for _, t := range targets {
		if t.record.LastTouchedAt != nil {
			n++
		}
	}
	return n
}

func followupID(t followupTarget) string {
	return t.pending.Application.ID
}

func (s *Service) applicantFollowupJob() Job[followupTarget] {
	return Job[followupTarget]{
		Name: JobFollowup,
		Flag: "applicant",
		ID:   followupID,
		Due: func(t followupTarget, _ time.Time) bool {
			return t.record.Followup24hSentAt == nil && strings.TrimSpace(t.pending.Application.Email) != ""
		},
		Send: func(ctx context.Context, t followupTarget) error {
			a := t.pending.Application
			return s.deps.Email.SendFollowupApplicantEmail(ctx, strings.TrimSpace(a.Email), orDefault(a.FirstName, "there"), t.pending.BookingURL)
		},
		Mark: func(t *followupTarget, at time.Time) {
			sent := at
			t.record.Followup24hSentAt = &sent
			t.record.LastTouchedAt = &sent
		},
	}
}

func (s *Service) agentFollowupJob() Job[followupTarget] {
	return Job[followupTarget]{
		Name: JobFollowup,
		Flag: "agent",
		ID:   followupID,
		Due: func(t followupTarget, _ time.Time) bool {
			return t.record.Agent24hSentAt == nil && t.agentEmail != ""
		},
		Send: func(ctx context.Context, t followupTarget) error {
			a := t.pending.Application
			return s.deps.Email.SendFollowupAgentEmail(ctx, t.agentEmail, orDefault(t.pending.Agent, "Agent"), email.Applicant{
				FullName:   orDefault(a.FullName(), "Applicant"),
				Email:      strings.TrimSpace(a.Email),
				Phone:      orDefault(a.Phone, "N/A"),
				BookingURL: t.pending.BookingURL,
			})
		},
		Mark: func(t *followupTarget, at time.Time) {
			sent := at
			t.record.Agent24hSentAt = &sent
			t.record.LastTouchedAt = &sent
		},
	}
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
