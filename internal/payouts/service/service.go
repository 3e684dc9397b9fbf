// Package service implements policy submission, approval and payout
// tracking.
package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"leadops_backend/internal/events"
	"leadops_backend/internal/payouts/domain"
	"leadops_backend/internal/payouts/repository"
	"leadops_backend/internal/payouts/transport"
	sponsorshipdomain "leadops_backend/internal/sponsorship/domain"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/logger"
)

const (
	importIDPrefix  = "app_"
	importSubmitter = "Application Sync"
	importRole      = "system"
)

// Repository is the policy collection.
type Repository interface {
	List(ctx context.Context) ([]domain.Policy, error)
	SaveAll(ctx context.Context, policies []domain.Policy) error
}

// Applications lists stored sponsorship applications.
type Applications interface {
	List(ctx context.Context) ([]sponsorshipdomain.Application, error)
}

// Directory resolves referral codes to team members.
type Directory interface {
	OwnerForRefCode(code string) string
}

// Service provides payouts business logic.
type Service struct {
	repo      Repository
	apps      Applications
	directory Directory
	bus       events.Bus
	loc       *time.Location
	log       *logger.Logger
	now       func() time.Time
}

// New creates a payouts service. Payout dates are computed in loc.
func New(repo Repository, apps Applications, directory Directory, bus events.Bus, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:      repo,
		apps:      apps,
		directory: directory,
		bus:       bus,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

// SetClock replaces the service clock.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Create stores a submitted policy. A record whose id already exists is
// overwritten field by field, keeping its original id and submittedAt.
func (s *Service) Create(ctx context.Context, req transport.CreateRequest) (domain.Policy, error) {
	if req.Record != nil {
		req = *req.Record
	}
	now := s.now().UTC()
	rec := domain.Normalize(req.Policy())
	if rec.ApplicantName == "" {
		return domain.Policy{}, apperr.Validation(apperr.CodeMissingApplicant, "applicantName is required")
	}
	if rec.ID == "" {
		rec.ID = domain.IDPrefix + strconv.FormatInt(now.UnixMilli(), 10)
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = now
	}
	rec.UpdatedAt = now

	policies, err := s.repo.List(ctx)
	if err != nil {
		return domain.Policy{}, err
	}
	policies = upsert(policies, rec)
	if err := s.repo.SaveAll(ctx, policies); err != nil {
		return domain.Policy{}, err
	}
	return rec, nil
}

func upsert(policies []domain.Policy, rec domain.Policy) []domain.Policy {
	idx := repository.IndexByID(policies, rec.ID)
	if idx < 0 {
		return append([]domain.Policy{rec}, policies...)
	}
	existing := policies[idx]
	rec.ID = existing.ID
	if !existing.SubmittedAt.IsZero() {
		rec.SubmittedAt = existing.SubmittedAt
	}
	policies[idx] = rec
	return policies
}

// Patch applies an operator update. Approve and decline transitions send
// the decision email through the event bus; its outcome is returned with
// the row and never fails the update.
func (s *Service) Patch(ctx context.Context, req transport.PatchRequest) (transport.PatchResult, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return transport.PatchResult{}, apperr.Validation(apperr.CodeMissingID, "id is required")
	}

	policies, err := s.repo.List(ctx)
	if err != nil {
		return transport.PatchResult{}, err
	}
	idx := repository.IndexByID(policies, id)
	if idx < 0 {
		return transport.PatchResult{}, apperr.NotFound("policy not found")
	}

	updated, transition := domain.Apply(policies[idx], req.Patch, s.now().UTC(), s.loc)
	policies[idx] = updated
	if err := s.repo.SaveAll(ctx, policies); err != nil {
		return transport.PatchResult{}, err
	}

	result := transport.PatchResult{Row: updated}
	if transition != domain.TransitionNone {
		result.Email = s.announce(ctx, updated, transition == domain.TransitionApproved)
	}
	return result, nil
}

func (s *Service) announce(ctx context.Context, p domain.Policy, approved bool) *transport.EmailResult {
	if s.bus == nil {
		return &transport.EmailResult{Error: "notifications disabled"}
	}
	err := s.bus.PublishSync(ctx, events.PolicyDecided{
		BaseEvent:      events.NewBaseEventAt(p.UpdatedAt),
		PolicyID:       p.ID,
		Approved:       approved,
		WriterName:     p.PolicyWriterName,
		ApplicantName:  p.ApplicantName,
		ReferredBy:     p.ReferredByName,
		PolicyNumber:   p.PolicyNumber,
		MonthlyPremium: p.MonthlyPremium,
		PayoutAmount:   p.PayoutAmount,
		PayoutDueAt:    p.PayoutDueAt,
	})
	if err != nil {
		s.log.WithContext(ctx).Warn("policy decision email failed", "policyId", p.ID, "error", err)
		return &transport.EmailResult{Error: err.Error()}
	}
	return &transport.EmailResult{OK: true}
}

// List returns every policy, newest submission first.
func (s *Service) List(ctx context.Context) ([]domain.Policy, error) {
	policies, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(policies, func(i, j int) bool {
		return policies[i].SubmittedAt.After(policies[j].SubmittedAt)
	})
	return policies, nil
}

// ImportApplications creates or refreshes one policy per sponsorship
// application referred by a known team member. Approved applications
// arrive approved with their payout scheduled.
func (s *Service) ImportApplications(ctx context.Context) (transport.ImportResult, error) {
	if s.apps == nil || s.directory == nil {
		return transport.ImportResult{}, apperr.BadRequest(apperr.CodeUnsupportedMode, "application import is not configured")
	}

	apps, err := s.apps.List(ctx)
	if err != nil {
		return transport.ImportResult{}, err
	}
	policies, err := s.repo.List(ctx)
	if err != nil {
		return transport.ImportResult{}, err
	}

	now := s.now().UTC()
	imported := 0
	for _, app := range apps {
		referrer := s.directory.OwnerForRefCode(app.RefCode)
		name := app.FullName()
		if referrer == "" || name == "" {
			continue
		}

		id := importIDPrefix + app.ID
		if app.ID == "" {
			id = importIDPrefix + strings.ToLower(strings.Join(strings.Fields(name), "_"))
		}
		submitted := app.SubmittedAt
		if submitted.IsZero() {
			submitted = now
		}
		rec := domain.Normalize(domain.Policy{
			ID:              id,
			ApplicantName:   name,
			ReferredByName:  referrer,
			SubmittedBy:     importSubmitter,
			SubmittedByRole: importRole,
			State:           app.State,
			RefCode:         app.RefCode,
			SubmittedAt:     submitted,
			UpdatedAt:       now,
		})

		idx := repository.IndexByID(policies, id)
		if idx >= 0 {
			// Keep operator-maintained payout fields on refresh.
			existing := policies[idx]
			rec.PolicyWriterName = existing.PolicyWriterName
			rec.PolicyNumber = existing.PolicyNumber
			rec.MonthlyPremium = existing.MonthlyPremium
			rec.PayoutAmount = existing.PayoutAmount
			rec.PayoutStatus = existing.PayoutStatus
			rec.PayoutPaidAt = existing.PayoutPaidAt
			rec.PayoutPaidBy = existing.PayoutPaidBy
			rec.PayoutNotes = existing.PayoutNotes
			rec.Status = existing.Status
			rec.ApprovedAt = existing.ApprovedAt
			rec.PayoutDueAt = existing.PayoutDueAt
		}
		if app.IsApproved() && rec.ApprovedAt == nil {
			anchor, ok := app.Anchor()
			if !ok {
				anchor = now
			}
			due := domain.FollowingWeekFriday(anchor, s.loc)
			rec.Status = domain.StatusApproved
			rec.ApprovedAt = &anchor
			rec.PayoutDueAt = &due
		}

		policies = upsert(policies, rec)
		imported++
	}

	if err := s.repo.SaveAll(ctx, policies); err != nil {
		return transport.ImportResult{}, err
	}
	s.log.WithContext(ctx).Info("imported policies from applications", "imported", imported, "total", len(policies))
	return transport.ImportResult{Imported: imported, Total: len(policies)}, nil
}
