// Package service implements the caller-lead use cases: webhook upsert,
// manual create, activity ingestion, patch, delete, list and owner repair.
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/intake"
	"leadops_backend/internal/leads/repository"
	"leadops_backend/internal/leads/transport"
	"leadops_backend/internal/owners"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/ids"
	"leadops_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository is the lead collection.
type Repository interface {
	List(ctx context.Context) ([]domain.Lead, error)
	SaveAll(ctx context.Context, leads []domain.Lead) error
}

// OwnerResolver resolves and canonicalizes owners.
type OwnerResolver interface {
	Resolve(ctx context.Context, s owners.Subject) (owners.Resolution, error)
	Canonical(name string) string
}

// OwnerRepairer re-resolves leads with unknown owners.
type OwnerRepairer interface {
	Repair(ctx context.Context) (owners.RepairResult, error)
}

// Service provides lead business logic.
type Service struct {
	repo          Repository
	resolver      OwnerResolver
	repairer      OwnerRepairer
	overflowAgent string
	log           *logger.Logger
	now           func() time.Time
	rnd           ids.RandomSource
}

// New creates a leads service. overflowAgent owns manual leads created
// without an owner.
func New(repo Repository, resolver OwnerResolver, repairer OwnerRepairer, overflowAgent string, log *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		resolver:      resolver,
		repairer:      repairer,
		overflowAgent: overflowAgent,
		log:           log,
		now:           time.Now,
		rnd:           ids.Random,
	}
}

// SetClock replaces the service clock. Used by tests and the CLI.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Upsert ingests an intake webhook body. A lead with the same non-empty
// externalId is updated in place keeping its id, createdAt, stage and
// milestones; otherwise a new lead is inserted at stage New.
func (s *Service) Upsert(ctx context.Context, body map[string]any) (transport.WriteResult, error) {
	now := s.now().UTC()
	incoming := intake.Normalize(body, now, s.rnd)
	incoming.Owner = s.resolveOwner(ctx, incoming, intake.AssignmentHint(body))

	leads, err := s.repo.List(ctx)
	if err != nil {
		return transport.WriteResult{}, err
	}

	if idx := repository.IndexByExternalID(leads, incoming.ExternalID); idx >= 0 {
		leads[idx] = mergeIntake(leads[idx], incoming, now)
		if err := s.repo.SaveAll(ctx, leads); err != nil {
			return transport.WriteResult{}, err
		}
		return transport.WriteResult{Row: leads[idx], Upsert: transport.UpsertUpdated}, nil
	}

	stamped := now
	incoming.StageUpdatedAt = &stamped
	incoming.StageUpdatedBy = domain.ActorSystemIntake
	leads = append(leads, incoming)
	if err := s.repo.SaveAll(ctx, leads); err != nil {
		return transport.WriteResult{}, err
	}
	return transport.WriteResult{Row: incoming, Upsert: transport.UpsertInserted}, nil
}

// mergeIntake overwrites contact fields with the latest submission. A known
// owner on the existing record is kept when the submission resolves to
// "Unknown".
func mergeIntake(existing, incoming domain.Lead, now time.Time) domain.Lead {
	merged := existing
	merged.ExternalID = incoming.ExternalID
	merged.Name = incoming.Name
	merged.Email = incoming.Email
	merged.Phone = incoming.Phone
	merged.LicensedStatus = incoming.LicensedStatus
	merged.Source = incoming.Source
	merged.Notes = incoming.Notes
	if incoming.HasKnownOwner() || !existing.HasKnownOwner() {
		merged.Owner = incoming.Owner
	}
	if incoming.CallResult != "" {
		merged.CallResult = incoming.CallResult
	}
	if incoming.CallAttempts > merged.CallAttempts {
		merged.CallAttempts = incoming.CallAttempts
	}
	if strings.TrimSpace(merged.Stage) == "" {
		merged.Stage = domain.StageNew
	}
	merged.UpdatedAt = now
	return merged
}

// CreateManual adds an operator-entered lead.
func (s *Service) CreateManual(ctx context.Context, req transport.CreateManualRequest) (transport.WriteResult, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return transport.WriteResult{}, apperr.Validation(apperr.CodeMissingName, "name is required")
	}

	now := s.now().UTC()
	owner := s.resolver.Canonical(req.Owner)
	if owner == "" {
		owner = s.overflowAgent
	}
	stage := strings.TrimSpace(req.Stage)
	if stage == "" {
		stage = domain.StageNew
	}

	lead := domain.Lead{
		ID:             "manual-" + uuid.NewString(),
		Name:           name,
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		LicensedStatus: orDefault(req.LicensedStatus, domain.LicensedUnknown),
		Source:         orDefault(req.Source, domain.SourceManual),
		Notes:          strings.TrimSpace(req.Notes),
		Owner:          owner,
		Stage:          stage,
		StageUpdatedAt: &now,
		StageUpdatedBy: domain.ActorManualCreate,
		CallResult:     strings.TrimSpace(req.CallResult),
		CallAttempts:   req.CallAttempts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	domain.StampMilestone(&lead.Milestones, stage, now)

	leads, err := s.repo.List(ctx)
	if err != nil {
		return transport.WriteResult{}, err
	}
	leads = append(leads, lead)
	if err := s.repo.SaveAll(ctx, leads); err != nil {
		return transport.WriteResult{}, err
	}
	return transport.WriteResult{Row: lead}, nil
}

// Activity ingests a CRM activity event. The lead is matched by externalId,
// email, phone or name; an unmatched event seeds a new lead. Event names
// stamp milestones, and an explicit stage or owner on the body is applied.
func (s *Service) Activity(ctx context.Context, body map[string]any) (transport.WriteResult, error) {
	now := s.now().UTC()
	c := intake.Candidate(body)
	eventType := intake.Pick(body, "event")
	if eventType == "" {
		eventType = intake.Pick(c, "event")
	}
	actor := orDefault(intake.Str(body, "actor"), domain.ActorActivityHook)
	owner := intake.Str(body, "owner")
	if owner == "" {
		owner = intake.Str(c, "owner")
	}

	leads, err := s.repo.List(ctx)
	if err != nil {
		return transport.WriteResult{}, err
	}

	externalID := activityID(c)
	idx := repository.IndexByContact(leads, repository.Match{
		ExternalID: externalID,
		Email:      intake.Str(c, "email"),
		Phone:      intake.Pick(c, "phone", "phoneNumber", "phone_number"),
		Name:       activityName(c),
	})

	outcome := transport.UpsertActivity
	if idx < 0 {
		seeded := intake.Normalize(c, now, s.rnd)
		if externalID != "" {
			seeded.ID = externalID
			seeded.ExternalID = externalID
		}
		if intake.Str(c, "source") == "" {
			seeded.Source = orDefault(intake.Str(body, "source"), domain.SourceActivityHook)
		}
		seeded.Owner = s.resolveOwner(ctx, seeded, owner)
		leads = append(leads, seeded)
		idx = len(leads) - 1
		outcome = transport.UpsertActivitySeeded
	}

	lead := leads[idx]
	domain.StampActivity(&lead.Milestones, eventType, now)
	if stage := intake.Str(body, "stage"); stage != "" {
		lead = domain.TransitionStage(lead, stage, actor, now)
	}
	if canonical := s.resolver.Canonical(owner); canonical != "" {
		lead.Owner = canonical
	}
	lead.UpdatedAt = now
	leads[idx] = lead

	if err := s.repo.SaveAll(ctx, leads); err != nil {
		return transport.WriteResult{}, err
	}
	return transport.WriteResult{Row: lead, Upsert: outcome}, nil
}

// activityID is the contact id an activity refers to: an explicit
// externalId, then the intake id keys.
func activityID(c map[string]any) string {
	if id := intake.Pick(c, "externalId", "external_id"); id != "" {
		return id
	}
	return intake.ExternalID(c)
}

func activityName(c map[string]any) string {
	if name := intake.Str(c, "name"); name != "" {
		return name
	}
	return strings.TrimSpace(intake.Pick(c, "firstName", "first_name") + " " + intake.Pick(c, "lastName", "last_name"))
}

// Patch applies an operator edit through the stage state machine.
func (s *Service) Patch(ctx context.Context, req transport.PatchLeadRequest) (transport.PatchResult, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return transport.PatchResult{}, apperr.Validation(apperr.CodeMissingID, "id is required")
	}

	leads, err := s.repo.List(ctx)
	if err != nil {
		return transport.PatchResult{}, err
	}
	idx := repository.IndexByID(leads, id)
	if idx < 0 {
		return transport.PatchResult{}, apperr.NotFound("lead not found")
	}

	patch := req.Patch.ToDomain()
	if patch.Owner != nil {
		if canonical := s.resolver.Canonical(*patch.Owner); canonical != "" {
			patch.Owner = &canonical
		}
	}

	updated, outcome := domain.ApplyPatch(leads[idx], patch, req.Actor, s.now().UTC())
	leads[idx] = updated
	if err := s.repo.SaveAll(ctx, leads); err != nil {
		return transport.PatchResult{}, err
	}
	if outcome.StageSuppressed {
		s.log.WithContext(ctx).Info("stage change suppressed for call result", "lead_id", id, "call_result", updated.CallResult)
	}
	return transport.PatchResult{Row: updated, StageSuppressed: outcome.StageSuppressed}, nil
}

// Delete removes a lead by id.
func (s *Service) Delete(ctx context.Context, id string) (domain.Lead, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Lead{}, apperr.Validation(apperr.CodeMissingID, "id is required")
	}

	leads, err := s.repo.List(ctx)
	if err != nil {
		return domain.Lead{}, err
	}
	idx := repository.IndexByID(leads, id)
	if idx < 0 {
		return domain.Lead{}, apperr.NotFound("lead not found")
	}

	removed := leads[idx]
	leads = append(leads[:idx], leads[idx+1:]...)
	if err := s.repo.SaveAll(ctx, leads); err != nil {
		return domain.Lead{}, err
	}
	return removed, nil
}

// List returns leads newest-updated first, optionally only those whose
// canonical owner matches owner.
func (s *Service) List(ctx context.Context, owner string) ([]domain.Lead, error) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(owner) != "" {
		want := s.canonicalOrRaw(owner)
		filtered := leads[:0]
		for _, l := range leads {
			if s.canonicalOrRaw(l.Owner) == want {
				filtered = append(filtered, l)
			}
		}
		leads = filtered
	}

	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].UpdatedAt.After(leads[j].UpdatedAt)
	})
	return leads, nil
}

// RepairOwners re-resolves every lead with an unknown owner.
func (s *Service) RepairOwners(ctx context.Context) (owners.RepairResult, error) {
	return s.repairer.Repair(ctx)
}

func (s *Service) resolveOwner(ctx context.Context, lead domain.Lead, hint string) string {
	res, err := s.resolver.Resolve(ctx, owners.Subject{
		ExternalID: lead.ExternalID,
		Name:       lead.Name,
		Email:      lead.Email,
		Phone:      lead.Phone,
		Hint:       hint,
	})
	if err != nil {
		s.log.WithContext(ctx).Warn("owner history unavailable", "lead_id", lead.ID, "error", err)
	}
	return res.Owner
}

func (s *Service) canonicalOrRaw(name string) string {
	if c := s.resolver.Canonical(name); c != "" {
		return c
	}
	return strings.TrimSpace(name)
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
