// Package service implements the lead router use cases: assigning inbound
// leads, the SLA reassignment sweep, settings updates and the dashboard.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"leadops_backend/internal/crm"
	"leadops_backend/internal/events"
	leaddomain "leadops_backend/internal/leads/domain"
	"leadops_backend/internal/leads/intake"
	"leadops_backend/internal/leads/repository"
	"leadops_backend/internal/routing/domain"
	"leadops_backend/internal/routing/transport"
	sponsorshipdomain "leadops_backend/internal/sponsorship/domain"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/ids"
	"leadops_backend/platform/logger"

	json "github.com/goccy/go-json"
)

// SourceFacebook tags leads that arrive through the lead-form webhook.
const SourceFacebook = "facebook"

const warnMissingContactID = "missing_contact_id_payload"

// Repository holds the router settings and the assignment log.
type Repository interface {
	Settings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, s domain.Settings) (domain.Settings, error)
	Events(ctx context.Context) ([]domain.Event, error)
	SaveEvents(ctx context.Context, events []domain.Event) ([]domain.Event, error)
}

// LeadStore is the caller-lead collection.
type LeadStore interface {
	List(ctx context.Context) ([]leaddomain.Lead, error)
	SaveAll(ctx context.Context, leads []leaddomain.Lead) error
}

// Applications lists stored sponsorship applications for the dashboard.
type Applications interface {
	List(ctx context.Context) ([]sponsorshipdomain.Application, error)
}

// Observer records routing decisions.
type Observer interface {
	ObserveRouting(reason, assignedTo string)
}

// OwnerUpdater pushes an owner change to the CRM.
type OwnerUpdater interface {
	UserIDFor(ownerName string) string
	UpdateContactOwner(ctx context.Context, contactID, userID string) crm.UpdateResult
}

// Service provides lead routing business logic. Writes are serialized so a
// decision always sees the counts of the previous one.
type Service struct {
	mu      sync.Mutex
	repo    Repository
	leads   LeadStore
	apps    Applications
	crm     OwnerUpdater
	bus     events.Bus
	metrics Observer
	log     *logger.Logger
	engine  *domain.Engine
	now     func() time.Time
	rnd     ids.RandomSource
}

// New creates a routing service.
func New(repo Repository, leads LeadStore, apps Applications, owners OwnerUpdater, bus events.Bus, metrics Observer, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		leads:   leads,
		apps:    apps,
		crm:     owners,
		bus:     bus,
		metrics: metrics,
		log:     log,
		engine:  domain.NewEngine(ids.Random),
		now:     time.Now,
		rnd:     ids.Random,
	}
}

// SetClock replaces the service clock.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// SetRandom replaces the random source used for picks and event ids.
func (s *Service) SetRandom(rnd ids.RandomSource) {
	s.rnd = rnd
	s.engine = domain.NewEngine(rnd)
}

// Route assigns an inbound lead. Before the lead is written, stale leads are
// reassigned when the SLA policy is on; all resulting events are appended
// to the log in one save.
func (s *Service) Route(ctx context.Context, body map[string]any) (transport.AssignResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	settings, history, leads, err := s.load(ctx)
	if err != nil {
		return transport.AssignResult{}, err
	}

	loc := domain.Location(settings.Timezone)
	tally := domain.BuildTally(settings.Agents, history, now, loc)
	decision := s.engine.Decide(settings, tally, now)
	if decision.AssignedTo != "" {
		tally.Record(decision.AssignedTo, now)
	}

	reassigned := s.sweep(settings, &tally, leads, now)

	incoming := intake.Normalize(body, now, s.rnd)
	incoming.Owner = decision.AssignedTo
	row := incoming
	if idx := repository.IndexByExternalID(leads, incoming.ExternalID); idx >= 0 {
		row = mergeRouted(leads[idx], incoming, now)
		leads[idx] = row
	} else {
		stamped := now
		row.StageUpdatedAt = &stamped
		row.StageUpdatedBy = leaddomain.ActorSystemIntake
		leads = append(leads, row)
	}

	if err := s.leads.SaveAll(ctx, leads); err != nil {
		return transport.AssignResult{}, err
	}

	assigned := domain.NewEvent(domain.EventAssigned, contactOf(row), decision, now, loc, s.rnd)
	history = append(history, reassigned...)
	if _, err := s.repo.SaveEvents(ctx, append(history, assigned)); err != nil {
		return transport.AssignResult{}, err
	}

	for _, evt := range reassigned {
		s.publish(ctx, evt, events.KindSLAReassign)
	}
	s.publish(ctx, assigned, events.KindLeadAssigned)

	if s.metrics != nil {
		s.metrics.ObserveRouting(decision.Reason, decision.AssignedTo)
	}
	s.log.WithContext(ctx).RoutingDecision(row.ID, decision.AssignedTo, decision.Reason)

	return transport.AssignResult{
		AssignedTo:    decision.AssignedTo,
		Reason:        decision.Reason,
		Row:           row,
		SLAReassigned: len(reassigned),
	}, nil
}

// mergeRouted refreshes contact fields and the owner while keeping the
// lead's id, stage, call history and milestones.
func mergeRouted(existing, incoming leaddomain.Lead, now time.Time) leaddomain.Lead {
	merged := existing
	merged.ExternalID = incoming.ExternalID
	merged.Name = incoming.Name
	merged.Email = incoming.Email
	merged.Phone = incoming.Phone
	if incoming.LicensedStatus != leaddomain.LicensedUnknown || merged.LicensedStatus == "" {
		merged.LicensedStatus = incoming.LicensedStatus
	}
	merged.Source = incoming.Source
	merged.Notes = incoming.Notes
	merged.Owner = incoming.Owner
	if strings.TrimSpace(merged.Stage) == "" {
		merged.Stage = leaddomain.StageNew
	}
	merged.UpdatedAt = now
	return merged
}

func contactOf(l leaddomain.Lead) domain.Contact {
	return domain.Contact{
		LeadID:     l.ID,
		ExternalID: l.ExternalID,
		Name:       l.Name,
		Email:      l.Email,
		Phone:      l.Phone,
	}
}

func (s *Service) load(ctx context.Context) (domain.Settings, []domain.Event, []leaddomain.Lead, error) {
	settings, err := s.repo.Settings(ctx)
	if err != nil {
		return domain.Settings{}, nil, nil, err
	}
	history, err := s.repo.Events(ctx)
	if err != nil {
		return domain.Settings{}, nil, nil, err
	}
	leads, err := s.leads.List(ctx)
	if err != nil {
		return domain.Settings{}, nil, nil, err
	}
	return settings, history, leads, nil
}

func (s *Service) publish(ctx context.Context, evt domain.Event, kind string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:     events.NewBaseEventAt(evt.Timestamp),
		Kind:          kind,
		LeadID:        evt.LeadID,
		ExternalID:    evt.ExternalID,
		Name:          evt.Name,
		Email:         evt.Email,
		Phone:         evt.Phone,
		AssignedTo:    evt.AssignedTo,
		PreviousOwner: evt.PreviousOwner,
		Reason:        evt.Reason,
		Mode:          evt.Mode,
	})
}

// Settings returns the current router settings.
func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	return s.repo.Settings(ctx)
}

// UpdateSettings overlays patch on the current settings. Keys absent from
// the patch keep their value; an "agents" key replaces the persisted roster,
// which is then merged with the default roster again.
func (s *Service) UpdateSettings(ctx context.Context, patch map[string]any) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.repo.Settings(ctx)
	if err != nil {
		return domain.Settings{}, err
	}

	doc := map[string]any{}
	if err := remarshal(current, &doc); err != nil {
		return domain.Settings{}, err
	}
	for k, v := range patch {
		doc[k] = v
	}

	var next domain.Settings
	if err := remarshal(doc, &next); err != nil {
		return domain.Settings{}, apperr.Validation(apperr.CodeInvalidRequest, "invalid settings patch").WithDetails(err.Error())
	}
	if err := validateSettings(next); err != nil {
		return domain.Settings{}, err
	}
	return s.repo.SaveSettings(ctx, next)
}

func validateSettings(st domain.Settings) error {
	switch st.Mode {
	case "", domain.ModeRandom, domain.ModeBalanced:
	default:
		return apperr.Validation(apperr.CodeInvalidRequest, "mode must be random or balanced")
	}
	if st.MaxPerDay < 0 || st.MaxPerWeek < 0 || st.MaxPerMonth < 0 || st.SLAMinutes < 0 {
		return apperr.Validation(apperr.CodeInvalidRequest, "limits must not be negative")
	}
	return nil
}

func remarshal(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// AssignFB routes a lead-form submission and moves the CRM contact to the
// chosen owner. CRM failures are reported in the result, never as errors.
func (s *Service) AssignFB(ctx context.Context, body map[string]any) (transport.FBAssignResult, error) {
	contactID := intake.Str(body, "contactId")
	if contactID == "" {
		contactID = intake.Str(intake.Object(body, "contact"), "id")
	}
	if contactID == "" {
		contactID = intake.Str(body, "id")
	}

	routed := make(map[string]any, len(body)+2)
	for k, v := range body {
		routed[k] = v
	}
	if intake.Str(routed, "source") == "" {
		routed["source"] = SourceFacebook
	}
	if contactID != "" {
		routed["contactId"] = contactID
	} else {
		routed["id"] = ids.Synthetic("missing-contact", s.now(), s.rnd)
	}

	assigned, err := s.Route(ctx, routed)
	if err != nil {
		return transport.FBAssignResult{}, err
	}

	userID := intake.Str(body, "assignedUserId")
	if userID == "" && s.crm != nil {
		userID = s.crm.UserIDFor(assigned.AssignedTo)
	}

	var update crm.UpdateResult
	if s.crm != nil {
		update = s.crm.UpdateContactOwner(ctx, contactID, userID)
	} else {
		update = crm.UpdateResult{Reason: crm.ReasonMissingConfig}
	}
	if !update.OK {
		s.log.WithContext(ctx).IntegrationFailure("ghl", errors.New(update.Reason),
			"contact_id", contactID, "detail", update.Detail)
	}

	result := transport.FBAssignResult{
		OK:              true,
		AssignedTo:      assigned.AssignedTo,
		GHLOwnerUpdated: update.OK,
		GHLUpdate:       update,
	}
	if contactID != "" {
		result.ContactID = &contactID
	} else {
		warning := warnMissingContactID
		result.Warning = &warning
	}
	if userID != "" {
		result.AssignedUserID = &userID
	}
	return result, nil
}
