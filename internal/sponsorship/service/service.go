// Package service implements the sponsorship application use cases:
// submit, review, delete, list and the approved-but-not-booked report.
package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	bookingsdomain "leadops_backend/internal/bookings/domain"
	"leadops_backend/internal/sponsorship/domain"
	"leadops_backend/internal/sponsorship/repository"
	"leadops_backend/internal/sponsorship/transport"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/logger"
	"leadops_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Repository is the application collection.
type Repository interface {
	List(ctx context.Context) ([]domain.Application, error)
	SaveAll(ctx context.Context, apps []domain.Application) error
}

// BookingLister reads the booking collection.
type BookingLister interface {
	List(ctx context.Context) ([]bookingsdomain.Booking, error)
}

// Service provides sponsorship application business logic.
type Service struct {
	repo           Repository
	bookings       BookingLister
	directory      domain.Directory
	bookingBaseURL string
	log            *logger.Logger
	now            func() time.Time
}

// New creates a sponsorship service. bookingBaseURL is the applicant
// booking page the follow-up emails link to.
func New(repo Repository, bookings BookingLister, directory domain.Directory, bookingBaseURL string, log *logger.Logger) *Service {
	return &Service{
		repo:           repo,
		bookings:       bookings,
		directory:      directory,
		bookingBaseURL: bookingBaseURL,
		log:            log,
		now:            time.Now,
	}
}

// SetClock replaces the service clock. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Submit stores an application. A resubmission with the same id, or from
// the same applicant, merges into the stored record.
func (s *Service) Submit(ctx context.Context, req transport.SubmitRequest) (domain.Application, error) {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return domain.Application{}, apperr.Validation(apperr.CodeMissingName, "firstName and lastName are required")
	}

	now := s.now().UTC()
	app := domain.Application{
		ID:               strings.TrimSpace(req.ID),
		FirstName:        first,
		LastName:         last,
		Email:            strings.TrimSpace(req.Email),
		Phone:            strings.TrimSpace(req.Phone),
		State:            strings.ToUpper(strings.TrimSpace(req.State)),
		IsLicensed:       strings.TrimSpace(req.IsLicensed),
		RefCode:          strings.TrimSpace(req.RefCode),
		ReferralName:     strings.TrimSpace(req.ReferralName),
		ReferredBy:       strings.TrimSpace(req.ReferredBy),
		Notes:            sanitize.Text(req.Notes),
		Status:           orDefault(req.Status, domain.StatusPendingReview),
		DecisionBucket:   orDefault(req.DecisionBucket, domain.BucketManualReview),
		ApplicationScore: req.ApplicationScore,
		NormalizedName:   sanitize.NameKey(first + " " + last),
		SubmittedAt:      now,
		UpdatedAt:        now,
	}
	if req.SubmittedAt != nil && !req.SubmittedAt.IsZero() {
		app.SubmittedAt = req.SubmittedAt.UTC()
	}

	apps, err := s.repo.List(ctx)
	if err != nil {
		return domain.Application{}, err
	}

	idx := repository.IndexByID(apps, app.ID)
	if idx < 0 {
		idx = repository.IndexByKey(apps, app.DedupeKey())
	}
	if idx >= 0 {
		if app.ID == "" {
			app.ID = apps[idx].ID
		}
		apps[idx] = domain.Merge(apps[idx], app)
		app = apps[idx]
	} else {
		if app.ID == "" {
			app.ID = newID(apps, now)
		}
		apps = append(apps, app)
	}

	if err := s.repo.SaveAll(ctx, apps); err != nil {
		return domain.Application{}, err
	}
	return app, nil
}

// newID returns "sapp_<ms>", suffixed when that id is already taken.
func newID(apps []domain.Application, now time.Time) string {
	id := "sapp_" + strconv.FormatInt(now.UnixMilli(), 10)
	if repository.IndexByID(apps, id) >= 0 {
		id += "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	return id
}

// Review records an approve or decline decision.
func (s *Service) Review(ctx context.Context, req transport.ReviewRequest) (domain.Application, error) {
	id := strings.TrimSpace(req.ID)
	decision := strings.ToLower(strings.TrimSpace(req.Decision))
	if id == "" || decision == "" {
		return domain.Application{}, apperr.Validation(apperr.CodeMissingFields, "id and decision are required")
	}

	apps, err := s.repo.List(ctx)
	if err != nil {
		return domain.Application{}, err
	}
	idx := repository.IndexByID(apps, id)
	if idx < 0 {
		return domain.Application{}, apperr.NotFound("application not found")
	}

	apps[idx] = domain.Review(apps[idx], decision, req.ReviewedBy, s.now().UTC())
	if err := s.repo.SaveAll(ctx, apps); err != nil {
		return domain.Application{}, err
	}
	s.log.WithContext(ctx).Info("sponsorship application reviewed", "id", id, "decision", decision, "status", apps[idx].Status)
	return apps[idx], nil
}

// Delete removes an application by id.
func (s *Service) Delete(ctx context.Context, id string) (domain.Application, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Application{}, apperr.Validation(apperr.CodeMissingID, "id is required")
	}

	apps, err := s.repo.List(ctx)
	if err != nil {
		return domain.Application{}, err
	}
	idx := repository.IndexByID(apps, id)
	if idx < 0 {
		return domain.Application{}, apperr.NotFound("application not found")
	}

	removed := apps[idx]
	apps = append(apps[:idx], apps[idx+1:]...)
	if err := s.repo.SaveAll(ctx, apps); err != nil {
		return domain.Application{}, err
	}
	return removed, nil
}

// List returns deduplicated applications newest first, optionally only
// those whose status equals status (case-insensitive).
func (s *Service) List(ctx context.Context, status string) ([]domain.Application, error) {
	apps, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	apps = domain.Dedupe(apps)

	if status = strings.TrimSpace(status); status != "" {
		filtered := apps[:0]
		for _, a := range apps {
			if strings.EqualFold(strings.TrimSpace(a.Status), status) {
				filtered = append(filtered, a)
			}
		}
		apps = filtered
	}

	domain.SortNewestFirst(apps)
	return apps, nil
}

// ApprovedNotBooked lists approved applications with no matching booking
// whose approval is at least a day old.
func (s *Service) ApprovedNotBooked(ctx context.Context) ([]domain.Pending, error) {
	apps, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]domain.Pending, 0)
	for _, a := range domain.Dedupe(apps) {
		anchor, due := domain.DueForFollowup(a, domain.IsBooked(a, bookings), now)
		if !due {
			continue
		}
		out = append(out, domain.Pending{
			Application: a,
			ApprovedAt:  anchor,
			AgeHours:    now.Sub(anchor).Hours(),
			Agent:       domain.ReferralAgent(a, s.directory),
			BookingURL:  domain.BookingURL(s.bookingBaseURL, a.ID),
		})
	}
	return out, nil
}

// AgentEmail resolves the directory email of a referral agent.
func (s *Service) AgentEmail(agent string) string {
	return s.directory.CloserEmail(agent)
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
