// Package service runs the scheduled reminder jobs: booking reminders for
// closers, the approved-not-booked follow-up and the Telegram claim digest.
package service

import (
	"context"
	"strings"
	"sync"
	"time"

	bookingdomain "leadops_backend/internal/bookings/domain"
	"leadops_backend/internal/email"
	sponsorshipdomain "leadops_backend/internal/sponsorship/domain"
	"leadops_backend/internal/telegram"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/logger"
)

const (
	JobDayOf          = "day_of"
	JobHourBefore     = "hour_before"
	JobFollowup       = "approved_not_booked_24h"
	JobTelegramDigest = "telegram_digest"
)

// Jobs lists every runnable job name.
var Jobs = []string{JobDayOf, JobHourBefore, JobFollowup, JobTelegramDigest}

// Bookings is the booking collection.
type Bookings interface {
	List(ctx context.Context) ([]bookingdomain.Booking, error)
	SaveAll(ctx context.Context, bookings []bookingdomain.Booking) error
}

// Followups lists approved applications still waiting for a booking and
// resolves their referral agents.
type Followups interface {
	ApprovedNotBooked(ctx context.Context) ([]sponsorshipdomain.Pending, error)
	AgentEmail(agent string) string
}

// FollowupStore persists the follow-up idempotency document.
type FollowupStore interface {
	FollowupState(ctx context.Context) (sponsorshipdomain.FollowupState, error)
	SaveFollowupState(ctx context.Context, state sponsorshipdomain.FollowupState) error
}

// Directory resolves closer emails.
type Directory interface {
	CloserEmail(name string) string
}

// Observer counts reminder sends.
type Observer interface {
	ObserveReminder(job string, ok bool)
}

// Deps are the collaborators of the reminder service.
type Deps struct {
	Bookings  Bookings
	Followups Followups
	State     FollowupStore
	Email     email.Sender
	Chat      telegram.Sender
	Directory Directory
	Admins    []string
	Metrics   Observer
}

// Service runs reminder batches one at a time.
type Service struct {
	mu   sync.Mutex
	deps Deps
	loc  *time.Location
	log  *logger.Logger
	now  func() time.Time
}

// New creates a reminder service. Booking times are read in loc.
func New(deps Deps, loc *time.Location, log *logger.Logger) *Service {
	if deps.Email == nil {
		deps.Email = email.NoopSender{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{deps: deps, loc: loc, log: log, now: time.Now}
}

// SetClock replaces the service clock.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Run executes the named job and saves what it marked.
func (s *Service) Run(ctx context.Context, job string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		res Result
		err error
	)
	switch strings.ToLower(strings.TrimSpace(job)) {
	case JobDayOf:
		res, err = s.runBookingJob(ctx, s.dayOfJob())
	case JobHourBefore:
		res, err = s.runBookingJob(ctx, s.hourBeforeJob())
	case JobFollowup:
		res, err = s.runFollowup(ctx)
	case JobTelegramDigest:
		res, err = s.runDigest(ctx)
	default:
		return Result{}, apperr.NotFound("unknown reminder job " + job)
	}
	if err != nil {
		return Result{}, err
	}

	s.log.WithContext(ctx).ReminderBatch(res.Job, res.Scanned, res.Sent, res.Failed())
	return res, nil
}

func (s *Service) observe(job string, ok bool) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveReminder(job, ok)
	}
}

// FollowupStatus reports how many applications the follow-up job tracks.
func (s *Service) FollowupStatus(ctx context.Context) (int, *time.Time, error) {
	if s.deps.State == nil {
		return 0, nil, nil
	}
	state, err := s.deps.State.FollowupState(ctx)
	if err != nil {
		return 0, nil, err
	}
	return len(state.ByID), state.UpdatedAt, nil
}
