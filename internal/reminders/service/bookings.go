package service

import (
	"context"
	"math"
	"time"

	bookingdomain "leadops_backend/internal/bookings/domain"
	"leadops_backend/internal/email"
)

const (
	dayOfStartHour   = 7
	hourBeforeMinMin = 50
	hourBeforeMaxMin = 70
)

func (s *Service) runBookingJob(ctx context.Context, job Job[bookingdomain.Booking]) (Result, error) {
	bookings, err := s.deps.Bookings.List(ctx)
	if err != nil {
		return Result{}, err
	}
	res, changed := Run(ctx, job, bookings, s.now(), s.observe)
	if changed {
		if err := s.deps.Bookings.SaveAll(ctx, bookings); err != nil {
			return Result{}, err
		}
	}
	return res, nil
}

// closerEmail is the directory email of the claimer, or "" when the booking
// is unclaimed or the closer is unknown.
func (s *Service) closerEmail(b bookingdomain.Booking) string {
	if !b.IsClaimed() || s.deps.Directory == nil {
		return ""
	}
	return s.deps.Directory.CloserEmail(b.ClaimedBy)
}

func (s *Service) dayOfJob() Job[bookingdomain.Booking] {
	return Job[bookingdomain.Booking]{
		Name: JobDayOf,
		Flag: "day_of_reminder_sent_at",
		ID:   bookingID,
		Due: func(b bookingdomain.Booking, now time.Time) bool {
			if b.DayOfReminderSentAt != nil || s.closerEmail(b) == "" {
				return false
			}
			event, ok := bookingdomain.ParseRequestedAt(b.RequestedAtEST, s.loc)
			if !ok {
				return false
			}
			local := now.In(s.loc)
			return sameDay(event, local) && local.Hour() >= dayOfStartHour
		},
		Send: func(ctx context.Context, b bookingdomain.Booking) error {
			return s.sendBookingReminder(ctx, email.ReminderDayOf, b)
		},
		Mark: func(b *bookingdomain.Booking, at time.Time) {
			t := at
			b.DayOfReminderSentAt = &t
		},
	}
}

func (s *Service) hourBeforeJob() Job[bookingdomain.Booking] {
	return Job[bookingdomain.Booking]{
		Name: JobHourBefore,
		Flag: "hour_before_reminder_sent_at",
		ID:   bookingID,
		Due: func(b bookingdomain.Booking, now time.Time) bool {
			if b.HourBeforeReminderSentAt != nil || s.closerEmail(b) == "" {
				return false
			}
			event, ok := bookingdomain.ParseRequestedAt(b.RequestedAtEST, s.loc)
			if !ok {
				return false
			}
			minutes := int(math.Round(event.Sub(now).Minutes()))
			return minutes >= hourBeforeMinMin && minutes <= hourBeforeMaxMin
		},
		Send: func(ctx context.Context, b bookingdomain.Booking) error {
			return s.sendBookingReminder(ctx, email.ReminderHourBefore, b)
		},
		Mark: func(b *bookingdomain.Booking, at time.Time) {
			t := at
			b.HourBeforeReminderSentAt = &t
		},
	}
}

func (s *Service) sendBookingReminder(ctx context.Context, kind email.ReminderKind, b bookingdomain.Booking) error {
	recipients := email.Recipients(append([]string{s.closerEmail(b)}, s.deps.Admins...)...)
	return s.deps.Email.SendBookingReminderEmail(ctx, recipients, kind, email.Booking{
		ID:             b.ID,
		ClaimedBy:      b.ClaimedBy,
		FirstName:      b.FirstName(),
		LastName:       b.LastName(),
		ApplicantName:  b.ApplicantName,
		ApplicantEmail: b.ApplicantEmail,
		ApplicantPhone: b.ApplicantPhone,
		ApplicantState: b.ApplicantState,
		RequestedAtEST: b.RequestedAtEST,
		ReferredBy:     b.ReferredBy,
		CalendarURL:    bookingdomain.CalendarLink(b, s.loc),
	})
}

func bookingID(b bookingdomain.Booking) string {
	return b.ID
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
