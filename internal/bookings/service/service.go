// Package service implements the booking workflow: guarded upsert, direct
// claims and claims confirmed from the Telegram group.
package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"leadops_backend/internal/bookings/domain"
	"leadops_backend/internal/bookings/repository"
	"leadops_backend/internal/bookings/transport"
	"leadops_backend/internal/events"
	"leadops_backend/internal/telegram"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/logger"

	json "github.com/goccy/go-json"
)

const confirmUsage = "CONFIRM book_1234567890 - Your Name - I can take this."

// Repository is the booking collection.
type Repository interface {
	List(ctx context.Context) ([]domain.Booking, error)
	SaveAll(ctx context.Context, bookings []domain.Booking) error
}

// Service provides booking business logic.
type Service struct {
	repo       Repository
	licensing  domain.Licensing
	bus        events.Bus
	chat       telegram.Sender
	loc        *time.Location
	holdWindow time.Duration
	log        *logger.Logger
	now        func() time.Time
}

// New creates a bookings service. loc is the zone requested times are
// written in.
func New(repo Repository, licensing domain.Licensing, bus events.Bus, chat telegram.Sender, loc *time.Location, holdWindow time.Duration, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		licensing:  licensing,
		bus:        bus,
		chat:       chat,
		loc:        loc,
		holdWindow: holdWindow,
		log:        log,
		now:        time.Now,
	}
}

// SetClock replaces the service clock. Used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Location returns the booking timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Upsert merges raw over the stored booking with the same id, or inserts it
// at the front of the collection. New bookings start as a priority hold
// for a licensed referral owner, else Open.
func (s *Service) Upsert(ctx context.Context, raw map[string]any) (domain.Booking, error) {
	var incoming domain.Booking
	if err := remarshal(raw, &incoming); err != nil {
		return domain.Booking{}, apperr.BadRequest(apperr.CodeInvalidRequest, "booking is malformed")
	}
	id := strings.TrimSpace(incoming.ID)
	if id == "" {
		return domain.Booking{}, apperr.Validation(apperr.CodeMissingBookingID, "booking id is required")
	}
	if !incoming.HasContext() {
		return domain.Booking{}, apperr.Validation(apperr.CodeInvalidBookingContext, "booking must reference an application and a named applicant")
	}

	now := s.now().UTC()
	bookings, err := s.repo.List(ctx)
	if err != nil {
		return domain.Booking{}, err
	}

	var next domain.Booking
	if idx := repository.IndexByID(bookings, id); idx >= 0 {
		next, err = overlay(bookings[idx], raw)
		if err != nil {
			return domain.Booking{}, apperr.BadRequest(apperr.CodeInvalidRequest, "booking is malformed")
		}
		next.ID = id
		next.UpdatedAt = now
		bookings[idx] = next
	} else {
		next = incoming
		next.ID = id
		if next.CreatedAt.IsZero() {
			next.CreatedAt = now
		}
		next.UpdatedAt = now
		if !next.IsClaimed() && (next.ClaimStatus == "" || next.ClaimStatus == domain.StatusOpen) {
			next = domain.Open(next, s.licensing, s.holdWindow, now)
		}
		bookings = append([]domain.Booking{next}, bookings...)
	}

	if err := s.repo.SaveAll(ctx, bookings); err != nil {
		return domain.Booking{}, err
	}
	return next, nil
}

// overlay applies the keys present in raw on top of existing.
func overlay(existing domain.Booking, raw map[string]any) (domain.Booking, error) {
	base := map[string]any{}
	if err := remarshal(existing, &base); err != nil {
		return domain.Booking{}, err
	}
	for k, v := range raw {
		base[k] = v
	}
	var merged domain.Booking
	if err := remarshal(base, &merged); err != nil {
		return domain.Booking{}, err
	}
	return merged, nil
}

func remarshal(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Claim records a direct claim. It always overwrites the previous claimer.
func (s *Service) Claim(ctx context.Context, req transport.ClaimRequest) (domain.Booking, error) {
	bookingID := strings.TrimSpace(req.BookingID)
	claimedBy := strings.TrimSpace(req.ClaimedBy)
	if bookingID == "" || claimedBy == "" {
		return domain.Booking{}, apperr.Validation(apperr.CodeMissingFields, "bookingId and claimedBy are required")
	}

	bookings, err := s.repo.List(ctx)
	if err != nil {
		return domain.Booking{}, err
	}
	idx := repository.IndexByID(bookings, bookingID)
	if idx < 0 {
		return domain.Booking{}, apperr.NotFound("booking not found")
	}

	bookings[idx] = domain.Claim(bookings[idx], claimedBy, s.now().UTC())
	if err := s.repo.SaveAll(ctx, bookings); err != nil {
		return domain.Booking{}, err
	}
	return bookings[idx], nil
}

// List returns bookings newest first. Priority holds past their window are
// reported as Open.
func (s *Service) List(ctx context.Context) ([]domain.Booking, error) {
	bookings, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range bookings {
		domain.Lapse(&bookings[i], now)
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, nil
}

// TelegramClaim handles one bot update. The first valid CONFIRM wins; the
// same closer confirming again gets an idempotent duplicate result and a
// different closer gets already_claimed. Every outcome is answered in the
// originating chat.
func (s *Service) TelegramClaim(ctx context.Context, update telegram.Update) (transport.TelegramResult, error) {
	msg := update.Current()
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return transport.TelegramResult{Skipped: transport.SkippedNoText}, nil
	}
	text := strings.TrimSpace(msg.Text)
	if !domain.IsConfirm(text) {
		return transport.TelegramResult{Skipped: transport.SkippedNotConfirm}, nil
	}
	chatID := msg.ChatID()

	cmd := domain.ParseConfirm(text)
	if cmd.BookingID == "" {
		s.reply(ctx, chatID, "Please use: "+confirmUsage)
		return transport.TelegramResult{}, apperr.Validation(apperr.CodeMissingBookingID, "booking id is required")
	}
	claimedBy := cmd.Claimer
	if claimedBy == "" {
		claimedBy = msg.From.DisplayName()
	}
	if claimedBy == "" {
		s.reply(ctx, chatID, "Could not read your name. Please use: "+confirmUsage)
		return transport.TelegramResult{}, apperr.Validation(apperr.CodeMissingName, "claimer name is required")
	}

	bookings, err := s.repo.List(ctx)
	if err != nil {
		return transport.TelegramResult{}, err
	}
	idx := repository.IndexByID(bookings, cmd.BookingID)
	if idx < 0 {
		s.reply(ctx, chatID, fmt.Sprintf("Booking %s not found.", cmd.BookingID))
		return transport.TelegramResult{}, apperr.NotFound("booking not found")
	}

	current := bookings[idx]
	if current.IsClaimed() && strings.TrimSpace(current.ClaimedBy) != "" {
		if domain.SameClaimer(current.ClaimedBy, claimedBy) {
			s.reply(ctx, chatID, fmt.Sprintf("✅ Already claimed by you: %s\nApplicant: %s\nTime: %s",
				cmd.BookingID, orDash(current.ApplicantName, "Unknown"), orDash(current.RequestedAtEST, "—")))
			return transport.TelegramResult{BookingID: cmd.BookingID, ClaimedBy: claimedBy, Duplicate: true}, nil
		}
		s.reply(ctx, chatID, fmt.Sprintf("⚠️ %s is already claimed by %s.", cmd.BookingID, current.ClaimedBy))
		return transport.TelegramResult{}, apperr.Conflict(apperr.CodeAlreadyClaimed, "booking already claimed").
			WithDetails(map[string]string{"claimedBy": current.ClaimedBy})
	}

	claimed := domain.Claim(current, claimedBy, s.now().UTC())
	bookings[idx] = claimed
	if err := s.repo.SaveAll(ctx, bookings); err != nil {
		return transport.TelegramResult{}, err
	}

	result := transport.EmailResult{OK: true}
	if err := s.bus.PublishSync(ctx, s.claimedEvent(claimed)); err != nil {
		result = transport.EmailResult{OK: false, Error: err.Error()}
	}

	status := "\nAssignment email sent."
	if !result.OK {
		status = "\n(Email send pending/fallback.)"
	}
	s.reply(ctx, chatID, fmt.Sprintf("✅ Claimed: %s\nCloser: %s\nApplicant: %s\nTime: %s%s",
		cmd.BookingID, claimedBy, orDash(claimed.ApplicantName, "Unknown"), orDash(claimed.RequestedAtEST, "—"), status))

	return transport.TelegramResult{BookingID: cmd.BookingID, ClaimedBy: claimedBy, Email: &result}, nil
}

func (s *Service) claimedEvent(b domain.Booking) events.BookingClaimed {
	return events.BookingClaimed{
		BaseEvent:      events.NewBaseEvent(),
		BookingID:      b.ID,
		FirstName:      b.FirstName(),
		LastName:       b.LastName(),
		ApplicantName:  b.ApplicantName,
		ApplicantEmail: b.ApplicantEmail,
		ApplicantPhone: b.ApplicantPhone,
		ApplicantState: b.ApplicantState,
		ReferredBy:     b.ReferredBy,
		RequestedAtEST: b.RequestedAtEST,
		CalendarURL:    domain.CalendarLink(b, s.loc),
		ClaimedBy:      b.ClaimedBy,
	}
}

func (s *Service) reply(ctx context.Context, chatID, text string) {
	if err := s.chat.SendMessage(ctx, chatID, text); err != nil {
		s.log.WithContext(ctx).Warn("telegram reply failed", "chat_id", chatID, "error", err)
	}
}

func orDash(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
