package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	bookingdomain "leadops_backend/internal/bookings/domain"
	"leadops_backend/internal/telegram"
	"leadops_backend/platform/apperr"
)

const (
	digestHeader = "📌 Sponsorship Assignment Reminder"
	digestEmpty  = "📌 Sponsorship assignment reminder: no claimed bookings at the moment."
)

func (s *Service) runDigest(ctx context.Context) (Result, error) {
	if s.deps.Chat == nil {
		return Result{}, apperr.Upstream("telegram digest", telegram.ErrNotConfigured)
	}
	bookings, err := s.deps.Bookings.List(ctx)
	if err != nil {
		return Result{}, err
	}

	claimed := make([]bookingdomain.Booking, 0)
	for _, b := range bookings {
		if b.IsClaimed() && strings.TrimSpace(b.ClaimedBy) != "" {
			claimed = append(claimed, b)
		}
	}

	res := Result{Job: JobTelegramDigest, Scanned: len(claimed), Errors: []RecordError{}}
	err = s.deps.Chat.SendMessage(ctx, s.deps.Chat.DefaultChatID(), Digest(claimed, s.loc))
	s.observe(JobTelegramDigest, err == nil)
	if err != nil {
		res.Errors = append(res.Errors, RecordError{Type: "telegram", Error: err.Error()})
		return res, nil
	}
	res.Sent = 1
	return res, nil
}

// Digest renders claimed bookings grouped by claimer, in first-seen claimer
// order, each group sorted by requested time.
func Digest(claimed []bookingdomain.Booking, loc *time.Location) string {
	if len(claimed) == 0 {
		return digestEmpty
	}

	order := make([]string, 0)
	groups := make(map[string][]bookingdomain.Booking)
	for _, b := range claimed {
		key := strings.TrimSpace(b.ClaimedBy)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], b)
	}

	lines := []string{digestHeader}
	for _, claimer := range order {
		list := groups[claimer]
		sort.SliceStable(list, func(i, j int) bool {
			return requestedAt(list[i], loc).Before(requestedAt(list[j], loc))
		})
		lines = append(lines, "\n"+claimer)
		for _, b := range list {
			lines = append(lines, fmt.Sprintf("- %s | %s | %s | %s",
				orDefault(b.ApplicantName, "Unknown"),
				orDefault(b.ApplicantState, "—"),
				orDefault(b.RequestedAtEST, "—"),
				b.ID,
			))
		}
	}
	return strings.Join(lines, "\n")
}

func requestedAt(b bookingdomain.Booking, loc *time.Location) time.Time {
	t, _ := bookingdomain.ParseRequestedAt(b.RequestedAtEST, loc)
	return t
}
