package service

import (
	"context"
	"testing"
	"time"

	bookingsdomain "leadops_backend/internal/bookings/domain"
	"leadops_backend/internal/refdata"
	"leadops_backend/internal/sponsorship/domain"
	"leadops_backend/internal/sponsorship/repository"
	"leadops_backend/internal/sponsorship/transport"
	"leadops_backend/internal/store"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/logger"
)

type stubBookings struct{ rows []bookingsdomain.Booking }

func (s *stubBookings) List(context.Context) ([]bookingsdomain.Booking, error) { return s.rows, nil }

func newTestService(t *testing.T) (*Service, *stubBookings, *time.Time) {
	t.Helper()
	bookings := &stubBookings{}
	svc := New(repository.New(store.NewMemoryStore()), bookings, refdata.Default(), "https://example.com/book", logger.Nop())
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })
	return svc, bookings, &now
}

func TestSubmitDefaultsAndValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, transport.SubmitRequest{FirstName: "Ana"}); apperr.GetCode(err) != apperr.CodeMissingName {
		t.Fatalf("expected missing_name, got %v", err)
	}

	row, err := svc.Submit(ctx, transport.SubmitRequest{FirstName: " Ana ", LastName: "Diaz", Email: "ana@x.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "sapp_1772463600000" {
		t.Fatalf("unexpected id %q", row.ID)
	}
	if row.Status != domain.StatusPendingReview || row.DecisionBucket != domain.BucketManualReview || row.NormalizedName != "ANA DIAZ" {
		t.Fatalf("unexpected defaults %+v", row)
	}
}

func TestSubmitMergesSameApplicant(t *testing.T) {
	svc, _, now := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, transport.SubmitRequest{FirstName: "Ana", LastName: "Diaz", Email: "ana@x.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	*now = now.Add(time.Hour)
	second, err := svc.Submit(ctx, transport.SubmitRequest{FirstName: "ana", LastName: "DIAZ", Email: "ANA@x.com", State: "tx"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID || !second.SubmittedAt.Equal(first.SubmittedAt) || second.State != "TX" {
		t.Fatalf("expected merge into first submission, got %+v", second)
	}

	rows, _ := svc.List(ctx, "")
	if len(rows) != 1 {
		t.Fatalf("expected one application, got %d", len(rows))
	}
}

func TestReviewDeleteAndList(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	row, _ := svc.Submit(ctx, transport.SubmitRequest{FirstName: "Ana", LastName: "Diaz"})

	if _, err := svc.Review(ctx, transport.ReviewRequest{ID: row.ID}); apperr.GetCode(err) != apperr.CodeMissingFields {
		t.Fatalf("expected missing_fields, got %v", err)
	}
	if _, err := svc.Review(ctx, transport.ReviewRequest{ID: "nope", Decision: "approve"}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	reviewed, err := svc.Review(ctx, transport.ReviewRequest{ID: row.ID, Decision: "approve"})
	if err != nil || reviewed.Status != domain.StatusApproved || reviewed.ReviewedBy != "Kimora" {
		t.Fatalf("unexpected review %+v (%v)", reviewed, err)
	}

	approved, _ := svc.List(ctx, "approved – onboarding pending")
	pending, _ := svc.List(ctx, domain.StatusPendingReview)
	if len(approved) != 1 || len(pending) != 0 {
		t.Fatalf("unexpected status filter results %d/%d", len(approved), len(pending))
	}

	if _, err := svc.Delete(ctx, ""); apperr.GetCode(err) != apperr.CodeMissingID {
		t.Fatalf("expected missing_id, got %v", err)
	}
	if _, err := svc.Delete(ctx, row.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows, _ := svc.List(ctx, ""); len(rows) != 0 {
		t.Fatalf("expected empty list after delete")
	}
}

func TestApprovedNotBookedExcludesNameMatchedBooking(t *testing.T) {
	svc, bookings, now := newTestService(t)
	ctx := context.Background()

	ana, _ := svc.Submit(ctx, transport.SubmitRequest{FirstName: "Ana", LastName: "Diaz", RefCode: "kimora_link"})
	bo, _ := svc.Submit(ctx, transport.SubmitRequest{FirstName: "Bo", LastName: "Lee", Email: "bo@x.com"})
	for _, id := range []string{ana.ID, bo.ID} {
		if _, err := svc.Review(ctx, transport.ReviewRequest{ID: id, Decision: "approve"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if rows, _ := svc.ApprovedNotBooked(ctx); len(rows) != 0 {
		t.Fatalf("nothing is due before 24h, got %d", len(rows))
	}

	*now = now.Add(25 * time.Hour)
	bookings.rows = []bookingsdomain.Booking{{ApplicantName: "BO LEE"}}
	rows, err := svc.ApprovedNotBooked(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Application.ID != ana.ID {
		t.Fatalf("expected only Ana, got %+v", rows)
	}
	if rows[0].Agent != "Kimora Link" || rows[0].BookingURL != "https://example.com/book?id="+ana.ID {
		t.Fatalf("unexpected follow-up details %+v", rows[0])
	}
}
