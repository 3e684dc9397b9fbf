package domain

import (
	"testing"
	"time"

	bookingsdomain "leadops_backend/internal/bookings/domain"
)

var t0 = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func TestReviewDecisions(t *testing.T) {
	app := Application{ID: "sapp_1", Status: StatusPendingReview, DecisionBucket: BucketManualReview}

	approved := Review(app, "Approve", "", t0)
	if approved.Status != StatusApproved || approved.DecisionBucket != BucketAutoApproved || approved.ReviewedBy != DefaultReviewer {
		t.Fatalf("unexpected approval %+v", approved)
	}
	if approved.ApprovedAt == nil || !approved.IsApproved() {
		t.Fatalf("expected approval stamp")
	}

	declined := Review(app, "decline", "Jamal", t0)
	if declined.Status != StatusNotQualified || declined.DecisionBucket != BucketNotQualified || declined.IsApproved() {
		t.Fatalf("unexpected decline %+v", declined)
	}

	other := Review(app, "later", "Jamal", t0)
	if other.Status != StatusPendingReview || other.ReviewedAt == nil {
		t.Fatalf("unknown decisions only stamp the review, got %+v", other)
	}
}

func TestAnchorOrder(t *testing.T) {
	reviewed := t0.Add(time.Hour)
	approved := t0.Add(2 * time.Hour)
	app := Application{SubmittedAt: t0, UpdatedAt: t0.Add(3 * time.Hour), ReviewedAt: &reviewed}
	if got, _ := app.Anchor(); !got.Equal(reviewed) {
		t.Fatalf("expected review anchor, got %v", got)
	}
	app.ApprovedAt = &approved
	if got, _ := app.Anchor(); !got.Equal(approved) {
		t.Fatalf("expected approval anchor, got %v", got)
	}
	if _, ok := (Application{}).Anchor(); ok {
		t.Fatalf("expected no anchor")
	}
}

func TestDedupeKeepsEarliestSubmission(t *testing.T) {
	apps := []Application{
		{ID: "sapp_2", FirstName: "Ana", LastName: "Diaz", Email: "ANA@x.com", Phone: "", SubmittedAt: t0.Add(time.Hour), UpdatedAt: t0.Add(time.Hour), State: "TX"},
		{ID: "sapp_1", FirstName: "ana", LastName: "diaz", Email: "ana@x.com", Phone: "555", SubmittedAt: t0, UpdatedAt: t0},
		{ID: "sapp_3", FirstName: "Bo", LastName: "Lee", Phone: "(555) 010-0000", SubmittedAt: t0, UpdatedAt: t0},
	}
	got := Dedupe(apps)
	if len(got) != 2 {
		t.Fatalf("expected two applicants, got %d", len(got))
	}
	merged := got[0]
	if merged.ID != "sapp_1" || !merged.SubmittedAt.Equal(t0) {
		t.Fatalf("expected earliest id and submission, got %+v", merged)
	}
	if merged.State != "TX" || merged.Phone != "555" || merged.Email != "ANA@x.com" {
		t.Fatalf("expected latest fields with gaps filled, got %+v", merged)
	}
	if merged.NormalizedName != "ANA DIAZ" {
		t.Fatalf("unexpected normalized name %q", merged.NormalizedName)
	}
}

func TestIsBookedMatches(t *testing.T) {
	app := Application{ID: "sapp_1", FirstName: "Ana", LastName: "Diaz", Email: "ana@x.com"}
	cases := []struct {
		name     string
		bookings []bookingsdomain.Booking
		want     bool
	}{
		{"by source id", []bookingsdomain.Booking{{SourceApplicationID: "sapp_1"}}, true},
		{"by name key", []bookingsdomain.Booking{{ApplicantName: "ana-diaz"}}, true},
		{"by email", []bookingsdomain.Booking{{ApplicantEmail: " ANA@X.COM "}}, true},
		{"no match", []bookingsdomain.Booking{{SourceApplicationID: "sapp_9", ApplicantName: "Bo Lee"}}, false},
	}
	for _, tc := range cases {
		if got := IsBooked(app, tc.bookings); got != tc.want {
			t.Errorf("%s: IsBooked() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

type stubDirectory struct{}

func (stubDirectory) OwnerForRefCode(code string) string {
	if code == "kimora_link" {
		return "Kimora Link"
	}
	return ""
}

func (stubDirectory) MatchCloser(fragment string) string {
	if fragment == "jamal h" {
		return "Jamal Holmes"
	}
	return ""
}

func (stubDirectory) CloserEmail(name string) string { return "" }

func TestReferralAgentFallbacks(t *testing.T) {
	cases := []struct {
		app  Application
		want string
	}{
		{Application{ReferralName: "Kelin Brown", RefCode: "kimora_link"}, "Kelin Brown"},
		{Application{ReferredBy: "Madalyn Adams"}, "Madalyn Adams"},
		{Application{RefCode: "KIMORA_LINK"}, "Kimora Link"},
		{Application{RefCode: "jamal-h"}, "Jamal Holmes"},
		{Application{}, ""},
	}
	for _, tc := range cases {
		if got := ReferralAgent(tc.app, stubDirectory{}); got != tc.want {
			t.Errorf("ReferralAgent(%+v) = %q, want %q", tc.app, got, tc.want)
		}
	}
}

func TestDueForFollowup(t *testing.T) {
	approvedAt := t0
	app := Application{ID: "sapp_1", Status: StatusApproved, ApprovedAt: &approvedAt}

	if _, due := DueForFollowup(app, false, t0.Add(23*time.Hour)); due {
		t.Fatalf("not due before 24h")
	}
	if _, due := DueForFollowup(app, false, t0.Add(24*time.Hour)); !due {
		t.Fatalf("due at 24h")
	}
	if _, due := DueForFollowup(app, true, t0.Add(48*time.Hour)); due {
		t.Fatalf("booked applicants are never due")
	}
	if got := BookingURL("https://example.com/sponsorship-booking", "sapp 1"); got != "https://example.com/sponsorship-booking?id=sapp+1" {
		t.Fatalf("unexpected booking url %q", got)
	}
}
