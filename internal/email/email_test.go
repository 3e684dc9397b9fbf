package email

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

type sentMessage struct {
	to      []string
	subject string
	html    string
}

type recordingTransport struct {
	sent []sentMessage
}

func (r *recordingTransport) send(_ context.Context, to []string, subject, htmlContent string) error {
	r.sent = append(r.sent, sentMessage{to: to, subject: subject, html: htmlContent})
	return nil
}

func TestBookingClaimedEmailRendersDetails(t *testing.T) {
	rec := &recordingTransport{}
	s := newTemplated(rec)

	err := s.SendBookingClaimedEmail(context.Background(), []string{"closer@example.com"}, Booking{
		ClaimedBy:      "Jamal Holmes",
		ApplicantName:  "Ana Diaz",
		FirstName:      "Ana",
		LastName:       "Diaz",
		RequestedAtEST: "2026-03-04 2:30 PM",
		ReferredBy:     "Kimora Link",
		CalendarURL:    "https://calendar.google.com/calendar/render?action=TEMPLATE",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(rec.sent))
	}
	msg := rec.sent[0]
	if msg.subject != "Claim Confirmed: Ana Diaz (2026-03-04 2:30 PM)" {
		t.Fatalf("unexpected subject %q", msg.subject)
	}
	for _, want := range []string{"Jamal Holmes", "Kimora Link", "Add to calendar", "calendar.google.com"} {
		if !strings.Contains(msg.html, want) {
			t.Errorf("expected html to contain %q", want)
		}
	}
}

func TestBookingReminderSubjects(t *testing.T) {
	rec := &recordingTransport{}
	s := newTemplated(rec)
	b := Booking{ApplicantName: "Ana Diaz", RequestedAtEST: "2026-03-04 2:30 PM", ID: "book_1"}

	if err := s.SendBookingReminderEmail(context.Background(), []string{"a@example.com"}, ReminderDayOf, b); err != nil {
		t.Fatalf("day-of: %v", err)
	}
	if err := s.SendBookingReminderEmail(context.Background(), []string{"a@example.com"}, ReminderHourBefore, b); err != nil {
		t.Fatalf("hour-before: %v", err)
	}
	if !strings.HasPrefix(rec.sent[0].subject, "Day-Of Sponsorship Reminder") {
		t.Errorf("unexpected day-of subject %q", rec.sent[0].subject)
	}
	if !strings.HasPrefix(rec.sent[1].subject, "1-Hour Reminder") {
		t.Errorf("unexpected hour-before subject %q", rec.sent[1].subject)
	}
	if !strings.Contains(rec.sent[1].html, "book_1") {
		t.Errorf("expected booking id in body")
	}
}

func TestEveryTemplateRenders(t *testing.T) {
	rec := &recordingTransport{}
	s := newTemplated(rec)
	ctx := context.Background()

	if err := s.SendFollowupApplicantEmail(ctx, "ana@example.com", "Ana", "https://example.com/book?id=sapp_1"); err != nil {
		t.Fatalf("followup applicant: %v", err)
	}
	if err := s.SendFollowupAgentEmail(ctx, "agent@example.com", "Kimora Link", Applicant{FullName: "Ana Diaz"}); err != nil {
		t.Fatalf("followup agent: %v", err)
	}
	if err := s.SendPolicyApprovedEmail(ctx, []string{"w@example.com"}, Policy{ApplicantName: "Ana Diaz", MonthlyPremium: 125.5}); err != nil {
		t.Fatalf("policy approved: %v", err)
	}
	if err := s.SendPolicyDeclinedEmail(ctx, []string{"w@example.com"}, Policy{ApplicantName: "Ana Diaz"}); err != nil {
		t.Fatalf("policy declined: %v", err)
	}
	if len(rec.sent) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(rec.sent))
	}
	if !strings.Contains(rec.sent[2].html, "125.50") {
		t.Errorf("expected formatted premium in approval email")
	}
	if !strings.Contains(rec.sent[3].html, "JumpStart") {
		t.Errorf("expected next options in decline email")
	}
}

func TestRecipientsDedupes(t *testing.T) {
	got := Recipients(" a@example.com ", "", "A@example.com", "b@example.com")
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "b@example.com" {
		t.Fatalf("unexpected recipients %v", got)
	}
}

func TestBrevoTransportPostsPayload(t *testing.T) {
	var captured brevoEmailRequest
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	b := NewBrevoTransport("key-1", "Inner Circle", "ops@example.com")
	b.endpoint = srv.URL

	if err := b.send(context.Background(), []string{"x@example.com", "X@example.com"}, "Hello", "<p>hi</p>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if apiKey != "key-1" {
		t.Fatalf("expected api key header, got %q", apiKey)
	}
	if len(captured.To) != 1 || captured.Subject != "Hello" || captured.Sender.Email != "ops@example.com" {
		t.Fatalf("unexpected payload %+v", captured)
	}
}

func TestBrevoTransportReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	b := NewBrevoTransport("bad", "", "ops@example.com")
	b.endpoint = srv.URL
	if err := b.send(context.Background(), []string{"x@example.com"}, "s", "h"); err == nil {
		t.Fatalf("expected error for 401")
	}
	if err := b.send(context.Background(), nil, "s", "h"); err == nil {
		t.Fatalf("expected error for empty recipients")
	}
}

func TestSMTPMessageRequiresRecipients(t *testing.T) {
	s := NewSMTPTransport("smtp.example.com", 587, "", "", "ops@example.com", "Ops")
	if _, err := s.message(nil, "s", "h"); err == nil {
		t.Fatalf("expected error without recipients")
	}
	msg, err := s.message([]string{"a@example.com", "b@example.com"}, "Subject", "<p>x</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := msg.GetTo(); len(got) != 2 {
		t.Fatalf("expected two recipients, got %v", got)
	}
}
