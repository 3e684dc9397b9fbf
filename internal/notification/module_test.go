package notification

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"leadops_backend/internal/email"
	"leadops_backend/internal/events"
	"leadops_backend/internal/refdata"
	routingdomain "leadops_backend/internal/routing/domain"
	"leadops_backend/platform/logger"

	json "github.com/goccy/go-json"
)

type stubSettings struct {
	s   routingdomain.Settings
	err error
}

func (s stubSettings) Settings(ctx context.Context) (routingdomain.Settings, error) {
	return s.s, s.err
}

type sentMail struct {
	kind       string
	recipients []string
	booking    email.Booking
	policy     email.Policy
}

type fakeSender struct {
	email.NoopSender
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeSender) record(m sentMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return f.err
}

func (f *fakeSender) SendBookingClaimedEmail(ctx context.Context, recipients []string, b email.Booking) error {
	return f.record(sentMail{kind: "claimed", recipients: recipients, booking: b})
}

func (f *fakeSender) SendPolicyApprovedEmail(ctx context.Context, recipients []string, p email.Policy) error {
	return f.record(sentMail{kind: "approved", recipients: recipients, policy: p})
}

func (f *fakeSender) SendPolicyDeclinedEmail(ctx context.Context, recipients []string, p email.Policy) error {
	return f.record(sentMail{kind: "declined", recipients: recipients, policy: p})
}

func testTables() *refdata.Tables {
	return &refdata.Tables{
		Closers: []refdata.Closer{{Name: "Jamal Holmes", Email: "jamal@example.com"}},
		Admins:  []string{"admin@example.com", "JAMAL@example.com"},
	}
}

func TestLeadAssignedPostsOutboundWebhook(t *testing.T) {
	var gotToken string
	var got outboundPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("x-router-token")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	settings := stubSettings{s: routingdomain.Settings{OutboundEnabled: true, OutboundWebhookURL: srv.URL, OutboundToken: "tok"}}
	m := New(&fakeSender{}, testTables(), settings, logger.Nop())

	err := m.Handle(context.Background(), events.LeadAssigned{
		BaseEvent:  events.NewBaseEventAt(time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)),
		Kind:       events.KindLeadAssigned,
		LeadID:     "row-1",
		ExternalID: "ext-1",
		Name:       "Ana Diaz",
		Email:      "ana@example.com",
		AssignedTo: "Jamal Holmes",
		Reason:     "eligible_random",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotToken != "tok" {
		t.Fatalf("expected router token header, got %q", gotToken)
	}
	if got.Event != "lead_assigned" || got.Lead.ID != "ext-1" || got.AssignedTo != "Jamal Holmes" {
		t.Fatalf("unexpected payload %+v", got)
	}
	if got.Message != "New lead assigned to Jamal Holmes: Ana Diaz (ana@example.com)" {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestLeadAssignedSkipsWhenOutboundDisabled(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	settings := stubSettings{s: routingdomain.Settings{OutboundEnabled: false, OutboundWebhookURL: srv.URL}}
	m := New(nil, testTables(), settings, logger.Nop())
	if err := m.Handle(context.Background(), events.LeadAssigned{AssignedTo: "X"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected no outbound call")
	}
}

func TestLeadAssignedSwallowsWebhookFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	settings := stubSettings{s: routingdomain.Settings{OutboundEnabled: true, OutboundWebhookURL: srv.URL}}
	m := New(nil, testTables(), settings, logger.Nop())
	if err := m.Handle(context.Background(), events.LeadAssigned{AssignedTo: "X"}); err != nil {
		t.Fatalf("expected failure to be swallowed, got %v", err)
	}
}

func TestBookingClaimedEmailsCloserAndAdmins(t *testing.T) {
	sender := &fakeSender{}
	m := New(sender, testTables(), stubSettings{}, logger.Nop())

	err := m.Handle(context.Background(), events.BookingClaimed{BookingID: "book_1", ClaimedBy: "jamal holmes", ApplicantName: "Ana Diaz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sender.sent))
	}
	got := sender.sent[0]
	if strings.Join(got.recipients, ",") != "jamal@example.com,admin@example.com" {
		t.Fatalf("unexpected recipients %v", got.recipients)
	}
	if got.booking.ID != "book_1" || got.booking.ClaimedBy != "jamal holmes" {
		t.Fatalf("unexpected booking %+v", got.booking)
	}
}

func TestBookingClaimedReturnsSendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	m := New(sender, testTables(), stubSettings{}, logger.Nop())
	if err := m.Handle(context.Background(), events.BookingClaimed{BookingID: "book_1", ClaimedBy: "Jamal Holmes"}); err == nil {
		t.Fatalf("expected send error")
	}
}

func TestBookingClaimedWithoutRecipients(t *testing.T) {
	m := New(&fakeSender{}, &refdata.Tables{}, stubSettings{}, logger.Nop())
	err := m.Handle(context.Background(), events.BookingClaimed{BookingID: "book_1", ClaimedBy: "Nobody"})
	if !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}

func TestPolicyDecidedPicksTemplate(t *testing.T) {
	sender := &fakeSender{}
	m := New(sender, testTables(), stubSettings{}, logger.Nop())
	due := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)

	if err := m.Handle(context.Background(), events.PolicyDecided{PolicyID: "pol_1", Approved: true, WriterName: "Jamal Holmes", ApplicantName: "Ana", PayoutDueAt: &due}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Handle(context.Background(), events.PolicyDecided{PolicyID: "pol_1", WriterName: "Jamal Holmes", ApplicantName: "Ana"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 2 || sender.sent[0].kind != "approved" || sender.sent[1].kind != "declined" {
		t.Fatalf("unexpected emails %+v", sender.sent)
	}
	if sender.sent[0].policy.PayoutDueLabel != "Friday, Mar 13" {
		t.Fatalf("unexpected due label %q", sender.sent[0].policy.PayoutDueLabel)
	}
	if sender.sent[0].recipients[0] != "jamal@example.com" {
		t.Fatalf("expected writer first, got %v", sender.sent[0].recipients)
	}
}

func TestRegisterHandlersSubscribesToBus(t *testing.T) {
	sender := &fakeSender{}
	bus := events.NewInMemoryBus(logger.Nop())
	New(sender, testTables(), stubSettings{}, logger.Nop()).RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), events.BookingClaimed{BookingID: "book_9", ClaimedBy: "Jamal Holmes"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected handler to run")
	}
}
