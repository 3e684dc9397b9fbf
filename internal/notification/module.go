// Package notification provides event handlers for sending notifications
// (outbound webhooks, emails) in response to domain events.
// This module subscribes to events and inverts the dependency: domain modules
// no longer need to know about email providers or webhook targets.
package notification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadops_backend/internal/email"
	"leadops_backend/internal/events"
	"leadops_backend/internal/refdata"
	routingdomain "leadops_backend/internal/routing/domain"
	"leadops_backend/platform/logger"

	json "github.com/goccy/go-json"
)

// ErrNoRecipients is returned when neither the addressee nor any admin has
// an email on file.
var ErrNoRecipients = errors.New("no recipients")

// RouterSettingsReader provides the outbound webhook target.
type RouterSettingsReader interface {
	Settings(ctx context.Context) (routingdomain.Settings, error)
}

// Module handles domain events and fans them out to integrations.
type Module struct {
	sender   email.Sender
	tables   *refdata.Tables
	settings RouterSettingsReader
	http     *http.Client
	log      *logger.Logger
}

// New creates the notification module.
func New(sender email.Sender, tables *refdata.Tables, settings RouterSettingsReader, log *logger.Logger) *Module {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Module{
		sender:   sender,
		tables:   tables,
		settings: settings,
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

// SetHTTPClient replaces the client used for outbound webhooks.
func (m *Module) SetHTTPClient(c *http.Client) {
	m.http = c
}

// RegisterHandlers subscribes the module to all events it handles.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadAssigned{}.EventName(), m)
	bus.Subscribe(events.BookingClaimed{}.EventName(), m)
	bus.Subscribe(events.PolicyDecided{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadAssigned:
		return m.handleLeadAssigned(ctx, e)
	case events.BookingClaimed:
		return m.handleBookingClaimed(ctx, e)
	case events.PolicyDecided:
		return m.handlePolicyDecided(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

type outboundLead struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type outboundPayload struct {
	Event         string       `json:"event"`
	AssignedTo    string       `json:"assignedTo"`
	PreviousOwner string       `json:"previousOwner,omitempty"`
	Reason        string       `json:"reason"`
	Timestamp     time.Time    `json:"timestamp"`
	Message       string       `json:"message"`
	Lead          outboundLead `json:"lead"`
}

// handleLeadAssigned posts the assignment to the configured outbound
// webhook. Delivery is best effort: failures are logged and swallowed.
func (m *Module) handleLeadAssigned(ctx context.Context, e events.LeadAssigned) error {
	s, err := m.settings.Settings(ctx)
	if err != nil {
		m.log.IntegrationFailure("outbound_webhook", err, "lead_id", e.LeadID)
		return nil
	}
	target := strings.TrimSpace(s.OutboundWebhookURL)
	if target == "" || !s.OutboundEnabled {
		return nil
	}

	payload := outboundPayload{
		Event:         e.Kind,
		AssignedTo:    e.AssignedTo,
		PreviousOwner: e.PreviousOwner,
		Reason:        e.Reason,
		Timestamp:     e.OccurredAt(),
		Message:       assignmentMessage(e),
		Lead: outboundLead{
			ID:    firstNonEmpty(e.ExternalID, e.LeadID),
			Name:  e.Name,
			Email: e.Email,
			Phone: e.Phone,
		},
	}
	if payload.Event == "" {
		payload.Event = events.KindLeadAssigned
	}

	if err := m.postOutbound(ctx, target, s.OutboundToken, payload); err != nil {
		m.log.IntegrationFailure("outbound_webhook", err, "lead_id", e.LeadID, "assigned_to", e.AssignedTo)
	}
	return nil
}

func (m *Module) postOutbound(ctx context.Context, target, token string, payload outboundPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("x-router-token", token)
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("outbound webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return nil
}

func assignmentMessage(e events.LeadAssigned) string {
	contact := firstNonEmpty(e.Phone, e.Email, "no contact")
	if e.Kind == events.KindSLAReassign {
		return fmt.Sprintf("SLA reassigned lead to %s: %s (%s)", e.AssignedTo, e.Name, contact)
	}
	return fmt.Sprintf("New lead assigned to %s: %s (%s)", e.AssignedTo, e.Name, contact)
}

// handleBookingClaimed emails the closer and the admins. The error is
// returned so the synchronous publisher can report whether it went out.
func (m *Module) handleBookingClaimed(ctx context.Context, e events.BookingClaimed) error {
	recipients := email.Recipients(append([]string{m.tables.CloserEmail(e.ClaimedBy)}, m.tables.Admins...)...)
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	err := m.sender.SendBookingClaimedEmail(ctx, recipients, email.Booking{
		ID:             e.BookingID,
		ClaimedBy:      e.ClaimedBy,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		ApplicantName:  e.ApplicantName,
		ApplicantEmail: e.ApplicantEmail,
		ApplicantPhone: e.ApplicantPhone,
		ApplicantState: e.ApplicantState,
		RequestedAtEST: e.RequestedAtEST,
		ReferredBy:     e.ReferredBy,
		CalendarURL:    e.CalendarURL,
	})
	if err != nil {
		m.log.Error("failed to send booking claimed email", "bookingId", e.BookingID, "error", err)
		return err
	}
	m.log.Info("booking claimed email sent", "bookingId", e.BookingID, "recipients", len(recipients))
	return nil
}

// handlePolicyDecided emails the policy writer and the admins.
func (m *Module) handlePolicyDecided(ctx context.Context, e events.PolicyDecided) error {
	writerEmail := firstNonEmpty(e.WriterEmail, m.tables.CloserEmail(e.WriterName))
	recipients := email.Recipients(append([]string{writerEmail}, m.tables.Admins...)...)
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	p := email.Policy{
		WriterName:     e.WriterName,
		ApplicantName:  e.ApplicantName,
		ReferredBy:     e.ReferredBy,
		MonthlyPremium: e.MonthlyPremium,
	}
	if e.PayoutDueAt != nil {
		p.PayoutDueLabel = e.PayoutDueAt.Format("Monday, Jan 2")
	}

	var err error
	if e.Approved {
		err = m.sender.SendPolicyApprovedEmail(ctx, recipients, p)
	} else {
		err = m.sender.SendPolicyDeclinedEmail(ctx, recipients, p)
	}
	if err != nil {
		m.log.Error("failed to send policy decision email", "policyId", e.PolicyID, "approved", e.Approved, "error", err)
		return err
	}
	m.log.Info("policy decision email sent", "policyId", e.PolicyID, "approved", e.Approved)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
