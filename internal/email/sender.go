// Package email renders and delivers the operational emails: booking claim
// confirmations, booking reminders, approved-not-booked follow-ups and
// policy decisions.
package email

import (
	"context"
	"fmt"
	"strings"

	"leadops_backend/platform/config"
)

// Sender delivers rendered emails. Every method returns the delivery error
// so callers decide whether to swallow or collect it.
type Sender interface {
	SendBookingClaimedEmail(ctx context.Context, recipients []string, b Booking) error
	SendBookingReminderEmail(ctx context.Context, recipients []string, kind ReminderKind, b Booking) error
	SendFollowupApplicantEmail(ctx context.Context, toEmail, firstName, bookingURL string) error
	SendFollowupAgentEmail(ctx context.Context, toEmail, agentName string, a Applicant) error
	SendPolicyApprovedEmail(ctx context.Context, recipients []string, p Policy) error
	SendPolicyDeclinedEmail(ctx context.Context, recipients []string, p Policy) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// ReminderKind selects the booking reminder variant.
type ReminderKind string

const (
	ReminderDayOf      ReminderKind = "day_of"
	ReminderHourBefore ReminderKind = "hour_before"
)

// Booking is the booking snapshot rendered into claim and reminder emails.
type Booking struct {
	ID             string
	ClaimedBy      string
	FirstName      string
	LastName       string
	ApplicantName  string
	ApplicantEmail string
	ApplicantPhone string
	ApplicantState string
	RequestedAtEST string
	ReferredBy     string
	CalendarURL    string
}

// Applicant is the approved applicant described to the referring agent.
type Applicant struct {
	FullName   string
	Email      string
	Phone      string
	BookingURL string
}

// Policy is the policy submission described in decision emails.
type Policy struct {
	WriterName     string
	ApplicantName  string
	ReferredBy     string
	MonthlyPremium float64
	PayoutDueLabel string
}

// transport delivers one already-rendered message.
type transport interface {
	send(ctx context.Context, to []string, subject, htmlContent string) error
}

// NewSender returns the configured provider, or a NoopSender when email is
// disabled.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}

	switch strings.ToLower(cfg.GetEmailProvider()) {
	case "brevo", "":
		return newTemplated(NewBrevoTransport(cfg.GetBrevoAPIKey(), cfg.GetEmailFromName(), cfg.GetEmailFromAddress())), nil
	case "smtp":
		return newTemplated(NewSMTPTransport(
			cfg.GetSMTPHost(),
			cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(),
			cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(),
			cfg.GetEmailFromName(),
		)), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.GetEmailProvider())
	}
}

// NoopSender drops every message.
type NoopSender struct{}

func (NoopSender) SendBookingClaimedEmail(ctx context.Context, recipients []string, b Booking) error {
	return nil
}

func (NoopSender) SendBookingReminderEmail(ctx context.Context, recipients []string, kind ReminderKind, b Booking) error {
	return nil
}

func (NoopSender) SendFollowupApplicantEmail(ctx context.Context, toEmail, firstName, bookingURL string) error {
	return nil
}

func (NoopSender) SendFollowupAgentEmail(ctx context.Context, toEmail, agentName string, a Applicant) error {
	return nil
}

func (NoopSender) SendPolicyApprovedEmail(ctx context.Context, recipients []string, p Policy) error {
	return nil
}

func (NoopSender) SendPolicyDeclinedEmail(ctx context.Context, recipients []string, p Policy) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

// Recipients trims, drops blanks and de-duplicates addresses case-insensitively,
// keeping first-seen order.
func Recipients(addrs ...string) []string {
	seen := make(map[string]struct{}, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		key := strings.ToLower(a)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
