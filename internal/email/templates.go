package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type bookingEmailData struct {
	baseEmailData
	Greeting string
	Intro    string
	Booking  Booking
}

type followupApplicantEmailData struct {
	baseEmailData
	FirstName string
}

type followupAgentEmailData struct {
	baseEmailData
	AgentName string
	Applicant Applicant
}

type policyEmailData struct {
	baseEmailData
	Policy Policy
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

// templated renders each message and hands it to a transport.
type templated struct {
	t transport
}

func newTemplated(t transport) *templated {
	return &templated{t: t}
}

func (s *templated) SendBookingClaimedEmail(ctx context.Context, recipients []string, b Booking) error {
	subject := fmt.Sprintf(subjectBookingClaimedFmt, orDash(b.ApplicantName, "Applicant"), orDash(b.RequestedAtEST, "Time TBD"))
	content, err := renderEmailTemplate("booking_claimed.html", bookingEmailData{
		baseEmailData: baseEmailData{
			Title:    "Claim confirmed",
			Heading:  "Claim confirmed",
			CTALabel: "Add to calendar",
			CTAURL:   b.CalendarURL,
		},
		Greeting: orDash(b.ClaimedBy, "there"),
		Booking:  b,
	})
	if err != nil {
		return err
	}
	return s.t.send(ctx, recipients, subject, content)
}

func (s *templated) SendBookingReminderEmail(ctx context.Context, recipients []string, kind ReminderKind, b Booking) error {
	subjectFmt, intro := subjectDayOfReminderFmt, "Day-of reminder for claimed sponsorship booking."
	if kind == ReminderHourBefore {
		subjectFmt, intro = subjectHourBeforeReminderFmt, "One-hour reminder for claimed sponsorship booking."
	}
	subject := fmt.Sprintf(subjectFmt, orDash(b.ApplicantName, "Applicant"), b.RequestedAtEST)
	content, err := renderEmailTemplate("booking_reminder.html", bookingEmailData{
		baseEmailData: baseEmailData{
			Title:   "Sponsorship booking reminder",
			Heading: "Sponsorship booking reminder",
		},
		Greeting: orDash(b.ClaimedBy, "there"),
		Intro:    intro,
		Booking:  b,
	})
	if err != nil {
		return err
	}
	return s.t.send(ctx, recipients, subject, content)
}

func (s *templated) SendFollowupApplicantEmail(ctx context.Context, toEmail, firstName, bookingURL string) error {
	content, err := renderEmailTemplate("followup_applicant.html", followupApplicantEmailData{
		baseEmailData: baseEmailData{
			Title:    subjectFollowupApplicant,
			Heading:  "Your sponsorship approval is active",
			CTALabel: "Book your call",
			CTAURL:   bookingURL,
		},
		FirstName: orDash(firstName, "there"),
	})
	if err != nil {
		return err
	}
	return s.t.send(ctx, []string{toEmail}, subjectFollowupApplicant, content)
}

func (s *templated) SendFollowupAgentEmail(ctx context.Context, toEmail, agentName string, a Applicant) error {
	subject := fmt.Sprintf(subjectFollowupAgentFmt, orDash(a.FullName, "Applicant"))
	content, err := renderEmailTemplate("followup_agent.html", followupAgentEmailData{
		baseEmailData: baseEmailData{
			Title:    subject,
			Heading:  "Approved but not booked",
			CTALabel: "Open booking link",
			CTAURL:   a.BookingURL,
		},
		AgentName: orDash(agentName, "Agent"),
		Applicant: a,
	})
	if err != nil {
		return err
	}
	return s.t.send(ctx, []string{toEmail}, subject, content)
}

func (s *templated) SendPolicyApprovedEmail(ctx context.Context, recipients []string, p Policy) error {
	subject := fmt.Sprintf(subjectPolicyApprovedFmt, orDash(p.ApplicantName, "Applicant"))
	content, err := renderEmailTemplate("policy_approved.html", policyEmailData{
		baseEmailData: baseEmailData{Title: "Policy Approved", Heading: "Policy Approved"},
		Policy:        p,
	})
	if err != nil {
		return err
	}
	return s.t.send(ctx, recipients, subject, content)
}

func (s *templated) SendPolicyDeclinedEmail(ctx context.Context, recipients []string, p Policy) error {
	subject := fmt.Sprintf(subjectPolicyDeclinedFmt, orDash(p.ApplicantName, "Applicant"))
	content, err := renderEmailTemplate("policy_declined.html", policyEmailData{
		baseEmailData: baseEmailData{Title: "Policy Declined", Heading: "Policy Declined - Next Options"},
		Policy:        p,
	})
	if err != nil {
		return err
	}
	return s.t.send(ctx, recipients, subject, content)
}

func (s *templated) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return s.t.send(ctx, []string{toEmail}, subject, htmlContent)
}

func orDash(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
