// Package domain holds the sponsorship booking record, its claim states and
// the pure helpers around it: the context gate, requested-time parsing,
// calendar links and the chat CONFIRM command.
package domain

import (
	"strings"
	"time"

	"leadops_backend/platform/sanitize"
)

const (
	StatusOpen         = "Open"
	StatusPriorityHold = "Priority Hold"
	StatusClaimed      = "Claimed"

	// IDPrefix starts every booking id ("book_<ms>").
	IDPrefix = "book_"
)

// Booking is one requested sponsorship call. Field names follow the stored
// document.
type Booking struct {
	ID                  string   `json:"id"`
	SourceApplicationID string   `json:"source_application_id"`
	ApplicantFirstName  string   `json:"applicant_first_name,omitempty"`
	ApplicantLastName   string   `json:"applicant_last_name,omitempty"`
	ApplicantName       string   `json:"applicant_name"`
	ApplicantEmail      string   `json:"applicant_email,omitempty"`
	ApplicantPhone      string   `json:"applicant_phone,omitempty"`
	ApplicantState      string   `json:"applicant_state,omitempty"`
	LicensedStatus      string   `json:"licensed_status,omitempty"`
	ReferredBy          string   `json:"referred_by,omitempty"`
	ReferralCode        string   `json:"referral_code,omitempty"`
	RequestedAtEST      string   `json:"requested_at_est"`
	Score               float64  `json:"score,omitempty"`
	DecisionBucket      string   `json:"decision_bucket,omitempty"`
	EligibleClosers     []string `json:"eligible_closers,omitempty"`
	Notes               string   `json:"notes,omitempty"`

	ClaimStatus string     `json:"claim_status"`
	ClaimedBy   string     `json:"claimed_by"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`

	PriorityAgent     string     `json:"priority_agent,omitempty"`
	PriorityExpiresAt *time.Time `json:"priority_expires_at,omitempty"`

	DayOfReminderSentAt      *time.Time `json:"day_of_reminder_sent_at,omitempty"`
	HourBeforeReminderSentAt *time.Time `json:"hour_before_reminder_sent_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasContext is the data-integrity gate for create and upsert: a booking
// must point at its application, carry a first or last name and not be
// named "unknown".
func (b Booking) HasContext() bool {
	if strings.TrimSpace(b.SourceApplicationID) == "" {
		return false
	}
	if strings.TrimSpace(b.ApplicantFirstName) == "" && strings.TrimSpace(b.ApplicantLastName) == "" {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(b.ApplicantName), "unknown")
}

// IsClaimed reports whether the booking has a claimer on record.
func (b Booking) IsClaimed() bool {
	return strings.EqualFold(strings.TrimSpace(b.ClaimStatus), StatusClaimed)
}

// FirstName falls back to the first word of the applicant name.
func (b Booking) FirstName() string {
	if v := strings.TrimSpace(b.ApplicantFirstName); v != "" {
		return v
	}
	first, _, _ := strings.Cut(strings.TrimSpace(b.ApplicantName), " ")
	return first
}

// LastName falls back to everything after the first word of the applicant
// name.
func (b Booking) LastName() string {
	if v := strings.TrimSpace(b.ApplicantLastName); v != "" {
		return v
	}
	_, rest, _ := strings.Cut(strings.TrimSpace(b.ApplicantName), " ")
	return strings.TrimSpace(rest)
}

// Claim records claimer as the closer. Any earlier claim is overwritten.
func Claim(b Booking, claimer string, now time.Time) Booking {
	t := now
	b.ClaimStatus = StatusClaimed
	b.ClaimedBy = strings.TrimSpace(claimer)
	b.ClaimedAt = &t
	b.UpdatedAt = now
	return b
}

// SameClaimer compares two closer names ignoring case and punctuation.
func SameClaimer(a, b string) bool {
	ka, kb := sanitize.NameKey(a), sanitize.NameKey(b)
	return ka != "" && ka == kb
}

// Licensing answers whether an agent may take calls in a state.
type Licensing interface {
	LicensedIn(owner, state string) bool
	OwnerForRefCode(code string) string
}

// PriorityAgent returns the referral owner when they are licensed in the
// applicant's state, or "".
func PriorityAgent(b Booking, lic Licensing) string {
	owner := strings.TrimSpace(b.ReferredBy)
	if owner == "" {
		owner = lic.OwnerForRefCode(b.ReferralCode)
	}
	if owner == "" || strings.TrimSpace(b.ApplicantState) == "" {
		return ""
	}
	if !lic.LicensedIn(owner, b.ApplicantState) {
		return ""
	}
	return owner
}

// Open sets the initial claim state of a new booking: a priority hold for
// the licensed referral owner lasting window, or Open.
func Open(b Booking, lic Licensing, window time.Duration, now time.Time) Booking {
	if agent := PriorityAgent(b, lic); agent != "" && window > 0 {
		expires := now.Add(window)
		b.ClaimStatus = StatusPriorityHold
		b.PriorityAgent = agent
		b.PriorityExpiresAt = &expires
		return b
	}
	b.ClaimStatus = StatusOpen
	return b
}

// Lapse returns a priority hold whose window has passed to Open. It
// reports whether anything changed.
func Lapse(b *Booking, now time.Time) bool {
	if b.ClaimStatus != StatusPriorityHold || b.PriorityExpiresAt == nil {
		return false
	}
	if now.Before(*b.PriorityExpiresAt) {
		return false
	}
	b.ClaimStatus = StatusOpen
	return true
}
