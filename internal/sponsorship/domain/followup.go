package domain

import (
	"net/url"
	"strings"
	"time"
)

// FollowupRecord tracks which approved-not-booked emails went out for one
// application.
type FollowupRecord struct {
	Followup24hSentAt *time.Time `json:"followup24hSentAt,omitempty"`
	Agent24hSentAt    *time.Time `json:"agent24hSentAt,omitempty"`
	LastTouchedAt     *time.Time `json:"lastTouchedAt,omitempty"`
}

// Done reports whether both follow-ups were sent.
func (r FollowupRecord) Done() bool {
	return r.Followup24hSentAt != nil && r.Agent24hSentAt != nil
}

// FollowupState is the idempotency document of the follow-up job.
type FollowupState struct {
	ByID      map[string]*FollowupRecord `json:"byId"`
	UpdatedAt *time.Time                 `json:"updatedAt,omitempty"`
}

// Record returns the entry for id, creating it when absent.
func (s *FollowupState) Record(id string) *FollowupRecord {
	if s.ByID == nil {
		s.ByID = map[string]*FollowupRecord{}
	}
	r, ok := s.ByID[id]
	if !ok {
		r = &FollowupRecord{}
		s.ByID[id] = r
	}
	return r
}

// Directory resolves referral agents.
type Directory interface {
	OwnerForRefCode(code string) string
	MatchCloser(fragment string) string
	CloserEmail(name string) string
}

// ReferralAgent names the agent who referred the applicant: the referral
// name on the form, then the referral code table, then a directory name
// match on the code itself.
func ReferralAgent(a Application, dir Directory) string {
	if name := strings.TrimSpace(a.ReferralName); name != "" {
		return name
	}
	if name := strings.TrimSpace(a.ReferredBy); name != "" {
		return name
	}
	code := strings.ToLower(strings.TrimSpace(a.RefCode))
	if code == "" {
		return ""
	}
	if owner := dir.OwnerForRefCode(code); owner != "" {
		return owner
	}
	return dir.MatchCloser(strings.NewReplacer("_", " ", "-", " ").Replace(code))
}

// Pending is an approved application still waiting for its booking.
type Pending struct {
	Application Application `json:"application"`
	ApprovedAt  time.Time   `json:"approvedAt"`
	AgeHours    float64     `json:"ageHours"`
	Agent       string      `json:"agent"`
	BookingURL  string      `json:"bookingUrl"`
}

// DueForFollowup reports whether a is approved, unbooked and at least
// FollowupDelay past its anchor at now.
func DueForFollowup(a Application, booked bool, now time.Time) (time.Time, bool) {
	if !a.IsApproved() || booked || strings.TrimSpace(a.ID) == "" {
		return time.Time{}, false
	}
	anchor, ok := a.Anchor()
	if !ok || now.Sub(anchor) < FollowupDelay {
		return anchor, false
	}
	return anchor, true
}

// BookingURL links the applicant to their personal booking page.
func BookingURL(base, appID string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "id=" + url.QueryEscape(appID)
}
