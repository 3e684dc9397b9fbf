// Package domain holds the sponsorship application record, its review
// decisions, duplicate merging and the approved-but-not-booked rules.
package domain

import (
	"sort"
	"strings"
	"time"

	bookingsdomain "leadops_backend/internal/bookings/domain"
	"leadops_backend/platform/phone"
	"leadops_backend/platform/sanitize"
)

const (
	StatusPendingReview = "Pending Review"
	StatusApproved      = "Approved – Onboarding Pending"
	StatusNotQualified  = "Not Qualified At This Time"

	BucketAutoApproved = "auto_approved"
	BucketManualReview = "manual_review"
	BucketNotQualified = "not_qualified"

	DecisionApprove = "approve"
	DecisionDecline = "decline"

	DefaultReviewer = "Kimora"

	// FollowupDelay is how long an approved applicant may stay unbooked
	// before the follow-up emails go out.
	FollowupDelay = 24 * time.Hour
)

// Application is one submitted sponsorship form. Field names follow the
// stored document.
type Application struct {
	ID               string     `json:"id"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone"`
	State            string     `json:"state,omitempty"`
	IsLicensed       string     `json:"isLicensed,omitempty"`
	RefCode          string     `json:"refCode,omitempty"`
	ReferralName     string     `json:"referralName,omitempty"`
	ReferredBy       string     `json:"referred_by,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Status           string     `json:"status"`
	DecisionBucket   string     `json:"decision_bucket"`
	ApplicationScore float64    `json:"application_score"`
	NormalizedName   string     `json:"normalizedName"`
	SubmittedAt      time.Time  `json:"submitted_at"`
	ReviewedAt       *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy       string     `json:"reviewedBy,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// FullName is "first last", trimmed.
func (a Application) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// IsApproved matches any status containing "approved".
func (a Application) IsApproved() bool {
	return strings.Contains(strings.ToLower(a.Status), "approved")
}

// Anchor is the moment the approval clock starts: approval, then review,
// then last update, then submission.
func (a Application) Anchor() (time.Time, bool) {
	switch {
	case a.ApprovedAt != nil && !a.ApprovedAt.IsZero():
		return *a.ApprovedAt, true
	case a.ReviewedAt != nil && !a.ReviewedAt.IsZero():
		return *a.ReviewedAt, true
	case !a.UpdatedAt.IsZero():
		return a.UpdatedAt, true
	case !a.SubmittedAt.IsZero():
		return a.SubmittedAt, true
	default:
		return time.Time{}, false
	}
}

// DedupeKey is the normalized full name plus the normalized email, or the
// phone digits when there is no email. It is "" when nothing identifies
// the applicant.
func (a Application) DedupeKey() string {
	name := sanitize.NameKey(a.FullName())
	contact := sanitize.EmailKey(a.Email)
	if contact == "" {
		contact = phone.Digits(a.Phone)
	}
	if name == "" && contact == "" {
		return ""
	}
	return name + "|" + contact
}

// Review applies an approve or decline decision. Unknown decisions only
// stamp the review.
func Review(a Application, decision, reviewer string, now time.Time) Application {
	t := now
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case DecisionApprove:
		a.Status = StatusApproved
		a.DecisionBucket = BucketAutoApproved
		if a.ApprovedAt == nil {
			a.ApprovedAt = &t
		}
	case DecisionDecline:
		a.Status = StatusNotQualified
		a.DecisionBucket = BucketNotQualified
	}
	reviewer = strings.TrimSpace(reviewer)
	if reviewer == "" {
		reviewer = DefaultReviewer
	}
	a.ReviewedAt = &t
	a.ReviewedBy = reviewer
	a.UpdatedAt = now
	return a
}

// Merge folds two submissions of the same applicant together. The earliest
// submission time survives along with the id of the record that carried
// it; every other non-empty field comes from the record updated last.
func Merge(a, b Application) Application {
	older := a
	if b.SubmittedAt.Before(a.SubmittedAt) {
		older = b
	}
	latest, earlier := a, b
	if b.UpdatedAt.After(a.UpdatedAt) {
		latest, earlier = b, a
	}

	out := latest
	fill(&out.FirstName, earlier.FirstName)
	fill(&out.LastName, earlier.LastName)
	fill(&out.Email, earlier.Email)
	fill(&out.Phone, earlier.Phone)
	fill(&out.State, earlier.State)
	fill(&out.IsLicensed, earlier.IsLicensed)
	fill(&out.RefCode, earlier.RefCode)
	fill(&out.ReferralName, earlier.ReferralName)
	fill(&out.ReferredBy, earlier.ReferredBy)
	fill(&out.Notes, earlier.Notes)
	fill(&out.ReviewedBy, earlier.ReviewedBy)
	if out.ApprovedAt == nil {
		out.ApprovedAt = earlier.ApprovedAt
	}
	if out.ReviewedAt == nil {
		out.ReviewedAt = earlier.ReviewedAt
	}

	out.ID = older.ID
	out.SubmittedAt = older.SubmittedAt
	out.NormalizedName = sanitize.NameKey(out.FullName())
	return out
}

// Dedupe merges applications that share a DedupeKey, keeping the position
// of the first occurrence.
func Dedupe(apps []Application) []Application {
	out := make([]Application, 0, len(apps))
	index := make(map[string]int, len(apps))
	for _, a := range apps {
		key := a.DedupeKey()
		if key == "" {
			out = append(out, a)
			continue
		}
		if i, ok := index[key]; ok {
			out[i] = Merge(out[i], a)
			continue
		}
		index[key] = len(out)
		out = append(out, a)
	}
	return out
}

// SortNewestFirst orders by submission time, newest first.
func SortNewestFirst(apps []Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].SubmittedAt.After(apps[j].SubmittedAt)
	})
}

// IsBooked reports whether any booking belongs to the application, matched
// by source application id, loose name key or email.
func IsBooked(a Application, bookings []bookingsdomain.Booking) bool {
	id := strings.TrimSpace(a.ID)
	nameKey := sanitize.AlnumKey(a.FullName())
	email := sanitize.EmailKey(a.Email)

	for _, b := range bookings {
		if src := strings.TrimSpace(b.SourceApplicationID); src != "" && src == id {
			return true
		}
		if nameKey != "" && sanitize.AlnumKey(b.ApplicantName) == nameKey {
			return true
		}
		if email != "" && sanitize.EmailKey(b.ApplicantEmail) == email {
			return true
		}
	}
	return false
}

func fill(dst *string, fallback string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = fallback
	}
}
