// Package transport holds the request and response shapes of the
// sponsorship applications API.
package transport

import "time"

// ModeSubmit is the only mode accepted on the public form route.
const ModeSubmit = "submit"

// WriteRequest is a submission with its optional mode.
type WriteRequest struct {
	Mode string `json:"mode"`
	SubmitRequest
}

// SubmitRequest is an application form submission.
type SubmitRequest struct {
	ID               string     `json:"id" validate:"max=64"`
	FirstName        string     `json:"firstName" validate:"max=120"`
	LastName         string     `json:"lastName" validate:"max=120"`
	Email            string     `json:"email" validate:"omitempty,max=320"`
	Phone            string     `json:"phone" validate:"max=64"`
	State            string     `json:"state" validate:"max=32"`
	IsLicensed       string     `json:"isLicensed"`
	RefCode          string     `json:"refCode" validate:"max=120"`
	ReferralName     string     `json:"referralName" validate:"max=120"`
	ReferredBy       string     `json:"referred_by" validate:"max=120"`
	Notes            string     `json:"notes" validate:"max=5000"`
	Status           string     `json:"status"`
	DecisionBucket   string     `json:"decision_bucket" validate:"omitempty,oneof=auto_approved manual_review not_qualified"`
	ApplicationScore float64    `json:"application_score" validate:"min=0,max=100"`
	SubmittedAt      *time.Time `json:"submitted_at"`
}

// ReviewRequest is an operator decision.
type ReviewRequest struct {
	ID         string `json:"id" validate:"required"`
	Decision   string `json:"decision" validate:"required"`
	ReviewedBy string `json:"reviewedBy" validate:"max=120"`
}
