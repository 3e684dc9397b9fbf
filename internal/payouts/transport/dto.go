// Package transport holds the request and response shapes of the payouts
// API.
package transport

import (
	"time"

	"leadops_backend/internal/payouts/domain"
)

const (
	ModeUpsert             = "upsert"
	ModeImportApplications = "import_applications"
)

// CreateRequest is a policy submission. Record wraps the fields when the
// client nests them.
type CreateRequest struct {
	Mode             string         `json:"mode"`
	Record           *CreateRequest `json:"record,omitempty"`
	ID               string         `json:"id" validate:"max=64"`
	ApplicantName    string         `json:"applicantName" validate:"max=200"`
	ReferredByName   string         `json:"referredByName" validate:"max=120"`
	PolicyWriterName string         `json:"policyWriterName" validate:"max=120"`
	SubmittedBy      string         `json:"submittedBy" validate:"max=120"`
	SubmittedByRole  string         `json:"submittedByRole" validate:"max=64"`
	State            string         `json:"state" validate:"max=32"`
	PolicyNumber     string         `json:"policyNumber" validate:"max=120"`
	MonthlyPremium   float64        `json:"monthlyPremium" validate:"min=0"`
	Carrier          string         `json:"carrier" validate:"max=120"`
	ProductName      string         `json:"productName" validate:"max=120"`
	Status           string         `json:"status" validate:"omitempty,oneof=Submitted Approved Declined"`
	PayoutAmount     float64        `json:"payoutAmount" validate:"min=0"`
	PayoutStatus     string         `json:"payoutStatus" validate:"max=32"`
	PayoutNotes      string         `json:"payoutNotes" validate:"max=5000"`
	RefCode          string         `json:"refCode" validate:"max=120"`
	SubmittedAt      *time.Time     `json:"submittedAt"`
}

// Policy converts the request to a record.
func (r CreateRequest) Policy() domain.Policy {
	p := domain.Policy{
		ID:               r.ID,
		ApplicantName:    r.ApplicantName,
		ReferredByName:   r.ReferredByName,
		PolicyWriterName: r.PolicyWriterName,
		SubmittedBy:      r.SubmittedBy,
		SubmittedByRole:  r.SubmittedByRole,
		State:            r.State,
		PolicyNumber:     r.PolicyNumber,
		MonthlyPremium:   r.MonthlyPremium,
		Carrier:          r.Carrier,
		ProductName:      r.ProductName,
		Status:           r.Status,
		PayoutAmount:     r.PayoutAmount,
		PayoutStatus:     r.PayoutStatus,
		PayoutNotes:      r.PayoutNotes,
		RefCode:          r.RefCode,
	}
	if r.SubmittedAt != nil {
		p.SubmittedAt = *r.SubmittedAt
	}
	return p
}

// PatchRequest updates one policy.
type PatchRequest struct {
	ID    string       `json:"id" validate:"required"`
	Patch domain.Patch `json:"patch"`
}

// EmailResult reports the decision email outcome.
type EmailResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PatchResult is the updated policy and, on approve or decline, the email
// outcome.
type PatchResult struct {
	Row   domain.Policy `json:"row"`
	Email *EmailResult  `json:"email"`
}

// ImportResult counts policies created or refreshed from applications.
type ImportResult struct {
	Imported int `json:"imported"`
	Total    int `json:"total"`
}
