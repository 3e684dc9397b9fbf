// Package domain holds the submitted-policy record and its payout rules.
package domain

import (
	"strings"
	"time"
)

const (
	StatusSubmitted = "Submitted"
	StatusApproved  = "Approved"
	StatusDeclined  = "Declined"

	PayoutUnpaid = "Unpaid"
	PayoutPaid   = "Paid"

	DefaultCarrier = "F&G"
	DefaultProduct = "IUL Pathsetter"

	IDPrefix = "pol_"
)

// Policy is one policy submitted by an agent for payout tracking.
type Policy struct {
	ID               string     `json:"id"`
	ApplicantName    string     `json:"applicantName"`
	ReferredByName   string     `json:"referredByName"`
	PolicyWriterName string     `json:"policyWriterName"`
	SubmittedBy      string     `json:"submittedBy"`
	SubmittedByRole  string     `json:"submittedByRole"`
	State            string     `json:"state"`
	PolicyNumber     string     `json:"policyNumber"`
	MonthlyPremium   float64    `json:"monthlyPremium"`
	Carrier          string     `json:"carrier"`
	ProductName      string     `json:"productName"`
	Status           string     `json:"status"`
	ApprovedAt       *time.Time `json:"approvedAt"`
	PayoutDueAt      *time.Time `json:"payoutDueAt"`
	PayoutAmount     float64    `json:"payoutAmount"`
	PayoutStatus     string     `json:"payoutStatus"`
	PayoutPaidAt     *time.Time `json:"payoutPaidAt"`
	PayoutPaidBy     string     `json:"payoutPaidBy"`
	PayoutNotes      string     `json:"payoutNotes"`
	RefCode          string     `json:"refCode"`
	SubmittedAt      time.Time  `json:"submittedAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Transition is the status change a patch caused.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionApproved
	TransitionDeclined
)

// Normalize trims every text field and fills the carrier, product, status
// and payout defaults.
func Normalize(p Policy) Policy {
	p.ID = strings.TrimSpace(p.ID)
	p.ApplicantName = strings.TrimSpace(p.ApplicantName)
	p.ReferredByName = strings.TrimSpace(p.ReferredByName)
	p.PolicyWriterName = strings.TrimSpace(p.PolicyWriterName)
	p.SubmittedBy = strings.TrimSpace(p.SubmittedBy)
	p.SubmittedByRole = strings.TrimSpace(p.SubmittedByRole)
	p.State = strings.ToUpper(strings.TrimSpace(p.State))
	p.PolicyNumber = strings.TrimSpace(p.PolicyNumber)
	p.Carrier = orDefault(p.Carrier, DefaultCarrier)
	p.ProductName = orDefault(p.ProductName, DefaultProduct)
	p.Status = orDefault(p.Status, StatusSubmitted)
	p.PayoutStatus = orDefault(p.PayoutStatus, PayoutUnpaid)
	p.PayoutPaidBy = strings.TrimSpace(p.PayoutPaidBy)
	p.PayoutNotes = strings.TrimSpace(p.PayoutNotes)
	p.RefCode = strings.TrimSpace(p.RefCode)
	if p.MonthlyPremium < 0 {
		p.MonthlyPremium = 0
	}
	if p.PayoutAmount < 0 {
		p.PayoutAmount = 0
	}
	return p
}

// FollowingWeekFriday returns noon on the Friday of the week after t's
// week, with weeks starting Monday in loc.
func FollowingWeekFriday(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	mondayOffset := (int(local.Weekday()) + 6) % 7
	monday := time.Date(local.Year(), local.Month(), local.Day()-mondayOffset, 12, 0, 0, 0, loc)
	return monday.AddDate(0, 0, 11)
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Status           *string    `json:"status"`
	PayoutAmount     *float64   `json:"payoutAmount"`
	PayoutStatus     *string    `json:"payoutStatus"`
	PayoutPaidAt     *time.Time `json:"payoutPaidAt"`
	PayoutPaidBy     *string    `json:"payoutPaidBy"`
	PayoutNotes      *string    `json:"payoutNotes"`
	ReferredByName   *string    `json:"referredByName"`
	PolicyWriterName *string    `json:"policyWriterName"`
	MonthlyPremium   *float64   `json:"monthlyPremium"`
	PolicyNumber     *string    `json:"policyNumber"`
	ApprovedAt       *time.Time `json:"approvedAt"`
	PayoutDueAt      *time.Time `json:"payoutDueAt"`
}

// Apply updates p with patch. Moving into Approved stamps approvedAt and
// schedules the payout; moving into Declined clears both. Outside those
// transitions the explicit approvedAt and payoutDueAt values are honored.
func Apply(p Policy, patch Patch, now time.Time, loc *time.Location) (Policy, Transition) {
	next := p.Status
	if patch.Status != nil {
		next = strings.TrimSpace(*patch.Status)
	}
	transition := TransitionNone
	switch {
	case !strings.EqualFold(p.Status, StatusApproved) && strings.EqualFold(next, StatusApproved):
		transition = TransitionApproved
	case !strings.EqualFold(p.Status, StatusDeclined) && strings.EqualFold(next, StatusDeclined):
		transition = TransitionDeclined
	}

	setString(&p.PayoutStatus, patch.PayoutStatus)
	setString(&p.PayoutPaidBy, patch.PayoutPaidBy)
	setString(&p.PayoutNotes, patch.PayoutNotes)
	setString(&p.ReferredByName, patch.ReferredByName)
	setString(&p.PolicyWriterName, patch.PolicyWriterName)
	setString(&p.PolicyNumber, patch.PolicyNumber)
	if patch.PayoutAmount != nil {
		p.PayoutAmount = nonNegative(*patch.PayoutAmount)
	}
	if patch.MonthlyPremium != nil {
		p.MonthlyPremium = nonNegative(*patch.MonthlyPremium)
	}
	if patch.PayoutPaidAt != nil {
		p.PayoutPaidAt = patch.PayoutPaidAt
	}
	p.Status = next

	switch transition {
	case TransitionApproved:
		approved := now
		due := FollowingWeekFriday(now, loc)
		p.ApprovedAt = &approved
		p.PayoutDueAt = &due
	case TransitionDeclined:
		p.ApprovedAt = nil
		p.PayoutDueAt = nil
	default:
		if patch.ApprovedAt != nil {
			p.ApprovedAt = patch.ApprovedAt
		}
		if patch.PayoutDueAt != nil {
			p.PayoutDueAt = patch.PayoutDueAt
		}
	}
	p.UpdatedAt = now
	return p, transition
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
