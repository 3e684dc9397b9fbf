// Package transport defines the router request and response shapes.
package transport

import (
	"time"

	"leadops_backend/internal/crm"
	leaddomain "leadops_backend/internal/leads/domain"
	"leadops_backend/internal/routing/domain"
)

// AssignResult is the response of a routed lead.
type AssignResult struct {
	AssignedTo    string          `json:"assignedTo"`
	Reason        string          `json:"reason"`
	Row           leaddomain.Lead `json:"row"`
	SLAReassigned int             `json:"slaReassigned"`
}

// SweepResult reports the leads moved by one SLA pass.
type SweepResult struct {
	Reassigned int      `json:"reassigned"`
	LeadIDs    []string `json:"leadIds"`
}

// FBAssignResult is returned to the lead-form webhook.
type FBAssignResult struct {
	OK              bool             `json:"ok"`
	ContactID       *string          `json:"contactId"`
	AssignedTo      string           `json:"assignedTo"`
	AssignedUserID  *string          `json:"assignedUserId"`
	GHLOwnerUpdated bool             `json:"ghlOwnerUpdated"`
	Warning         *string          `json:"warning"`
	GHLUpdate       crm.UpdateResult `json:"ghlUpdate"`
}

// TomorrowSlot is one row of the next-day start order.
type TomorrowSlot struct {
	Name      string `json:"name"`
	Today     int    `json:"today"`
	Yesterday int    `json:"yesterday"`
}

// RecentEvent is an assignment event annotated with the lead's sponsorship
// application status, if any.
type RecentEvent struct {
	domain.Event
	SponsorshipStatus string `json:"sponsorshipStatus"`
}

// CallStats are call-coverage counters for one owner or for everyone.
type CallStats struct {
	Assigned              int  `json:"assigned"`
	ExemptFormSubmitted   int  `json:"exemptFormSubmitted"`
	Callable              int  `json:"callable"`
	Called                int  `json:"called"`
	CalledToday           int  `json:"calledToday"`
	Uncalled              int  `json:"uncalled"`
	TotalFirstCallMinutes int  `json:"totalFirstCallMinutes"`
	FirstCallSamples      int  `json:"firstCallSamples"`
	TotalWaitMinutes      int  `json:"totalWaitMinutes"`
	WaitSamples           int  `json:"waitSamples"`
	CallRate              int  `json:"callRate"`
	AvgFirstCallMinutes   *int `json:"avgFirstCallMinutes"`
	AvgWaitMinutes        *int `json:"avgWaitMinutes"`
}

// OwnerCallStats is CallStats for one owner.
type OwnerCallStats struct {
	Name string `json:"name"`
	CallStats
}

// CallMetrics groups call coverage by owner.
type CallMetrics struct {
	Totals  CallStats        `json:"totals"`
	ByOwner []OwnerCallStats `json:"byOwner"`
}

// CalledLeadRow is one lead that has been called.
type CalledLeadRow struct {
	ID                   string    `json:"id"`
	Owner                string    `json:"owner"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone"`
	CalledAt             time.Time `json:"calledAt"`
	CallResult           string    `json:"callResult"`
	LastCallDurationSec  int       `json:"lastCallDurationSec"`
	LastCallRecordingURL string    `json:"lastCallRecordingUrl"`
	Stage                string    `json:"stage"`
	SponsorshipStatus    string    `json:"sponsorshipStatus"`
}

// Dashboard is the router overview served to operators.
type Dashboard struct {
	Settings           domain.Settings         `json:"settings"`
	Counts             map[string]domain.Count `json:"counts"`
	Yesterday          map[string]int          `json:"yesterday"`
	Recent             []RecentEvent           `json:"recent"`
	Keys               domain.Keys             `json:"keys"`
	TomorrowStartOrder []TomorrowSlot          `json:"tomorrowStartOrder"`
	CallMetrics        CallMetrics             `json:"callMetrics"`
	CalledLeadRows     []CalledLeadRow         `json:"calledLeadRows"`
}
