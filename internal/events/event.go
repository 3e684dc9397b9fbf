// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"leadops_backend/platform/events"
	"leadops_backend/platform/logger"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// NewInMemoryBus returns the process-local bus shared by every module.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// =============================================================================
// Routing Domain Events
// =============================================================================

// Outbound webhook event kinds.
const (
	KindLeadAssigned = "lead_assigned"
	KindSLAReassign  = "sla_reassign"
)

// LeadAssigned is published after the router records an assignment, both for
// new leads and for SLA reassignments.
type LeadAssigned struct {
	BaseEvent
	Kind          string `json:"event"`
	LeadID        string `json:"leadId"`
	ExternalID    string `json:"externalId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	AssignedTo    string `json:"assignedTo"`
	PreviousOwner string `json:"previousOwner,omitempty"`
	Reason        string `json:"reason"`
	Mode          string `json:"mode"`
}

func (e LeadAssigned) EventName() string { return "routing.lead.assigned" }

// =============================================================================
// Booking Domain Events
// =============================================================================

// BookingClaimed is published when a closer claims a sponsorship call through
// the Telegram group.
type BookingClaimed struct {
	BaseEvent
	BookingID      string `json:"bookingId"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ApplicantName  string `json:"applicantName"`
	ApplicantEmail string `json:"applicantEmail"`
	ApplicantPhone string `json:"applicantPhone"`
	ApplicantState string `json:"applicantState"`
	ReferredBy     string `json:"referredBy"`
	RequestedAtEST string `json:"requestedAtEst"`
	CalendarURL    string `json:"calendarUrl,omitempty"`
	ClaimedBy      string `json:"claimedBy"`
}

func (e BookingClaimed) EventName() string { return "bookings.booking.claimed" }

// =============================================================================
// Payout Domain Events
// =============================================================================

// PolicyDecided is published when an admin approves or declines a submitted
// policy.
type PolicyDecided struct {
	BaseEvent
	PolicyID       string     `json:"policyId"`
	Approved       bool       `json:"approved"`
	WriterName     string     `json:"writerName"`
	WriterEmail    string     `json:"writerEmail,omitempty"`
	ApplicantName  string     `json:"applicantName"`
	ReferredBy     string     `json:"referredBy"`
	PolicyNumber   string     `json:"policyNumber"`
	MonthlyPremium float64    `json:"monthlyPremium"`
	PayoutAmount   float64    `json:"payoutAmount"`
	PayoutDueAt    *time.Time `json:"payoutDueAt,omitempty"`
}

func (e PolicyDecided) EventName() string { return "payouts.policy.decided" }
