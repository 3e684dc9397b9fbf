// Package domain holds the lead record and its pipeline stage rules. It has
// no I/O; services load and persist leads through the repository package.
package domain

import (
	"strings"
	"time"
)

const (
	LicensedUnknown    = "Unknown"
	LicensedYes        = "Licensed"
	LicensedNo         = "Unlicensed"
	OwnerUnknown       = "Unknown"
	UnknownLeadName    = "Unknown Lead"
	ActorSystemIntake  = "System Intake"
	ActorManualCreate  = "Manual Create"
	ActorManualUpdate  = "Manual Update"
	ActorActivityHook  = "System Activity"
	SourceWebhook      = "GHL Webhook"
	SourceManual       = "Manual"
	SourceActivityHook = "Activity Webhook"
)

// Lead is a sales prospect tracked through the calling/onboarding pipeline.
type Lead struct {
	ID             string `json:"id"`
	ExternalID     string `json:"externalId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	LicensedStatus string `json:"licensedStatus"`
	Source         string `json:"source,omitempty"`
	Notes          string `json:"notes,omitempty"`
	Owner          string `json:"owner"`

	ReassignedAt  *time.Time `json:"reassignedAt,omitempty"`
	ReassignCount int        `json:"reassignCount,omitempty"`

	Stage          string     `json:"stage"`
	StageUpdatedAt *time.Time `json:"stageUpdatedAt,omitempty"`
	StageUpdatedBy string     `json:"stageUpdatedBy,omitempty"`

	CallResult           string     `json:"callResult,omitempty"`
	CallAttempts         int        `json:"callAttempts"`
	LastCallAttemptAt    *time.Time `json:"lastCallAttemptAt,omitempty"`
	LastCallDurationSec  int        `json:"lastCallDurationSec,omitempty"`
	LastCallRecordingURL string     `json:"lastCallRecordingUrl,omitempty"`

	Milestones

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Milestones are first-entry stamps for the pipeline stages.
type Milestones struct {
	CalledAt            *time.Time `json:"calledAt,omitempty"`
	ConnectedAt         *time.Time `json:"connectedAt,omitempty"`
	QualifiedAt         *time.Time `json:"qualifiedAt,omitempty"`
	FormSentAt          *time.Time `json:"formSentAt,omitempty"`
	InviteSentAt        *time.Time `json:"inviteSentAt,omitempty"`
	FormCompletedAt     *time.Time `json:"formCompletedAt,omitempty"`
	PolicyStartedAt     *time.Time `json:"policyStartedAt,omitempty"`
	ApprovedAt          *time.Time `json:"approvedAt,omitempty"`
	OnboardingStartedAt *time.Time `json:"onboardingStartedAt,omitempty"`
	MovedForwardAt      *time.Time `json:"movedForwardAt,omitempty"`
}

// HasKnownOwner reports whether the owner is set to a real agent name.
func (l Lead) HasKnownOwner() bool {
	return IsKnownOwner(l.Owner)
}

// IsKnownOwner is false for blank, "Unknown" and "unassigned" owners.
func IsKnownOwner(owner string) bool {
	switch strings.ToLower(strings.TrimSpace(owner)) {
	case "", "unknown", "unassigned":
		return false
	default:
		return true
	}
}

// MovedForward reports the pipeline's success terminal for reporting.
func (l Lead) MovedForward() bool {
	return l.Stage == StageOnboardingStarted || l.MovedForwardAt != nil
}

func stamp(field **time.Time, now time.Time) {
	if *field == nil {
		t := now
		*field = &t
	}
}
