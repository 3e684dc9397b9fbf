// Package transport holds the request and response shapes of the leads API.
package transport

import "leadops_backend/internal/leads/domain"

// Lead write modes accepted by POST /leads.
const (
	ModeUpsert       = "upsert"
	ModeCreateManual = "create-manual"
	ModeActivity     = "activity"
)

// Upsert outcomes.
const (
	UpsertInserted       = "inserted"
	UpsertUpdated        = "updated"
	UpsertActivity       = "activity"
	UpsertActivitySeeded = "activity_seeded"
)

// CreateManualRequest is the body of a create-manual call.
type CreateManualRequest struct {
	Name           string `json:"name" validate:"max=200"`
	Email          string `json:"email" validate:"max=320"`
	Phone          string `json:"phone" validate:"max=64"`
	LicensedStatus string `json:"licensedStatus"`
	Source         string `json:"source"`
	Notes          string `json:"notes" validate:"max=5000"`
	CallResult     string `json:"callResult"`
	CallAttempts   int    `json:"callAttempts" validate:"min=0"`
	Stage          string `json:"stage"`
	Owner          string `json:"owner"`
}

// LeadPatch carries the fields a PATCH may change. Absent fields are kept.
type LeadPatch struct {
	Name                 *string `json:"name"`
	Email                *string `json:"email"`
	Phone                *string `json:"phone"`
	LicensedStatus       *string `json:"licensedStatus"`
	Owner                *string `json:"owner"`
	Notes                *string `json:"notes"`
	Stage                *string `json:"stage"`
	CallResult           *string `json:"callResult"`
	CallAttempts         *int    `json:"callAttempts" validate:"omitempty,min=0"`
	LastCallDurationSec  *int    `json:"lastCallDurationSec" validate:"omitempty,min=0"`
	LastCallRecordingURL *string `json:"lastCallRecordingUrl"`
}

// ToDomain converts the patch to the state machine's input.
func (p LeadPatch) ToDomain() domain.Patch {
	return domain.Patch{
		Name:                 p.Name,
		Email:                p.Email,
		Phone:                p.Phone,
		LicensedStatus:       p.LicensedStatus,
		Owner:                p.Owner,
		Notes:                p.Notes,
		Stage:                p.Stage,
		CallResult:           p.CallResult,
		CallAttempts:         p.CallAttempts,
		LastCallDurationSec:  p.LastCallDurationSec,
		LastCallRecordingURL: p.LastCallRecordingURL,
	}
}

// PatchLeadRequest is the body of PATCH /leads.
type PatchLeadRequest struct {
	ID    string    `json:"id"`
	Actor string    `json:"actor"`
	Patch LeadPatch `json:"patch"`
}

// WriteResult is returned by every POST /leads mode.
type WriteResult struct {
	Row    domain.Lead `json:"row"`
	Upsert string      `json:"upsert,omitempty"`
}

// PatchResult is returned by PATCH /leads.
type PatchResult struct {
	Row             domain.Lead `json:"row"`
	StageSuppressed bool        `json:"stageSuppressed,omitempty"`
}
