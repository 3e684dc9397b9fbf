// Package intake converts inbound webhook, manual-entry and activity bodies
// into canonical lead records. Nothing here fails: unreadable fields default
// to empty values.
package intake

import (
	"strings"
	"time"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/platform/ids"
)

// Normalize builds a lead from an intake body. The lead id equals its
// externalId; bodies without any id get a synthetic "ghl-<ms>-<rand6>" id
// that will never match a later submission.
func Normalize(body map[string]any, now time.Time, rnd ids.RandomSource) domain.Lead {
	c := Candidate(body)

	externalID := ExternalID(c)
	if externalID == "" {
		externalID = ids.Synthetic("ghl", now, rnd)
	}

	licensed := Pick(c, "licensedStatus", "licensed_status")
	if licensed == "" {
		licensed = Pick(body, "licensedStatus", "licensed_status")
	}
	if licensed == "" {
		licensed = domain.LicensedUnknown
	}

	source := Pick(c, "source")
	if source == "" {
		source = Pick(body, "source")
	}
	if source == "" {
		source = domain.SourceWebhook
	}

	notes := Pick(c, "notes")
	if notes == "" {
		notes = Pick(body, "notes")
	}

	callResult := Pick(c, "callResult", "call_result")
	if callResult == "" {
		callResult = Pick(body, "callResult", "call_result")
	}
	attempts := Int(c, "callAttempts", "call_attempts")
	if attempts == 0 {
		attempts = Int(body, "callAttempts", "call_attempts")
	}
	if attempts < 0 {
		attempts = 0
	}

	return domain.Lead{
		ID:             externalID,
		ExternalID:     externalID,
		Name:           Name(c),
		Email:          Str(c, "email"),
		Phone:          Pick(c, "phone", "phoneNumber", "phone_number"),
		LicensedStatus: licensed,
		Source:         source,
		Notes:          notes,
		Stage:          domain.StageNew,
		CallResult:     callResult,
		CallAttempts:   attempts,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Name resolves name, then "first last", then "Unknown Lead".
func Name(c map[string]any) string {
	if name := Str(c, "name"); name != "" {
		return name
	}
	first := Pick(c, "firstName", "first_name")
	last := Pick(c, "lastName", "last_name")
	if full := strings.TrimSpace(first + " " + last); full != "" {
		return full
	}
	return domain.UnknownLeadName
}

// ExternalID returns the first of id, contactId, contact_id, leadId.
func ExternalID(c map[string]any) string {
	return Pick(c, "id", "contactId", "contact_id", "leadId")
}

// AssignmentHint returns the owner named on the payload, if any.
func AssignmentHint(body map[string]any) string {
	c := Candidate(body)
	if hint := Pick(c, "assignedToName", "assigned_to_name", "assignedTo", "assigned_to"); hint != "" {
		return hint
	}
	return Pick(body, "assignedToName", "assigned_to_name")
}
