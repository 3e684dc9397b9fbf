package domain

import (
	"strings"
	"time"
)

const (
	StageNew               = "New"
	StageCalled            = "Called"
	StageConnected         = "Connected"
	StageQualified         = "Qualified"
	StageFormSent          = "Form Sent"
	StageFormCompleted     = "Form Completed"
	StagePolicyStarted     = "Policy Started"
	StageApproved          = "Approved"
	StageOnboardingStarted = "Onboarding Started"
)

// Stages lists the pipeline in nominal forward order.
var Stages = []string{
	StageNew,
	StageCalled,
	StageConnected,
	StageQualified,
	StageFormSent,
	StageFormCompleted,
	StagePolicyStarted,
	StageApproved,
	StageOnboardingStarted,
}

// Call outcomes that record an attempt without moving the pipeline.
var nonSubstantiveCallResults = map[string]struct{}{
	"missed call":       {},
	"voicemail left":    {},
	"do not disturb":    {},
	"no answer":         {},
	"wrong number":      {},
	"spoke - follow-up": {},
	"spoke - booked":    {},
}

// IsKnownStage reports whether stage is one of Stages.
func IsKnownStage(stage string) bool {
	return StageIndex(stage) >= 0
}

// StageIndex returns the position of stage in Stages, or -1.
func StageIndex(stage string) int {
	for i, s := range Stages {
		if s == stage {
			return i
		}
	}
	return -1
}

// IsNonSubstantiveCallResult matches case-insensitively after trimming.
func IsNonSubstantiveCallResult(result string) bool {
	_, ok := nonSubstantiveCallResults[strings.ToLower(strings.TrimSpace(result))]
	return ok
}

// Patch is a partial update to a lead. Nil fields are left untouched.
type Patch struct {
	Name                 *string
	Email                *string
	Phone                *string
	LicensedStatus       *string
	Owner                *string
	Notes                *string
	Stage                *string
	CallResult           *string
	CallAttempts         *int
	LastCallDurationSec  *int
	LastCallRecordingURL *string
}

// PatchOutcome reports what ApplyPatch did with the requested stage.
type PatchOutcome struct {
	StageChanged    bool
	StageSuppressed bool
}

// ApplyPatch applies patch to lead on behalf of actor.
//
// A stage change requested together with a non-substantive call result is
// suppressed unless it targets "Called" or the current stage. Accepted stage
// changes stamp stageUpdatedAt/By and the first-entry milestone; a no-op
// stamps nothing. A new call result counts as an attempt unless the patch
// sets callAttempts explicitly, and the counter never decreases.
func ApplyPatch(lead Lead, patch Patch, actor string, now time.Time) (Lead, PatchOutcome) {
	var outcome PatchOutcome
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = ActorManualUpdate
	}

	setString(&lead.Name, patch.Name)
	setString(&lead.Email, patch.Email)
	setString(&lead.Phone, patch.Phone)
	setString(&lead.LicensedStatus, patch.LicensedStatus)
	setString(&lead.Owner, patch.Owner)
	setString(&lead.Notes, patch.Notes)
	setString(&lead.LastCallRecordingURL, patch.LastCallRecordingURL)
	if patch.LastCallDurationSec != nil {
		lead.LastCallDurationSec = *patch.LastCallDurationSec
	}

	current := strings.TrimSpace(lead.Stage)
	if current == "" {
		current = StageNew
	}

	callResult := ""
	if patch.CallResult != nil {
		callResult = strings.TrimSpace(*patch.CallResult)
		lead.CallResult = callResult
		if callResult != "" {
			if patch.CallAttempts == nil {
				lead.CallAttempts++
			}
			t := now
			lead.LastCallAttemptAt = &t
		}
	}
	if patch.CallAttempts != nil && *patch.CallAttempts > lead.CallAttempts {
		lead.CallAttempts = *patch.CallAttempts
	}

	requested := current
	if patch.Stage != nil && strings.TrimSpace(*patch.Stage) != "" {
		requested = strings.TrimSpace(*patch.Stage)
	}

	if IsNonSubstantiveCallResult(callResult) && requested != StageCalled && requested != current {
		requested = current
		outcome.StageSuppressed = true
	}

	if requested != current {
		lead = TransitionStage(lead, requested, actor, now)
		outcome.StageChanged = true
	} else {
		lead.Stage = current
	}

	lead.UpdatedAt = now
	return lead, outcome
}

// TransitionStage moves lead to stage with audit stamps. It is a no-op when
// the stage is unchanged.
func TransitionStage(lead Lead, stage, actor string, now time.Time) Lead {
	if strings.TrimSpace(lead.Stage) == stage {
		return lead
	}
	t := now
	lead.Stage = stage
	lead.StageUpdatedAt = &t
	lead.StageUpdatedBy = actor
	StampMilestone(&lead.Milestones, stage, now)
	return lead
}

// StampMilestone records the first time a lead entered stage.
func StampMilestone(m *Milestones, stage string, now time.Time) {
	switch stage {
	case StageCalled:
		stamp(&m.CalledAt, now)
	case StageConnected:
		stamp(&m.ConnectedAt, now)
	case StageQualified:
		stamp(&m.QualifiedAt, now)
	case StageFormSent:
		stamp(&m.FormSentAt, now)
	case StageFormCompleted:
		stamp(&m.FormCompletedAt, now)
	case StagePolicyStarted:
		stamp(&m.PolicyStartedAt, now)
	case StageApproved:
		stamp(&m.ApprovedAt, now)
	case StageOnboardingStarted:
		stamp(&m.OnboardingStartedAt, now)
		stamp(&m.MovedForwardAt, now)
	}
}

// StampActivity records milestone stamps from a CRM activity event name
// such as "called", "connected", "form_sent" or "form_completed".
func StampActivity(m *Milestones, eventType string, now time.Time) {
	e := strings.ToLower(strings.TrimSpace(eventType))
	if e == "" {
		return
	}
	if strings.Contains(e, "called") || e == "call" {
		stamp(&m.CalledAt, now)
	}
	if strings.Contains(e, "connect") {
		stamp(&m.ConnectedAt, now)
	}
	if strings.Contains(e, "qualif") {
		stamp(&m.QualifiedAt, now)
	}
	if strings.Contains(e, "form_sent") || strings.Contains(e, "invite") {
		stamp(&m.FormSentAt, now)
	}
	if strings.Contains(e, "form_completed") || strings.Contains(e, "submitted") {
		stamp(&m.FormCompletedAt, now)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
