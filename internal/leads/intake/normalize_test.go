package intake

import (
	"regexp"
	"testing"
	"time"

	"leadops_backend/internal/leads/domain"
)

type fixedRand struct{ n int }

func (r fixedRand) Intn(int) int { return r.n }

var now = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

func TestNormalizeContactPayload(t *testing.T) {
	body := map[string]any{
		"contact": map[string]any{
			"id":        "c1",
			"firstName": "Ann",
			"lastName":  "Lee",
			"email":     " a@x.com ",
		},
	}

	lead := Normalize(body, now, fixedRand{})
	if lead.ID != "c1" || lead.ExternalID != "c1" {
		t.Fatalf("expected id c1, got %q/%q", lead.ID, lead.ExternalID)
	}
	if lead.Name != "Ann Lee" {
		t.Errorf("name = %q", lead.Name)
	}
	if lead.Email != "a@x.com" {
		t.Errorf("email not trimmed: %q", lead.Email)
	}
	if lead.LicensedStatus != domain.LicensedUnknown {
		t.Errorf("licensedStatus = %q", lead.LicensedStatus)
	}
	if lead.Stage != domain.StageNew || lead.Source != domain.SourceWebhook {
		t.Errorf("unexpected stage/source %q/%q", lead.Stage, lead.Source)
	}
}

func TestNormalizeCandidatePriority(t *testing.T) {
	body := map[string]any{
		"lead":    map[string]any{"name": "From Lead", "leadId": "L9"},
		"contact": map[string]any{"name": "From Contact", "id": "C9"},
		"name":    "Top Level",
	}
	lead := Normalize(body, now, fixedRand{})
	if lead.Name != "From Lead" || lead.ExternalID != "L9" {
		t.Fatalf("expected lead object to win, got %+v", lead)
	}
}

func TestNormalizeExternalIDOrder(t *testing.T) {
	cases := []struct {
		body map[string]any
		want string
	}{
		{map[string]any{"id": "a", "contactId": "b"}, "a"},
		{map[string]any{"contactId": "b", "contact_id": "c"}, "b"},
		{map[string]any{"contact_id": "c", "leadId": "d"}, "c"},
		{map[string]any{"leadId": "d"}, "d"},
		{map[string]any{"id": 12345.0}, "12345"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.body, now, fixedRand{}).ExternalID; got != tc.want {
			t.Errorf("ExternalID(%v) = %q, want %q", tc.body, got, tc.want)
		}
	}
}

func TestNormalizeSyntheticID(t *testing.T) {
	lead := Normalize(map[string]any{"name": "No Id"}, now, fixedRand{n: 10})
	want := "ghl-" + "1770091506000" + "-aaaaaa"
	if lead.ExternalID != want {
		t.Fatalf("synthetic id = %q, want %q", lead.ExternalID, want)
	}
	if !regexp.MustCompile(`^ghl-\d+-[0-9a-z]{6}$`).MatchString(lead.ID) {
		t.Fatalf("unexpected id shape %q", lead.ID)
	}
}

func TestNormalizeNeverFailsOnJunk(t *testing.T) {
	body := map[string]any{
		"contact": "not an object",
		"name":    map[string]any{"nested": true},
		"email":   nil,
		"phone":   []any{1, 2},
	}
	lead := Normalize(body, now, fixedRand{})
	if lead.Name != domain.UnknownLeadName {
		t.Errorf("expected Unknown Lead, got %q", lead.Name)
	}
	if lead.Email != "" || lead.Phone != "" {
		t.Errorf("expected empty contact fields, got %q/%q", lead.Email, lead.Phone)
	}

	if got := Normalize(nil, now, fixedRand{}); got.Name != domain.UnknownLeadName {
		t.Errorf("nil body should normalize, got %+v", got)
	}
}

func TestAssignmentHint(t *testing.T) {
	body := map[string]any{
		"contact":        map[string]any{"assigned_to": "jamal"},
		"assignedToName": "ignored",
	}
	if got := AssignmentHint(body); got != "jamal" {
		t.Fatalf("hint = %q", got)
	}
	if got := AssignmentHint(map[string]any{"assignedToName": "Kimora"}); got != "Kimora" {
		t.Fatalf("top-level hint = %q", got)
	}
}
