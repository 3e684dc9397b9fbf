package domain

import (
	"strings"
	"testing"
	"time"
)

func TestHasContext(t *testing.T) {
	cases := []struct {
		name string
		b    Booking
		want bool
	}{
		{"complete", Booking{SourceApplicationID: "sapp_1", ApplicantFirstName: "Ana", ApplicantName: "Ana Diaz"}, true},
		{"last name only", Booking{SourceApplicationID: "sapp_1", ApplicantLastName: "Diaz"}, true},
		{"missing source", Booking{ApplicantFirstName: "Ana", ApplicantLastName: "Diaz"}, false},
		{"no names", Booking{SourceApplicationID: "sapp_1", ApplicantName: "Ana Diaz"}, false},
		{"unknown name", Booking{SourceApplicationID: "sapp_1", ApplicantFirstName: "Ana", ApplicantName: " UNKNOWN "}, false},
	}
	for _, tc := range cases {
		if got := tc.b.HasContext(); got != tc.want {
			t.Errorf("%s: HasContext() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

type stubLicensing struct {
	licensed map[string]string
	codes    map[string]string
}

func (s stubLicensing) LicensedIn(owner, state string) bool { return s.licensed[owner] == state }
func (s stubLicensing) OwnerForRefCode(code string) string  { return s.codes[code] }

func TestOpenStartsPriorityHoldForLicensedReferrer(t *testing.T) {
	lic := stubLicensing{
		licensed: map[string]string{"Jamal Holmes": "TX"},
		codes:    map[string]string{"jamal_holmes": "Jamal Holmes"},
	}
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	held := Open(Booking{ReferralCode: "jamal_holmes", ApplicantState: "TX"}, lic, 24*time.Hour, now)
	if held.ClaimStatus != StatusPriorityHold || held.PriorityAgent != "Jamal Holmes" {
		t.Fatalf("expected priority hold, got %+v", held)
	}
	if !held.PriorityExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", held.PriorityExpiresAt)
	}

	open := Open(Booking{ReferredBy: "Jamal Holmes", ApplicantState: "CA"}, lic, 24*time.Hour, now)
	if open.ClaimStatus != StatusOpen || open.PriorityAgent != "" {
		t.Fatalf("expected open booking, got %+v", open)
	}

	if Lapse(&held, now.Add(time.Hour)) {
		t.Fatalf("hold should still be active")
	}
	if !Lapse(&held, now.Add(25*time.Hour)) || held.ClaimStatus != StatusOpen {
		t.Fatalf("expected hold to lapse, got %+v", held)
	}
}

func TestClaimOverwritesPreviousClaimer(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	b := Claim(Booking{ID: "book_1"}, "Jamal Holmes", now)
	b = Claim(b, " Kelin Brown ", now.Add(time.Minute))
	if !b.IsClaimed() || b.ClaimedBy != "Kelin Brown" || !b.ClaimedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected claim %+v", b)
	}
	if !SameClaimer("kelin  brown", "Kelin Brown") || SameClaimer("", "") {
		t.Fatalf("unexpected SameClaimer result")
	}
}

func TestNameFallbacks(t *testing.T) {
	b := Booking{ApplicantName: "Ana Maria Diaz"}
	if b.FirstName() != "Ana" || b.LastName() != "Maria Diaz" {
		t.Fatalf("unexpected split %q / %q", b.FirstName(), b.LastName())
	}
}

func TestParseRequestedAt(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2026-03-02 2:30 PM", time.Date(2026, 3, 2, 14, 30, 0, 0, loc), true},
		{"2026-03-02 12:05 am", time.Date(2026, 3, 2, 0, 5, 0, 0, loc), true},
		{"2026-03-02 12:00 PM", time.Date(2026, 3, 2, 12, 0, 0, 0, loc), true},
		{"2026-03-02 14:30", time.Time{}, false},
		{"tomorrow", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseRequestedAt(tc.in, loc)
		if ok != tc.ok || !got.Equal(tc.want) {
			t.Errorf("ParseRequestedAt(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCalendarLink(t *testing.T) {
	loc, _ := time.LoadLocation("America/New_York")
	link := CalendarLink(Booking{ApplicantName: "Ana Diaz", RequestedAtEST: "2026-03-02 2:30 PM"}, loc)
	if !strings.Contains(link, "dates=20260302T193000Z/20260302T203000Z") {
		t.Fatalf("unexpected dates in %s", link)
	}
	if !strings.Contains(link, "text=Sponsorship+Application+-+Ana+Diaz") {
		t.Fatalf("unexpected title in %s", link)
	}
	if CalendarLink(Booking{RequestedAtEST: "soon"}, loc) != "" {
		t.Fatalf("expected empty link for unreadable time")
	}
}

func TestParseConfirm(t *testing.T) {
	cases := []struct {
		text    string
		confirm bool
		want    Confirm
	}{
		{"CONFIRM book_1700000000 - Jamal Holmes - I can take this", true, Confirm{BookingID: "book_1700000000", Claimer: "Jamal Holmes"}},
		{"confirm book_42 - Kelin Brown", true, Confirm{BookingID: "book_42", Claimer: "Kelin Brown"}},
		{"CONFIRM book_42", true, Confirm{BookingID: "book_42"}},
		{"CONFIRM please", true, Confirm{}},
		{"hello book_42", false, Confirm{BookingID: "book_42"}},
	}
	for _, tc := range cases {
		if IsConfirm(tc.text) != tc.confirm {
			t.Errorf("IsConfirm(%q) = %v", tc.text, !tc.confirm)
		}
		if got := ParseConfirm(tc.text); got != tc.want {
			t.Errorf("ParseConfirm(%q) = %+v, want %+v", tc.text, got, tc.want)
		}
	}
}
