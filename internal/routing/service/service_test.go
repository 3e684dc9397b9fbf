package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"leadops_backend/internal/crm"
	"leadops_backend/internal/events"
	leaddomain "leadops_backend/internal/leads/domain"
	leadrepo "leadops_backend/internal/leads/repository"
	"leadops_backend/internal/routing/domain"
	"leadops_backend/internal/routing/repository"
	sponsorshipdomain "leadops_backend/internal/sponsorship/domain"
	sponsorshiprepo "leadops_backend/internal/sponsorship/repository"
	"leadops_backend/internal/store"
	"leadops_backend/platform/apperr"
	"leadops_backend/platform/logger"
)

type fixedRand struct{ n int }

func (r fixedRand) Intn(n int) int { return r.n % n }

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

type fakeCRM struct {
	users     map[string]string
	contactID string
	userID    string
	result    crm.UpdateResult
}

func (f *fakeCRM) UserIDFor(owner string) string { return f.users[owner] }

func (f *fakeCRM) UpdateContactOwner(ctx context.Context, contactID, userID string) crm.UpdateResult {
	f.contactID = contactID
	f.userID = userID
	return f.result
}

type fixture struct {
	svc    *Service
	router *repository.Repository
	leads  *leadrepo.Repository
	apps   *sponsorshiprepo.Repository
	bus    *recordingBus
	crm    *fakeCRM
	now    time.Time
}

// 13:00 in Chicago.
var testNow = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, mutate func(*domain.Settings)) *fixture {
	t.Helper()
	defaults := domain.DefaultSettings([]string{"Jamal Holmes", "Leticia Wright"}, "Kimora Link")
	defaults.MaxPerDay = 0
	defaults.MaxPerWeek = 0
	defaults.MaxPerMonth = 0
	if mutate != nil {
		mutate(&defaults)
	}

	s := store.NewMemoryStore()
	f := &fixture{
		router: repository.New(s, defaults),
		leads:  leadrepo.New(s),
		apps:   sponsorshiprepo.New(s),
		bus:    &recordingBus{},
		crm:    &fakeCRM{users: map[string]string{"Jamal Holmes": "u-jamal"}, result: crm.UpdateResult{OK: true, Status: 200}},
		now:    testNow,
	}
	f.svc = New(f.router, f.leads, f.apps, f.crm, f.bus, nil, logger.Nop())
	f.svc.SetClock(func() time.Time { return f.now })
	f.svc.SetRandom(fixedRand{})
	return f
}

func (f *fixture) seedLeads(t *testing.T, leads ...leaddomain.Lead) {
	t.Helper()
	if err := f.leads.SaveAll(context.Background(), leads); err != nil {
		t.Fatalf("seed leads: %v", err)
	}
}

func (f *fixture) seedEvents(t *testing.T, evts ...domain.Event) {
	t.Helper()
	if _, err := f.router.SaveEvents(context.Background(), evts); err != nil {
		t.Fatalf("seed events: %v", err)
	}
}

func assignedEvent(owner, name, email string, at time.Time) domain.Event {
	loc := domain.Location(domain.DefaultTimezone)
	d := domain.Decision{AssignedTo: owner, Reason: domain.ReasonEligibleRandom, Mode: domain.ModeRandom}
	return domain.NewEvent(domain.EventAssigned, domain.Contact{LeadID: name, Name: name, Email: email}, d, at, loc, fixedRand{})
}

func tp(t time.Time) *time.Time { return &t }

func TestRouteAssignsAndRecordsEvent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	result, err := f.svc.Route(ctx, map[string]any{
		"contact": map[string]any{"id": "c1", "firstName": "Ana", "lastName": "Diaz", "email": "ana@example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AssignedTo != "Jamal Holmes" || result.Reason != domain.ReasonEligibleRandom {
		t.Fatalf("unexpected decision %+v", result)
	}
	if result.Row.ID != "c1" || result.Row.Owner != "Jamal Holmes" || result.Row.Stage != leaddomain.StageNew {
		t.Fatalf("unexpected row %+v", result.Row)
	}

	history, _ := f.router.Events(ctx)
	if len(history) != 1 || history[0].Type != domain.EventAssigned || history[0].LeadID != "c1" {
		t.Fatalf("unexpected events %+v", history)
	}
	if history[0].DateKey != "2026-03-10" || history[0].WeekKey != "2026-W11" {
		t.Fatalf("unexpected calendar keys %+v", history[0])
	}

	if len(f.bus.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(f.bus.published))
	}
	evt, ok := f.bus.published[0].(events.LeadAssigned)
	if !ok || evt.Kind != events.KindLeadAssigned || evt.AssignedTo != "Jamal Holmes" {
		t.Fatalf("unexpected published event %+v", f.bus.published[0])
	}
}

func TestRouteKeepsStageAndMilestonesOfExistingLead(t *testing.T) {
	f := newFixture(t, nil)
	created := testNow.Add(-48 * time.Hour)
	f.seedLeads(t, leaddomain.Lead{
		ID: "c1", ExternalID: "c1", Name: "Ana", Owner: "Leticia Wright",
		Stage: leaddomain.StageCalled, CallAttempts: 2,
		Milestones: leaddomain.Milestones{CalledAt: tp(created.Add(time.Hour))},
		CreatedAt:  created, UpdatedAt: created,
	})

	result, err := f.svc.Route(context.Background(), map[string]any{"id": "c1", "name": "Ana Diaz"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := result.Row
	if row.Stage != leaddomain.StageCalled || row.CalledAt == nil || row.CallAttempts != 2 {
		t.Fatalf("expected pipeline state kept, got %+v", row)
	}
	if !row.CreatedAt.Equal(created) || row.Name != "Ana Diaz" || row.Owner != "Jamal Holmes" {
		t.Fatalf("unexpected merge %+v", row)
	}

	all, _ := f.leads.List(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected one lead, got %d", len(all))
	}
}

func TestRouteOverflowsWhenEveryoneIsCapped(t *testing.T) {
	f := newFixture(t, func(s *domain.Settings) { s.MaxPerDay = 1 })
	f.seedEvents(t,
		assignedEvent("Jamal Holmes", "a", "", testNow.Add(-time.Hour)),
		assignedEvent("Leticia Wright", "b", "", testNow.Add(-time.Hour)),
	)

	result, err := f.svc.Route(context.Background(), map[string]any{"id": "c2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AssignedTo != "Kimora Link" || result.Reason != domain.ReasonOverflow {
		t.Fatalf("expected overflow, got %+v", result)
	}
}

func TestRouteReassignsStaleLeads(t *testing.T) {
	f := newFixture(t, nil)
	f.seedLeads(t,
		leaddomain.Lead{ID: "old", ExternalID: "old", Name: "Old Lead", Owner: "Jamal Holmes", Stage: leaddomain.StageNew, CreatedAt: testNow.Add(-30 * time.Minute)},
		leaddomain.Lead{ID: "fresh", ExternalID: "fresh", Owner: "Jamal Holmes", Stage: leaddomain.StageNew, CreatedAt: testNow.Add(-2 * time.Minute)},
		leaddomain.Lead{ID: "called", ExternalID: "called", Owner: "Jamal Holmes", Stage: leaddomain.StageNew, CreatedAt: testNow.Add(-time.Hour), Milestones: leaddomain.Milestones{CalledAt: tp(testNow)}},
	)

	result, err := f.svc.Route(context.Background(), map[string]any{"id": "new"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SLAReassigned != 1 {
		t.Fatalf("expected one reassignment, got %d", result.SLAReassigned)
	}

	all, _ := f.leads.List(context.Background())
	old := all[leadrepo.IndexByID(all, "old")]
	if old.Owner != "Leticia Wright" || old.ReassignCount != 1 || old.ReassignedAt == nil {
		t.Fatalf("unexpected reassigned lead %+v", old)
	}
	if fresh := all[leadrepo.IndexByID(all, "fresh")]; fresh.Owner != "Jamal Holmes" {
		t.Fatalf("fresh lead should keep its owner, got %q", fresh.Owner)
	}

	history, _ := f.router.Events(context.Background())
	var sla *domain.Event
	for i := range history {
		if history[i].Type == domain.EventReassignedSLA {
			sla = &history[i]
		}
	}
	if sla == nil || sla.PreviousOwner != "Jamal Holmes" || sla.Reason != domain.ReasonSLAReassign {
		t.Fatalf("expected reassigned_sla event, got %+v", history)
	}
	if len(f.bus.published) != 2 || f.bus.published[0].(events.LeadAssigned).Kind != events.KindSLAReassign {
		t.Fatalf("expected sla event published first, got %+v", f.bus.published)
	}
}

func TestSweepSLALimitsBatchOldestFirst(t *testing.T) {
	f := newFixture(t, nil)
	var seeded []leaddomain.Lead
	for i := 0; i < 7; i++ {
		id := string(rune('a' + i))
		seeded = append(seeded, leaddomain.Lead{
			ID: id, ExternalID: id, Owner: "Jamal Holmes", Stage: leaddomain.StageNew,
			CreatedAt: testNow.Add(-time.Duration(60-i) * time.Minute),
		})
	}
	f.seedLeads(t, seeded...)

	result, err := f.svc.SweepSLA(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reassigned != 5 {
		t.Fatalf("expected batch of 5, got %d", result.Reassigned)
	}
	want := []string{"a", "b", "c", "d", "e"}
	for i, id := range want {
		if result.LeadIDs[i] != id {
			t.Fatalf("expected oldest first, got %v", result.LeadIDs)
		}
	}
}

func TestSweepSLADisabled(t *testing.T) {
	f := newFixture(t, func(s *domain.Settings) { s.SLAEnabled = false })
	f.seedLeads(t, leaddomain.Lead{ID: "a", Owner: "Jamal Holmes", Stage: leaddomain.StageNew, CreatedAt: testNow.Add(-time.Hour)})

	result, err := f.svc.SweepSLA(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reassigned != 0 {
		t.Fatalf("expected no reassignment, got %d", result.Reassigned)
	}
}

func TestSweepSLANeedsAnotherEligibleAgent(t *testing.T) {
	f := newFixture(t, func(s *domain.Settings) { s.Agents[1].Paused = true })
	f.seedLeads(t, leaddomain.Lead{ID: "a", Owner: "Jamal Holmes", Stage: leaddomain.StageNew, CreatedAt: testNow.Add(-time.Hour)})

	result, err := f.svc.SweepSLA(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reassigned != 0 {
		t.Fatalf("expected lead to stay put, got %d", result.Reassigned)
	}
}

func TestUpdateSettingsMergesPatch(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	updated, err := f.svc.UpdateSettings(ctx, map[string]any{"mode": "balanced", "maxPerDay": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Mode != domain.ModeBalanced || updated.MaxPerDay != 3 {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Timezone != domain.DefaultTimezone || len(updated.Agents) != 2 {
		t.Fatalf("unpatched fields changed: %+v", updated)
	}

	reloaded, _ := f.svc.Settings(ctx)
	if reloaded.Mode != domain.ModeBalanced {
		t.Fatalf("settings not persisted: %+v", reloaded)
	}

	_, err = f.svc.UpdateSettings(ctx, map[string]any{"mode": "round-robin"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.seedEvents(t,
		assignedEvent("Jamal Holmes", "Ana Diaz", "ana@example.com", testNow.Add(-3*time.Hour)),
		assignedEvent("Jamal Holmes", "Cy Fox", "CY@example.com", testNow.Add(-2*time.Hour)),
		assignedEvent("Leticia Wright", "Bo Lee", "", testNow.Add(-27*time.Hour)),
	)
	f.seedLeads(t,
		leaddomain.Lead{ID: "l1", Owner: "Jamal Holmes", Name: "Ana Diaz", Email: "ana@example.com", Stage: leaddomain.StageCalled,
			CreatedAt: testNow.Add(-2 * time.Hour), Milestones: leaddomain.Milestones{CalledAt: tp(testNow.Add(-90 * time.Minute))}},
		leaddomain.Lead{ID: "l2", Owner: "Jamal Holmes", Name: "Bo Lee", Stage: leaddomain.StageNew, CreatedAt: testNow.Add(-time.Hour)},
		leaddomain.Lead{ID: "l3", Owner: "Leticia Wright", Name: "Cy Fox", Email: "cy@example.com", Stage: leaddomain.StageNew, CreatedAt: testNow.Add(-time.Hour)},
		leaddomain.Lead{ID: "l4", Name: "Dee", Stage: leaddomain.StageConnected, CreatedAt: testNow.Add(-20 * time.Minute),
			LastCallAttemptAt: tp(testNow.Add(-10 * time.Minute))},
	)
	if err := f.apps.SaveAll(ctx, []sponsorshipdomain.Application{
		{ID: "sapp_1", FirstName: "Cy", LastName: "Fox", Email: "cy@example.com", Status: "Pending Review"},
	}); err != nil {
		t.Fatalf("seed applications: %v", err)
	}

	dash, err := f.svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dash.Counts["Jamal Holmes"].Today != 2 || dash.Yesterday["Leticia Wright"] != 1 {
		t.Fatalf("unexpected counts %+v / %+v", dash.Counts, dash.Yesterday)
	}
	if dash.Keys.DateKey != "2026-03-10" {
		t.Fatalf("unexpected keys %+v", dash.Keys)
	}
	if len(dash.TomorrowStartOrder) != 2 || dash.TomorrowStartOrder[0].Name != "Leticia Wright" {
		t.Fatalf("unexpected start order %+v", dash.TomorrowStartOrder)
	}
	if len(dash.Recent) != 3 || dash.Recent[0].Name != "Cy Fox" || dash.Recent[0].SponsorshipStatus != "Pending Review" {
		t.Fatalf("unexpected recent %+v", dash.Recent)
	}

	totals := dash.CallMetrics.Totals
	if totals.Assigned != 4 || totals.ExemptFormSubmitted != 1 || totals.Callable != 3 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if totals.Called != 2 || totals.CalledToday != 2 || totals.Uncalled != 1 || totals.CallRate != 67 {
		t.Fatalf("unexpected call totals %+v", totals)
	}
	if totals.AvgFirstCallMinutes == nil || *totals.AvgFirstCallMinutes != 20 {
		t.Fatalf("unexpected first call average %v", totals.AvgFirstCallMinutes)
	}
	if totals.AvgWaitMinutes == nil || *totals.AvgWaitMinutes != 60 {
		t.Fatalf("unexpected wait average %v", totals.AvgWaitMinutes)
	}

	names := []string{}
	for _, o := range dash.CallMetrics.ByOwner {
		names = append(names, o.Name)
	}
	if len(names) != 3 || names[0] != "Jamal Holmes" || names[2] != "Unassigned" {
		t.Fatalf("unexpected owners %v", names)
	}
	if dash.CallMetrics.ByOwner[0].CallRate != 50 {
		t.Fatalf("unexpected owner call rate %+v", dash.CallMetrics.ByOwner[0])
	}

	rows := dash.CalledLeadRows
	if len(rows) != 2 || rows[0].ID != "l4" || rows[1].ID != "l1" {
		t.Fatalf("unexpected called rows %+v", rows)
	}
	if rows[0].Owner != leaddomain.OwnerUnknown || rows[0].LastCallDurationSec != 600 {
		t.Fatalf("unexpected inferred row %+v", rows[0])
	}
}

func TestStatusIndexPhoneOnlyForUnknownNames(t *testing.T) {
	idx := newStatusIndex([]sponsorshipdomain.Application{{FirstName: "Eve", LastName: "Ray", Phone: "(555) 010-2000"}})

	if got := idx.lookup("Someone Else", "", "555-010-2000"); got != "" {
		t.Fatalf("named lead must not match by phone, got %q", got)
	}
	if got := idx.lookup("Unknown Lead", "", "5550102000"); got != "Pending" {
		t.Fatalf("expected phone match with default status, got %q", got)
	}
	if got := idx.lookup("eve  ray", "", ""); got != "Pending" {
		t.Fatalf("expected name match, got %q", got)
	}
}

func TestAssignFBUpdatesContactOwner(t *testing.T) {
	f := newFixture(t, nil)

	result, err := f.svc.AssignFB(context.Background(), map[string]any{"contact": map[string]any{"id": "fb-1", "name": "Gus"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ContactID == nil || *result.ContactID != "fb-1" || result.Warning != nil {
		t.Fatalf("unexpected contact fields %+v", result)
	}
	if result.AssignedTo != "Jamal Holmes" || result.AssignedUserID == nil || *result.AssignedUserID != "u-jamal" {
		t.Fatalf("unexpected assignment %+v", result)
	}
	if !result.GHLOwnerUpdated || f.crm.contactID != "fb-1" || f.crm.userID != "u-jamal" {
		t.Fatalf("expected CRM update, got %+v / %+v", result, f.crm)
	}

	all, _ := f.leads.List(context.Background())
	if len(all) != 1 || all[0].Source != SourceFacebook {
		t.Fatalf("expected facebook lead, got %+v", all)
	}
}

func TestAssignFBWithoutContactID(t *testing.T) {
	f := newFixture(t, nil)
	f.crm.result = crm.UpdateResult{Reason: crm.ReasonMissingConfig}

	result, err := f.svc.AssignFB(context.Background(), map[string]any{"name": "No Id", "assignedUserId": "u-explicit"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ContactID != nil || result.Warning == nil || *result.Warning != "missing_contact_id_payload" {
		t.Fatalf("expected missing contact warning, got %+v", result)
	}
	if result.GHLOwnerUpdated || *result.AssignedUserID != "u-explicit" {
		t.Fatalf("unexpected update fields %+v", result)
	}
}
