package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	leaddomain "leadops_backend/internal/leads/domain"
	"leadops_backend/internal/routing/domain"
	"leadops_backend/internal/routing/transport"
	sponsorshipdomain "leadops_backend/internal/sponsorship/domain"
	"leadops_backend/platform/phone"
	"leadops_backend/platform/sanitize"

	"golang.org/x/sync/errgroup"
)

const (
	recentLimit     = 300
	calledRowsLimit = 1000
	ownerUnassigned = "Unassigned"
	statusPending   = "Pending"
	maxProxyCall    = 4 * time.Hour
)

// Stages that can only be reached after a call was placed.
var callImpliedStages = map[string]struct{}{
	"called":             {},
	"connected":          {},
	"qualified":          {},
	"form completed":     {},
	"policy started":     {},
	"approved":           {},
	"onboarding started": {},
	"moved forward":      {},
}

// Dashboard assembles the operator overview. The four documents are loaded
// concurrently; nothing is written.
func (s *Service) Dashboard(ctx context.Context) (transport.Dashboard, error) {
	var (
		settings domain.Settings
		history  []domain.Event
		leads    []leaddomain.Lead
		apps     []sponsorshipdomain.Application
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.repo.Settings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.repo.Events(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		leads, err = s.leads.List(gctx)
		return err
	})
	if s.apps != nil {
		g.Go(func() error {
			var err error
			apps, err = s.apps.List(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return transport.Dashboard{}, err
	}

	now := s.now().UTC()
	loc := domain.Location(settings.Timezone)
	tally := domain.BuildTally(settings.Agents, history, now, loc)
	index := newStatusIndex(apps)

	return transport.Dashboard{
		Settings:           settings,
		Counts:             tally.Counts,
		Yesterday:          tally.Yesterday,
		Recent:             recentEvents(history, index),
		Keys:               domain.KeysAt(now, loc),
		TomorrowStartOrder: tomorrowStartOrder(settings, tally),
		CallMetrics:        callMetrics(settings, leads, index, now, loc),
		CalledLeadRows:     calledLeadRows(leads, index),
	}, nil
}

// statusIndex maps "n:<name key>", "e:<email>" and "p:<digits>" to the
// application status.
type statusIndex map[string]string

func newStatusIndex(apps []sponsorshipdomain.Application) statusIndex {
	idx := make(statusIndex, len(apps)*3)
	for _, a := range apps {
		status := strings.TrimSpace(a.Status)
		if status == "" {
			status = statusPending
		}
		if n := sanitize.NameKey(a.FirstName + " " + a.LastName); n != "" {
			idx["n:"+n] = status
		}
		if e := sanitize.EmailKey(a.Email); e != "" {
			idx["e:"+e] = status
		}
		if p := phone.Digits(a.Phone); p != "" {
			idx["p:"+p] = status
		}
	}
	return idx
}

// lookup matches by email, then exact name. Phone matches are only trusted
// when the lead has no usable name, since shared numbers cross-wire people.
func (idx statusIndex) lookup(name, email, phoneNumber string) string {
	if e := sanitize.EmailKey(email); e != "" {
		if status, ok := idx["e:"+e]; ok {
			return status
		}
	}
	n := sanitize.NameKey(name)
	if n != "" {
		if status, ok := idx["n:"+n]; ok {
			return status
		}
	}
	if n == "" || n == strings.ToUpper(leaddomain.UnknownLeadName) {
		if p := phone.Digits(phoneNumber); p != "" {
			return idx["p:"+p]
		}
	}
	return ""
}

func recentEvents(history []domain.Event, idx statusIndex) []transport.RecentEvent {
	sorted := domain.NewestFirst(history)
	if len(sorted) > recentLimit {
		sorted = sorted[:recentLimit]
	}
	out := make([]transport.RecentEvent, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, transport.RecentEvent{Event: e, SponsorshipStatus: idx.lookup(e.Name, e.Email, e.Phone)})
	}
	return out
}

// tomorrowStartOrder ranks routable agents by today's count, then
// yesterday's, then name.
func tomorrowStartOrder(settings domain.Settings, tally domain.Tally) []transport.TomorrowSlot {
	out := make([]transport.TomorrowSlot, 0, len(settings.Agents))
	for _, a := range settings.Agents {
		if !a.Active || a.Paused {
			continue
		}
		out = append(out, transport.TomorrowSlot{
			Name:      a.Name,
			Today:     tally.Counts[a.Name].Today,
			Yesterday: tally.Yesterday[a.Name],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Today != out[j].Today {
			return out[i].Today < out[j].Today
		}
		if out[i].Yesterday != out[j].Yesterday {
			return out[i].Yesterday < out[j].Yesterday
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// inferCalledAt returns the first-call stamp, or for leads whose stage
// implies a call, the last attempt or last update.
func inferCalledAt(l leaddomain.Lead) (time.Time, bool) {
	if l.CalledAt != nil {
		return *l.CalledAt, true
	}
	if _, ok := callImpliedStages[strings.ToLower(strings.TrimSpace(l.Stage))]; !ok {
		return time.Time{}, false
	}
	if l.LastCallAttemptAt != nil {
		return *l.LastCallAttemptAt, true
	}
	if !l.UpdatedAt.IsZero() {
		return l.UpdatedAt, true
	}
	return time.Time{}, false
}

// inferDurationSec prefers the recorded duration and otherwise uses the
// created-to-called gap when it is a plausible call length.
func inferDurationSec(l leaddomain.Lead, calledAt time.Time) int {
	if l.LastCallDurationSec > 0 {
		return l.LastCallDurationSec
	}
	created := createdOf(l)
	if created.IsZero() {
		return 0
	}
	gap := calledAt.Sub(created)
	if gap <= 0 || gap > maxProxyCall {
		return 0
	}
	return int(math.Round(gap.Seconds()))
}

func calledLeadRows(leads []leaddomain.Lead, idx statusIndex) []transport.CalledLeadRow {
	out := make([]transport.CalledLeadRow, 0)
	for _, l := range leads {
		calledAt, ok := inferCalledAt(l)
		if !ok {
			continue
		}
		out = append(out, transport.CalledLeadRow{
			ID:                   l.ID,
			Owner:                orDefault(l.Owner, leaddomain.OwnerUnknown),
			Name:                 orDefault(l.Name, leaddomain.UnknownLeadName),
			Email:                strings.TrimSpace(l.Email),
			Phone:                strings.TrimSpace(l.Phone),
			CalledAt:             calledAt,
			CallResult:           strings.TrimSpace(l.CallResult),
			LastCallDurationSec:  inferDurationSec(l, calledAt),
			LastCallRecordingURL: strings.TrimSpace(l.LastCallRecordingURL),
			Stage:                strings.TrimSpace(l.Stage),
			SponsorshipStatus:    idx.lookup(l.Name, l.Email, l.Phone),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CalledAt.After(out[j].CalledAt)
	})
	if len(out) > calledRowsLimit {
		out = out[:calledRowsLimit]
	}
	return out
}

// callMetrics measures call coverage per owner. Leads that already have a
// sponsorship application or a completed form are exempt from calling.
func callMetrics(settings domain.Settings, leads []leaddomain.Lead, idx statusIndex, now time.Time, loc *time.Location) transport.CallMetrics {
	todayKey := domain.KeysAt(now, loc).DateKey
	byOwner := make(map[string]*transport.CallStats, len(settings.Agents))
	for _, a := range settings.Agents {
		byOwner[a.Name] = &transport.CallStats{}
	}

	for _, l := range leads {
		owner := orDefault(l.Owner, ownerUnassigned)
		b, ok := byOwner[owner]
		if !ok {
			b = &transport.CallStats{}
			byOwner[owner] = b
		}
		b.Assigned++

		if idx.lookup(l.Name, l.Email, l.Phone) != "" || l.FormCompletedAt != nil {
			b.ExemptFormSubmitted++
			continue
		}
		b.Callable++

		created := createdOf(l)
		if calledAt, ok := inferCalledAt(l); ok {
			b.Called++
			if domain.KeysAt(calledAt, loc).DateKey == todayKey {
				b.CalledToday++
			}
			if !created.IsZero() && !calledAt.Before(created) {
				b.TotalFirstCallMinutes += int(math.Round(calledAt.Sub(created).Minutes()))
				b.FirstCallSamples++
			}
			continue
		}

		b.Uncalled++
		if !created.IsZero() {
			b.TotalWaitMinutes += int(math.Floor(now.Sub(created).Minutes()))
		}
		b.WaitSamples++
	}

	var totals transport.CallStats
	rows := make([]transport.OwnerCallStats, 0, len(byOwner))
	for name, b := range byOwner {
		totals.Assigned += b.Assigned
		totals.ExemptFormSubmitted += b.ExemptFormSubmitted
		totals.Callable += b.Callable
		totals.Called += b.Called
		totals.CalledToday += b.CalledToday
		totals.Uncalled += b.Uncalled
		totals.TotalFirstCallMinutes += b.TotalFirstCallMinutes
		totals.FirstCallSamples += b.FirstCallSamples
		totals.TotalWaitMinutes += b.TotalWaitMinutes
		totals.WaitSamples += b.WaitSamples
		rows = append(rows, transport.OwnerCallStats{Name: name, CallStats: finishStats(*b)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })

	return transport.CallMetrics{Totals: finishStats(totals), ByOwner: rows}
}

func finishStats(b transport.CallStats) transport.CallStats {
	if b.Callable > 0 {
		b.CallRate = roundRatio(b.Called*100, b.Callable)
	}
	if b.FirstCallSamples > 0 {
		v := roundRatio(b.TotalFirstCallMinutes, b.FirstCallSamples)
		b.AvgFirstCallMinutes = &v
	}
	if b.WaitSamples > 0 {
		v := roundRatio(b.TotalWaitMinutes, b.WaitSamples)
		b.AvgWaitMinutes = &v
	}
	return b
}

func roundRatio(num, den int) int {
	return int(math.Round(float64(num) / float64(den)))
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
