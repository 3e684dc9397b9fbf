package owners

import (
	"context"
	"time"

	leaddomain "leadops_backend/internal/leads/domain"
	routingdomain "leadops_backend/internal/routing/domain"
)

// LeadStore is the lead collection the repairer rewrites.
type LeadStore interface {
	List(ctx context.Context) ([]leaddomain.Lead, error)
	SaveAll(ctx context.Context, leads []leaddomain.Lead) error
}

// RepairResult counts repaired leads out of the leads that had no owner.
type RepairResult struct {
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// Repairer re-resolves leads whose owner is unknown.
type Repairer struct {
	resolver *Resolver
	leads    LeadStore
	history  History
	now      func() time.Time
}

// NewRepairer creates a repairer.
func NewRepairer(resolver *Resolver, leads LeadStore, history History) *Repairer {
	return &Repairer{resolver: resolver, leads: leads, history: history, now: time.Now}
}

// Repair resolves every lead whose owner is blank, "Unknown" or
// "unassigned" through the override table and the full event log, and
// saves the collection once if anything changed.
func (r *Repairer) Repair(ctx context.Context) (RepairResult, error) {
	var result RepairResult

	leads, err := r.leads.List(ctx)
	if err != nil {
		return result, err
	}
	events, err := r.history.Events(ctx)
	if err != nil {
		return result, err
	}
	newestFirst := routingdomain.NewestFirst(events)

	now := r.now()
	for i, l := range leads {
		if l.HasKnownOwner() {
			continue
		}
		result.Total++
		res := r.resolver.ResolveStored(Subject{
			ExternalID: l.ExternalID,
			Name:       l.Name,
			Email:      l.Email,
			Phone:      l.Phone,
		}, newestFirst)
		if !res.Known() {
			continue
		}
		leads[i].Owner = res.Owner
		leads[i].UpdatedAt = now
		result.Updated++
	}

	if result.Updated > 0 {
		if err := r.leads.SaveAll(ctx, leads); err != nil {
			return result, err
		}
	}
	return result, nil
}
