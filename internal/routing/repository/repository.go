// Package repository persists router settings and the assignment event log
// as whole documents in the shared store.
package repository

import (
	"context"

	"leadops_backend/internal/routing/domain"
	"leadops_backend/internal/store"
)

// Repository loads and saves the router documents.
type Repository struct {
	store    store.Store
	defaults domain.Settings
}

// New creates a router repository. defaults seeds and merges the roster.
func New(s store.Store, defaults domain.Settings) *Repository {
	return &Repository{store: s, defaults: defaults}
}

// Defaults returns the settings used before anything is persisted.
func (r *Repository) Defaults() domain.Settings {
	return r.defaults
}

// Settings returns the persisted settings merged over the defaults. The
// document is decoded onto the defaults, so fields it omits keep their
// default values; the roster is merged separately.
func (r *Repository) Settings(ctx context.Context) (domain.Settings, error) {
	base := r.defaults
	base.Agents = nil
	if _, err := r.store.Load(ctx, store.DocRouterSettings, &base); err != nil {
		return domain.Settings{}, err
	}
	return domain.WithDefaults(base, r.defaults), nil
}

// SaveSettings merges s over the defaults and persists the result.
func (r *Repository) SaveSettings(ctx context.Context, s domain.Settings) (domain.Settings, error) {
	merged := domain.WithDefaults(s, r.defaults)
	if err := r.store.Save(ctx, store.DocRouterSettings, merged); err != nil {
		return domain.Settings{}, err
	}
	return merged, nil
}

// Events returns the full assignment log.
func (r *Repository) Events(ctx context.Context) ([]domain.Event, error) {
	return store.LoadList[domain.Event](ctx, r.store, store.DocRouterEvents)
}

// SaveEvents truncates the log to the retention window and persists it.
func (r *Repository) SaveEvents(ctx context.Context, events []domain.Event) ([]domain.Event, error) {
	trimmed := domain.Truncate(events)
	if err := r.store.Save(ctx, store.DocRouterEvents, trimmed); err != nil {
		return nil, err
	}
	return trimmed, nil
}

// AppendEvents loads the log, appends events and saves it truncated.
func (r *Repository) AppendEvents(ctx context.Context, events ...domain.Event) error {
	current, err := r.Events(ctx)
	if err != nil {
		return err
	}
	_, err = r.SaveEvents(ctx, append(current, events...))
	return err
}
