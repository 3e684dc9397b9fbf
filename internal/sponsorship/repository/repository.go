// Package repository persists sponsorship applications and the follow-up
// idempotency document.
package repository

import (
	"context"
	"strings"

	"leadops_backend/internal/sponsorship/domain"
	"leadops_backend/internal/store"
)

// Repository loads and saves the sponsorship documents.
type Repository struct {
	store store.Store
}

// New creates a sponsorship repository.
func New(s store.Store) *Repository {
	return &Repository{store: s}
}

// List returns every stored application.
func (r *Repository) List(ctx context.Context) ([]domain.Application, error) {
	return store.LoadList[domain.Application](ctx, r.store, store.DocApplications)
}

// SaveAll replaces the application collection.
func (r *Repository) SaveAll(ctx context.Context, apps []domain.Application) error {
	return r.store.Save(ctx, store.DocApplications, apps)
}

// FollowupState loads the follow-up document, empty when absent.
func (r *Repository) FollowupState(ctx context.Context) (domain.FollowupState, error) {
	state, err := store.LoadOr(ctx, r.store, store.DocFollowupState, domain.FollowupState{})
	if err != nil {
		return domain.FollowupState{}, err
	}
	if state.ByID == nil {
		state.ByID = map[string]*domain.FollowupRecord{}
	}
	return state, nil
}

// SaveFollowupState replaces the follow-up document.
func (r *Repository) SaveFollowupState(ctx context.Context, state domain.FollowupState) error {
	return r.store.Save(ctx, store.DocFollowupState, state)
}

// IndexByID returns the position of the application with id, or -1.
func IndexByID(apps []domain.Application, id string) int {
	id = strings.TrimSpace(id)
	for i := range apps {
		if apps[i].ID == id {
			return i
		}
	}
	return -1
}

// IndexByKey returns the position of the first application sharing key,
// or -1.
func IndexByKey(apps []domain.Application, key string) int {
	if key == "" {
		return -1
	}
	for i := range apps {
		if apps[i].DedupeKey() == key {
			return i
		}
	}
	return -1
}
