// Package repository persists submitted policies as one document.
package repository

import (
	"context"
	"strings"

	"leadops_backend/internal/payouts/domain"
	"leadops_backend/internal/store"
)

// Repository loads and saves the policy collection.
type Repository struct {
	store store.Store
}

// New creates a payouts repository.
func New(s store.Store) *Repository {
	return &Repository{store: s}
}

// List returns every stored policy.
func (r *Repository) List(ctx context.Context) ([]domain.Policy, error) {
	return store.LoadList[domain.Policy](ctx, r.store, store.DocPolicySubmissions)
}

// SaveAll replaces the policy collection.
func (r *Repository) SaveAll(ctx context.Context, policies []domain.Policy) error {
	return r.store.Save(ctx, store.DocPolicySubmissions, policies)
}

// IndexByID returns the index of the policy with id, or -1.
func IndexByID(policies []domain.Policy, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, p := range policies {
		if strings.TrimSpace(p.ID) == id {
			return i
		}
	}
	return -1
}
