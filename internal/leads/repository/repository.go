// Package repository persists the caller lead collection. The collection is
// one document: every write replaces it whole.
package repository

import (
	"context"
	"strings"

	"leadops_backend/internal/leads/domain"
	"leadops_backend/internal/store"
	"leadops_backend/platform/phone"
	"leadops_backend/platform/sanitize"
)

// Repository loads and saves leads.
type Repository struct {
	store store.Store
}

// New creates a new leads repository.
func New(s store.Store) *Repository {
	return &Repository{store: s}
}

// List returns every stored lead.
func (r *Repository) List(ctx context.Context) ([]domain.Lead, error) {
	return store.LoadList[domain.Lead](ctx, r.store, store.DocLeads)
}

// SaveAll replaces the collection.
func (r *Repository) SaveAll(ctx context.Context, leads []domain.Lead) error {
	return r.store.Save(ctx, store.DocLeads, leads)
}

// IndexByID returns the position of the lead with id, or -1.
func IndexByID(leads []domain.Lead, id string) int {
	for i := range leads {
		if leads[i].ID == id {
			return i
		}
	}
	return -1
}

// IndexByExternalID returns the position of the lead with a matching
// non-empty externalId, or -1.
func IndexByExternalID(leads []domain.Lead, externalID string) int {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return -1
	}
	for i := range leads {
		if leads[i].ExternalID != "" && leads[i].ExternalID == externalID {
			return i
		}
	}
	return -1
}

// Match describes a contact to look up by any identifying field.
type Match struct {
	ExternalID string
	Email      string
	Phone      string
	Name       string
}

// IndexByContact returns the first lead matching externalId, email, phone
// digits or normalized name, checked in that order per lead.
func IndexByContact(leads []domain.Lead, m Match) int {
	externalID := strings.TrimSpace(m.ExternalID)
	email := sanitize.EmailKey(m.Email)
	digits := phone.Digits(m.Phone)
	name := sanitize.NameKey(m.Name)

	for i, l := range leads {
		switch {
		case externalID != "" && strings.TrimSpace(l.ExternalID) == externalID:
			return i
		case email != "" && sanitize.EmailKey(l.Email) == email:
			return i
		case digits != "" && phone.Digits(l.Phone) == digits:
			return i
		case name != "" && sanitize.NameKey(l.Name) == name:
			return i
		}
	}
	return -1
}
