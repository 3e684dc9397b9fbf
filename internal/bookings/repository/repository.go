// Package repository persists the sponsorship booking collection as one
// document.
package repository

import (
	"context"
	"strings"

	"leadops_backend/internal/bookings/domain"
	"leadops_backend/internal/store"
)

// Repository loads and saves bookings.
type Repository struct {
	store store.Store
}

// New creates a bookings repository.
func New(s store.Store) *Repository {
	return &Repository{store: s}
}

// List returns every stored booking in stored order.
func (r *Repository) List(ctx context.Context) ([]domain.Booking, error) {
	return store.LoadList[domain.Booking](ctx, r.store, store.DocBookings)
}

// SaveAll replaces the collection.
func (r *Repository) SaveAll(ctx context.Context, bookings []domain.Booking) error {
	return r.store.Save(ctx, store.DocBookings, bookings)
}

// IndexByID returns the position of the booking with id, or -1.
func IndexByID(bookings []domain.Booking, id string) int {
	id = strings.TrimSpace(id)
	for i := range bookings {
		if strings.TrimSpace(bookings[i].ID) == id {
			return i
		}
	}
	return -1
}
