// Package transport holds the request and response shapes of the bookings
// API.
package transport

// Booking write modes accepted by POST /bookings.
const (
	ModeUpsert = "upsert"
	ModeClaim  = "claim"
)

// Reasons reported when a chat update is ignored.
const (
	SkippedNoText     = "no_text"
	SkippedNotConfirm = "not_confirm"
)

// WriteRequest is the envelope of POST /bookings. Booking is kept raw so an
// upsert only overwrites the keys it carries.
type WriteRequest struct {
	Mode      string         `json:"mode"`
	Booking   map[string]any `json:"booking"`
	BookingID string         `json:"bookingId"`
	ClaimedBy string         `json:"claimedBy"`
}

// ClaimRequest is a direct claim.
type ClaimRequest struct {
	BookingID string `json:"bookingId" validate:"required"`
	ClaimedBy string `json:"claimedBy" validate:"required,max=120"`
}

// EmailResult reports the assignment email outcome of a chat claim.
type EmailResult struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// TelegramResult is the outcome of one bot update.
type TelegramResult struct {
	Skipped   string       `json:"skipped,omitempty"`
	BookingID string       `json:"bookingId,omitempty"`
	ClaimedBy string       `json:"claimedBy,omitempty"`
	Duplicate bool         `json:"duplicate,omitempty"`
	Email     *EmailResult `json:"email,omitempty"`
}
