package slots

import (
	"bookingdesk/internal/models"
	"bookingdesk/internal/timefmt"
)

// Owner identifies the current user for ownership checks.
type Owner struct {
	UserID   models.ID
	UserName string
}

// OwnerFromSession extracts the ownership identity of a session.
func OwnerFromSession(s *models.Session) Owner {
	if s == nil {
		return Owner{}
	}
	return Owner{UserID: s.UserID, UserName: s.UserName}
}

// Owns compares by user id when both sides carry one and falls back to the
// display name otherwise. An empty name never matches.
func (o Owner) Owns(b models.Booking) bool {
	if b.UserID != "" && o.UserID != "" {
		return b.UserID == o.UserID
	}
	return o.UserName != "" && b.Name == o.UserName
}

// Reconcile joins the fixed slot list against the server's bookings.
// The result has exactly one row per slot, in slot order. Bookings for
// unknown slots are ignored; for duplicate entries the first one wins.
func Reconcile(slotTimes []string, bookings []models.Booking, owner Owner) []models.ViewRow {
	bySlot := make(map[string]models.Booking, len(bookings))
	for _, b := range bookings {
		if _, seen := bySlot[b.Time]; seen {
			continue
		}
		bySlot[b.Time] = b
	}

	rows := make([]models.ViewRow, len(slotTimes))
	for i, slot := range slotTimes {
		row := models.ViewRow{Slot: slot, Display: timefmt.ToDisplay(slot)}
		if b, ok := bySlot[slot]; ok {
			booking := b
			row.Booking = &booking
			row.IsBooked = b.Booked
			row.IsOwnedByCurrentUser = b.Booked && owner.Owns(b)
		}
		rows[i] = row
	}
	return rows
}

// FindOwned returns the first booked entry owned by owner that carries an id.
func FindOwned(bookings []models.Booking, owner Owner) (models.Booking, bool) {
	for _, b := range bookings {
		if b.Booked && b.ID != "" && owner.Owns(b) {
			return b, true
		}
	}
	return models.Booking{}, false
}

// Occupancy counts booked and free rows.
func Occupancy(rows []models.ViewRow) (booked, free int) {
	for _, r := range rows {
		if r.IsBooked {
			booked++
		} else {
			free++
		}
	}
	return booked, free
}
