package models

import "time"

// RowState is the per-slot state as seen by this client.
type RowState int

const (
	RowEmpty RowState = iota
	RowBookedOther
	RowBookedSelf
)

func (s RowState) String() string {
	switch s {
	case RowBookedOther:
		return "booked_other"
	case RowBookedSelf:
		return "booked_self"
	default:
		return "empty"
	}
}

// ViewRow is one line of the day table. It is derived on every fetch and never cached.
type ViewRow struct {
	Slot                 string   `json:"slot"`
	Display              string   `json:"display"`
	Booking              *Booking `json:"booking,omitempty"`
	IsBooked             bool     `json:"is_booked"`
	IsOwnedByCurrentUser bool     `json:"is_owned_by_current_user"`
}

func (r ViewRow) State() RowState {
	switch {
	case r.IsBooked && r.IsOwnedByCurrentUser:
		return RowBookedSelf
	case r.IsBooked:
		return RowBookedOther
	default:
		return RowEmpty
	}
}

// Action returns the label of the button the row offers.
func (r ViewRow) Action() string {
	switch r.State() {
	case RowBookedSelf:
		return ActionCancel
	case RowBookedOther:
		return ActionBooked
	default:
		return ActionBook
	}
}

// Name returns the booking owner's name, empty for a free slot.
func (r ViewRow) Name() string {
	if !r.IsBooked || r.Booking == nil {
		return ""
	}
	return r.Booking.Name
}

// Department returns the booking owner's department, empty for a free slot.
func (r ViewRow) Department() string {
	if !r.IsBooked || r.Booking == nil {
		return ""
	}
	return r.Booking.Department
}

// SlotsView is a point-in-time copy of the view model state.
type SlotsView struct {
	Date      time.Time `json:"date"`
	Rows      []ViewRow `json:"rows"`
	Loading   bool      `json:"loading"`
	LastError string    `json:"last_error,omitempty"`
}
