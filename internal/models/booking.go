package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is an identifier the backend may send either as a JSON string or a number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = ID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Booking is one entry of GET /bookings/slots. The client never mutates it.
type Booking struct {
	ID         ID     `json:"id"`
	Time       string `json:"time"` // HH:MM:SS
	Name       string `json:"name"`
	Department string `json:"department"`
	Booked     bool   `json:"booked"`
	UserID     ID     `json:"user_id,omitempty"`
}

// BookRequest is the body of POST /bookings/book.
type BookRequest struct {
	BookingDate string `json:"booking_date"` // YYYY-MM-DD
	SlotTime    string `json:"slot_time"`    // HH:MM:SS
}
