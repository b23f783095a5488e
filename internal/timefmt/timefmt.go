// Package timefmt converts slot times between the backend's 24-hour wire
// format (HH:MM:SS) and the 12-hour display format (H:MM AM/PM).
//
// Input is not validated. Malformed values are returned unchanged rather
// than guessed at.
package timefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookingdesk/internal/models"
)

const (
	am = "AM"
	pm = "PM"
)

// ToDisplay converts "HH:MM:SS" to "H:MM AM|PM". Hour 0 becomes 12 AM, hour 12 becomes 12 PM.
func ToDisplay(wire string) string {
	parts := strings.Split(wire, ":")
	if len(parts) < 2 {
		return wire
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return wire
	}

	suffix := am
	if hour >= 12 {
		suffix = pm
	}
	hour %= 12
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%d:%s %s", hour, parts[1], suffix)
}

// ToWire converts "H:MM AM|PM" back to a zero-padded "HH:MM:00".
func ToWire(display string) string {
	fields := strings.Fields(display)
	if len(fields) != 2 {
		return display
	}
	clock := strings.Split(fields[0], ":")
	if len(clock) != 2 {
		return display
	}
	hour, err := strconv.Atoi(clock[0])
	if err != nil {
		return display
	}
	minute, err := strconv.Atoi(clock[1])
	if err != nil {
		return display
	}

	switch strings.ToUpper(fields[1]) {
	case pm:
		if hour != 12 {
			hour += 12
		}
	case am:
		if hour == 12 {
			hour = 0
		}
	default:
		return display
	}
	return fmt.Sprintf("%02d:%02d:00", hour, minute)
}

// Normalize accepts a slot in either format and returns the wire form.
func Normalize(slot string) string {
	slot = strings.TrimSpace(slot)
	upper := strings.ToUpper(slot)
	if strings.HasSuffix(upper, am) || strings.HasSuffix(upper, pm) {
		return ToWire(slot)
	}
	if strings.Count(slot, ":") == 1 {
		return slot + ":00"
	}
	return slot
}

// FormatDate renders a date the way the backend expects it.
func FormatDate(t time.Time) string {
	return t.Format(models.DateLayout)
}

// ParseDate parses a YYYY-MM-DD date in the local time zone.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(models.DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}
