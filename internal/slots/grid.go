package slots

import (
	"fmt"
	"time"

	"bookingdesk/internal/models"
	"bookingdesk/internal/timefmt"
)

// Grid describes the fixed set of bookable slots of a day as offsets from midnight.
type Grid struct {
	Start time.Duration
	End   time.Duration // inclusive
	Step  time.Duration
}

// DefaultGrid is 08:00 to 18:00, one slot per hour.
func DefaultGrid() Grid {
	return Grid{
		Start: models.DefaultGridStartHour * time.Hour,
		End:   models.DefaultGridEndHour * time.Hour,
		Step:  models.DefaultGridStepMinutes * time.Minute,
	}
}

// NewGrid builds a grid from hours and a step in minutes.
func NewGrid(startHour, endHour, stepMinutes int) (Grid, error) {
	g := Grid{
		Start: time.Duration(startHour) * time.Hour,
		End:   time.Duration(endHour) * time.Hour,
		Step:  time.Duration(stepMinutes) * time.Minute,
	}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

func (g Grid) Validate() error {
	if g.Step <= 0 {
		return fmt.Errorf("slot step must be positive, got %s", g.Step)
	}
	if g.Start < 0 || g.End < g.Start {
		return fmt.Errorf("invalid slot range %s..%s", g.Start, g.End)
	}
	if g.End >= 24*time.Hour {
		return fmt.Errorf("slot range must end before midnight, got %s", g.End)
	}
	return nil
}

// Slots returns the wire-format slot times in ascending order.
// The result depends only on the grid, never on server data.
func (g Grid) Slots() []string {
	if g.Validate() != nil {
		return nil
	}
	out := make([]string, 0, int((g.End-g.Start)/g.Step)+1)
	for cursor := g.Start; cursor <= g.End; cursor += g.Step {
		out = append(out, formatOffset(cursor))
	}
	return out
}

// Contains reports whether slot (wire format) is one of the grid's slots.
func (g Grid) Contains(slot string) bool {
	for _, s := range g.Slots() {
		if s == slot {
			return true
		}
	}
	return false
}

// Labels returns the display-format labels of the grid's slots.
func (g Grid) Labels() []string {
	slots := g.Slots()
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = timefmt.ToDisplay(s)
	}
	return out
}

func formatOffset(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	s := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
