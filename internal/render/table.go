// Package render turns a day's slot rows into a text table or an XLSX sheet.
package render

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"bookingdesk/internal/models"
	"bookingdesk/internal/timefmt"
)

// EmptyCell fills name and department columns of free slots.
const EmptyCell = "—"

// Headers are the table columns, shared by the text and XLSX renderers.
var Headers = []string{"Time Slot", "Name", "Department", "Actions"}

// Table writes rows as an aligned text table headed by date.
func Table(w io.Writer, date time.Time, rows []models.ViewRow) error {
	if _, err := fmt.Fprintf(w, "Bookings for %s\n\n", timefmt.FormatDate(date)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", Headers[0], Headers[1], Headers[2], Headers[3])
	for _, r := range rows {
		cells := Cells(r)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cells[0], cells[1], cells[2], cells[3])
	}
	return tw.Flush()
}

// Cells returns the display values of one row in Headers order.
func Cells(r models.ViewRow) [4]string {
	return [4]string{r.Display, orEmpty(r.Name()), orEmpty(r.Department()), r.Action()}
}

func orEmpty(s string) string {
	if s == "" {
		return EmptyCell
	}
	return s
}
