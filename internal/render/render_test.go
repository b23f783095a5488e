package render

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"bookingdesk/internal/models"
	"bookingdesk/internal/slots"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var day = time.Date(2024, 6, 3, 0, 0, 0, 0, time.Local)

func sampleRows() []models.ViewRow {
	bookings := []models.Booking{
		{ID: "b1", Time: "09:00:00", Name: "Alice", Department: "Cardiology", Booked: true},
		{ID: "b2", Time: "10:00:00", Name: "Bob", Department: "Radiology", Booked: true},
	}
	return slots.Reconcile(slots.DefaultGrid().Slots(), bookings, slots.Owner{UserName: "Alice"})
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Table(&buf, day, sampleRows()))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	assert.Equal(t, "Bookings for 2024-06-03", lines[0])
	assert.Contains(t, lines[2], "Time Slot")
	assert.Contains(t, lines[2], "Actions")
	// title, blank line, header, 11 slots
	assert.Len(t, lines, 14)

	assert.Regexp(t, `^8:00 AM\s+—\s+—\s+Book$`, lines[3])
	assert.Regexp(t, `^9:00 AM\s+Alice\s+Cardiology\s+Cancel$`, lines[4])
	assert.Regexp(t, `^10:00 AM\s+Bob\s+Radiology\s+Booked$`, lines[5])
	assert.Regexp(t, `^6:00 PM\s+—\s+—\s+Book$`, lines[13])
}

func TestCells_UnbookedEntryHidesName(t *testing.T) {
	row := models.ViewRow{
		Slot:    "11:00:00",
		Display: "11:00 AM",
		Booking: &models.Booking{Time: "11:00:00", Name: "Ghost", Booked: false},
	}
	assert.Equal(t, [4]string{"11:00 AM", EmptyCell, EmptyCell, models.ActionBook}, Cells(row))
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", ExportFileName(day))
	assert.True(t, strings.HasSuffix(path, "slots_2024-06-03.xlsx"))

	require.NoError(t, ExportXLSX(path, day, sampleRows()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Bookings for 2024-06-03", title)

	header, err := f.GetCellValue(sheetName, "D2")
	require.NoError(t, err)
	assert.Equal(t, "Actions", header)

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 13)
	assert.Equal(t, []string{"8:00 AM", EmptyCell, EmptyCell, "Book"}, rows[2])
	assert.Equal(t, []string{"9:00 AM", "Alice", "Cardiology", "Cancel"}, rows[3])
	assert.Equal(t, []string{"10:00 AM", "Bob", "Radiology", "Booked"}, rows[4])
}
