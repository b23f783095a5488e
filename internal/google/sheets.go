package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"bookingdesk/internal/models"
	"bookingdesk/internal/render"
	"bookingdesk/internal/timefmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrSheetNotFound is returned by SheetIDByName.
var ErrSheetNotFound = errors.New("sheet not found")

var (
	headerColor = &sheets.Color{Red: 0.86, Green: 0.92, Blue: 0.97}
	stateColors = map[models.RowState]*sheets.Color{
		models.RowEmpty:       {Red: 1, Green: 1, Blue: 1},
		models.RowBookedOther: {Red: 1, Green: 0.78, Blue: 0.81},
		models.RowBookedSelf:  {Red: 0.78, Green: 0.94, Blue: 0.81},
	}
)

// SheetsService publishes day tables into one spreadsheet, one tab per date.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
}

func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return NewSheetsServiceWithClient(srv, spreadsheetID), nil
}

// NewSheetsServiceWithClient wraps an already configured Sheets client.
func NewSheetsServiceWithClient(srv *sheets.Service, spreadsheetID string) *SheetsService {
	return &SheetsService{service: srv, spreadsheetID: spreadsheetID}
}

// TestConnection checks that the spreadsheet is reachable with the current credentials.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	if _, err := s.service.Spreadsheets.Get(s.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// ServiceAccountEmail returns the account the spreadsheet has to be shared with.
func ServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

// SheetTitle is the tab name used for date.
func SheetTitle(date time.Time) string {
	return timefmt.FormatDate(date)
}

// PublishDay replaces the date's tab with the given rows, creating the tab if needed.
func (s *SheetsService) PublishDay(ctx context.Context, date time.Time, rows []models.ViewRow) error {
	title := SheetTitle(date)

	sheetID, err := s.SheetIDByName(ctx, title)
	if errors.Is(err, ErrSheetNotFound) {
		sheetID, err = s.addSheet(ctx, title)
	}
	if err != nil {
		return err
	}

	lastCol := string(rune('A' + len(render.Headers) - 1))
	clearRange := fmt.Sprintf("'%s'!A:%s", title, lastCol)
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to clear sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	header := make([]interface{}, len(render.Headers))
	for i, h := range render.Headers {
		header[i] = h
	}
	values = append(values, header)
	for _, r := range rows {
		cells := render.Cells(r)
		values = append(values, []interface{}{cells[0], cells[1], cells[2], cells[3]})
	}

	valueRange := &sheets.ValueRange{Values: values}
	if _, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, fmt.Sprintf("'%s'!A1", title), valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("unable to write rows: %w", err)
	}

	return s.format(ctx, sheetID, rows)
}

// SheetIDByName returns the numeric id of the tab called title.
func (s *SheetsService) SheetIDByName(ctx context.Context, title string) (int64, error) {
	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to get spreadsheet: %w", err)
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrSheetNotFound, title)
}

func (s *SheetsService) addSheet(ctx context.Context, title string) (int64, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		}},
	}
	resp, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to add sheet %q: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add sheet %q: empty reply", title)
	}
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (s *SheetsService) format(ctx context.Context, sheetID int64, rows []models.ViewRow) error {
	cols := int64(len(render.Headers))
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1, StartColumnIndex: 0, EndColumnIndex: cols},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						HorizontalAlignment: "CENTER",
						TextFormat:          &sheets.TextFormat{Bold: true},
						BackgroundColor:     headerColor,
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat,horizontalAlignment)",
			},
		},
	}

	for i, r := range rows {
		requests = append(requests, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    int64(i + 1),
					EndRowIndex:      int64(i + 2),
					StartColumnIndex: 0,
					EndColumnIndex:   cols,
				},
				Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{BackgroundColor: stateColors[r.State()]}},
				Fields: "userEnteredFormat(backgroundColor)",
			},
		})
	}

	requests = append(requests, &sheets.Request{
		UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
			Range:      &sheets.DimensionRange{SheetId: sheetID, Dimension: "COLUMNS", StartIndex: 0, EndIndex: cols},
			Properties: &sheets.DimensionProperties{PixelSize: 150},
			Fields:     "pixelSize",
		},
	})

	_, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("unable to format sheet: %w", err)
	}
	return nil
}
