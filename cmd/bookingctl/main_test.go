package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"bookingdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fakeBackend is a single-user in-memory booking server.
type fakeBackend struct {
	mu       sync.Mutex
	bookings []models.Booking
	nextID   int
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/auth/login" {
		var req models.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.LoginResponse{
			Token: "tok",
			User:  models.User{ID: "u1", Name: "Alice", Department: "Cardiology"},
		})
		return
	}

	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/bookings/slots":
		_ = json.NewEncoder(w).Encode(b.bookings)
	case r.Method == http.MethodPost && r.URL.Path == "/bookings/book":
		var req models.BookRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, existing := range b.bookings {
			if existing.Time == req.SlotTime {
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"message":"Slot already booked"}`))
				return
			}
		}
		b.nextID++
		booking := models.Booking{
			ID: models.ID(fmt.Sprintf("b%d", b.nextID)), Time: req.SlotTime,
			Name: "Alice", Department: "Cardiology", Booked: true,
		}
		b.bookings = append(b.bookings, booking)
		_ = json.NewEncoder(w).Encode(booking)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/bookings/cancel/"):
		id := models.ID(strings.TrimPrefix(r.URL.Path, "/bookings/cancel/"))
		for i, existing := range b.bookings {
			if existing.ID == id {
				b.bookings = append(b.bookings[:i], b.bookings[i+1:]...)
				_, _ = w.Write([]byte(`{"message":"canceled"}`))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Booking not found"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setupCLI(t *testing.T) (dir string) {
	t.Helper()
	srv := httptest.NewServer(&fakeBackend{})
	t.Cleanup(srv.Close)

	dir = t.TempDir()
	cfg := fmt.Sprintf(`
api:
  base_url: %s
session:
  backend: sqlite
  path: %s
logging:
  level: error
exports:
  path: %s
`, srv.URL, filepath.Join(dir, "session.db"), filepath.Join(dir, "exports"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	t.Setenv("BOOKINGDESK_CONFIG", path)
	t.Setenv("BOOKINGDESK_PASSWORD", "")
	return dir
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code, err := run(args, &out, &errOut)
	if err != nil {
		errOut.WriteString(err.Error())
	}
	return code, out.String(), errOut.String()
}

func TestCLI_Flow(t *testing.T) {
	dir := setupCLI(t)
	date := "-date=2024-06-03"

	code, _, stderr := runCLI(t, "slots", date)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, models.MsgNotLoggedIn)

	code, _, stderr = runCLI(t, "login", "-email", "alice@example.com", "-password", "wrong")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Invalid credentials")

	code, stdout, _ := runCLI(t, "login", "-email", "alice@example.com", "-password", "secret")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Logged in as Alice (Cardiology)")

	code, stdout, _ = runCLI(t, "whoami")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Alice")

	code, stdout, _ = runCLI(t, "slots", date)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Bookings for 2024-06-03")
	assert.Equal(t, 11, strings.Count(stdout, "Book\n"))

	code, stdout, _ = runCLI(t, "book", date, "-slot", "9:00 AM")
	require.Equal(t, 0, code)
	assert.Regexp(t, `9:00 AM\s+Alice\s+Cardiology\s+Cancel`, stdout)

	code, _, stderr = runCLI(t, "book", date, "-slot", "09:00:00")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Slot already booked")

	code, stdout, _ = runCLI(t, "export", date)
	require.Equal(t, 0, code)
	exported := strings.TrimSpace(stdout)
	assert.Equal(t, filepath.Join(dir, "exports", "slots_2024-06-03.xlsx"), exported)
	f, err := excelize.OpenFile(exported)
	require.NoError(t, err)
	name, err := f.GetCellValue("Bookings", "B4")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
	require.NoError(t, f.Close())

	code, stdout, _ = runCLI(t, "cancel", date)
	require.Equal(t, 0, code)
	assert.Equal(t, 11, strings.Count(stdout, "Book\n"))

	code, _, stderr = runCLI(t, "cancel", date)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, models.MsgNothingToCancel)

	code, stdout, _ = runCLI(t, "logout")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Logged out.")

	code, _, stderr = runCLI(t, "whoami")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, models.MsgNotLoggedIn)
}

func TestCLI_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: bookingctl")

	code, _, stderr = runCLI(t, "teleport")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, `unknown command "teleport"`)
}

func TestCLI_BadInput(t *testing.T) {
	setupCLI(t)

	code, _, _ := runCLI(t, "login", "-email", "alice@example.com", "-password", "secret")
	require.Equal(t, 0, code)

	code, _, stderr := runCLI(t, "slots", "-date", "03/06/2024")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "expected YYYY-MM-DD")

	code, _, stderr = runCLI(t, "book", "-date", "2024-06-03", "-slot", "7:00 AM")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown time slot.")

	code, _, stderr = runCLI(t, "book", "-date", "2024-06-03")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "-slot is required")

	code, _, stderr = runCLI(t, "publish", "-date", "2024-06-03")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "must be configured")
}
