package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bookingdesk/internal/google"
	"bookingdesk/internal/render"
	"bookingdesk/internal/service"
	"bookingdesk/internal/timefmt"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"login":    cmdLogin,
	"register": cmdRegister,
	"logout":   cmdLogout,
	"whoami":   cmdWhoami,
	"slots":    cmdSlots,
	"book":     cmdBook,
	"cancel":   cmdCancel,
	"export":   cmdExport,
	"publish":  cmdPublish,
	"watch":    cmdWatch,
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func dateFlag(fs *flag.FlagSet) *string {
	return fs.String("date", timefmt.FormatDate(time.Now()), "day to show, YYYY-MM-DD")
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("BOOKINGDESK_PASSWORD"), "account password (or $BOOKINGDESK_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	session, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Logged in as %s", session.UserName)
	if session.UserDepartment != "" {
		fmt.Fprintf(a.stdout, " (%s)", session.UserDepartment)
	}
	fmt.Fprintln(a.stdout)
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	department := fs.String("department", "", "department")
	password := fs.String("password", os.Getenv("BOOKINGDESK_PASSWORD"), "account password (or $BOOKINGDESK_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.auth.Register(ctx, *name, *email, *department, *password); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Account created. Run `bookingctl login` to sign in.")
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Logged out.")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	session, err := a.auth.Current(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", session.UserID, session.UserName, session.UserDepartment)

	active, err := a.store.GetActiveBooking(ctx)
	if err == nil && active != "" {
		fmt.Fprintf(a.stdout, "active booking: %s\n", active)
	}
	return nil
}

// loadDay parses the date flag and loads that day into the view model.
func loadDay(ctx context.Context, a *app, raw string) (time.Time, error) {
	date, err := timefmt.ParseDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	if err := a.view.LoadSlots(ctx, date); err != nil {
		return time.Time{}, err
	}
	return date, nil
}

func printDay(a *app) error {
	view := a.view.Snapshot()
	return render.Table(a.stdout, view.Date, view.Rows)
}

func cmdSlots(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("slots")
	date := dateFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := loadDay(ctx, a, *date); err != nil {
		return err
	}
	return printDay(a)
}

func cmdBook(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("book")
	date := dateFlag(fs)
	slot := fs.String("slot", "", `slot to book, "09:00:00" or "9:00 AM"`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *slot == "" {
		return errors.New("book: -slot is required")
	}

	day, err := timefmt.ParseDate(*date)
	if err != nil {
		return err
	}
	if err := a.view.Book(ctx, day, *slot); err != nil {
		return err
	}
	return printDay(a)
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("cancel")
	date := dateFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// the active booking id is refreshed by the load
	if _, err := loadDay(ctx, a, *date); err != nil {
		return err
	}
	if err := a.view.Cancel(ctx); err != nil {
		return err
	}
	return printDay(a)
}

func cmdExport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("export")
	date := dateFlag(fs)
	out := fs.String("out", "", "output file (default <exports.path>/slots_<date>.xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	day, err := loadDay(ctx, a, *date)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = filepath.Join(a.cfg.Exports.Path, render.ExportFileName(day))
	}
	view := a.view.Snapshot()
	if err := render.ExportXLSX(path, view.Date, view.Rows); err != nil {
		return err
	}

	a.logger.Info().Str("file_path", path).Msg("Excel file created")
	fmt.Fprintln(a.stdout, path)
	return nil
}

func cmdPublish(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("publish")
	date := dateFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.cfg.Google.Enabled() {
		return errors.New("publish: google.credentials_file and google.spreadsheet_id must be configured")
	}

	if _, err := loadDay(ctx, a, *date); err != nil {
		return err
	}

	sheetsService, err := google.NewSheetsService(ctx, a.cfg.Google.CredentialsFile, a.cfg.Google.SpreadsheetID)
	if err != nil {
		return err
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		if email, emailErr := google.ServiceAccountEmail(a.cfg.Google.CredentialsFile); emailErr == nil {
			return fmt.Errorf("%w (is the spreadsheet shared with %s?)", err, email)
		}
		return err
	}

	view := a.view.Snapshot()
	if err := sheetsService.PublishDay(ctx, view.Date, view.Rows); err != nil {
		return err
	}

	a.logger.Info().Str("sheet", google.SheetTitle(view.Date)).Msg("day published to google sheets")
	fmt.Fprintf(a.stdout, "Published %s\n", google.SheetTitle(view.Date))
	return nil
}

func cmdWatch(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("watch")
	date := dateFlag(fs)
	interval := fs.Duration("interval", 30*time.Second, "reload interval")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *interval <= 0 {
		return errors.New("watch: -interval must be positive")
	}

	day, err := timefmt.ParseDate(*date)
	if err != nil {
		return err
	}

	a.startMetrics(ctx)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		err := a.view.LoadSlots(ctx, day)
		switch {
		case errors.Is(err, service.ErrNotAuthenticated):
			return err
		case err == nil:
			fmt.Fprintf(a.stdout, "\n[%s]\n", time.Now().Format(time.TimeOnly))
			if err := printDay(a); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
