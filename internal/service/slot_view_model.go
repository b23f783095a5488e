package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bookingdesk/internal/domain"
	"bookingdesk/internal/events"
	"bookingdesk/internal/metrics"
	"bookingdesk/internal/models"
	"bookingdesk/internal/slots"
	"bookingdesk/internal/timefmt"

	"github.com/rs/zerolog"
)

const (
	actionLoad   = "load"
	actionBook   = "book"
	actionCancel = "cancel"
)

// SlotViewModel holds the day table for one session and drives the
// load/book/cancel flows against the backend.
//
// Loads may overlap. Every load takes a sequence number and a response older
// than the last applied one is dropped with ErrStaleResponse. The persisted
// active-booking id is written only by the load whose rows are on screen.
type SlotViewModel struct {
	api      domain.BookingAPI
	store    domain.SessionStore
	grid     slots.Grid
	eventBus domain.EventPublisher
	notifier domain.Notifier
	logger   *zerolog.Logger

	persistMu sync.Mutex

	mu        sync.Mutex
	selected  time.Time
	shown     time.Time
	rows      []models.ViewRow
	inflight  int
	lastError string
	seq       uint64
	applied   uint64
}

func NewSlotViewModel(
	api domain.BookingAPI,
	store domain.SessionStore,
	grid slots.Grid,
	eventBus domain.EventPublisher,
	notifier domain.Notifier,
	logger *zerolog.Logger,
) *SlotViewModel {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SlotViewModel{
		api:      api,
		store:    store,
		grid:     grid,
		eventBus: eventBus,
		notifier: notifier,
		logger:   logger,
		rows:     slots.Reconcile(grid.Slots(), nil, slots.Owner{}),
	}
}

// LoadSlots fetches the bookings of date and rebuilds the rows. On failure
// the previous rows stay in place.
func (vm *SlotViewModel) LoadSlots(ctx context.Context, date time.Time) error {
	session, err := currentSession(ctx, vm.store)
	if err != nil {
		vm.fail(actionLoad, err)
		return err
	}

	vm.mu.Lock()
	vm.seq++
	seq := vm.seq
	vm.selected = date
	vm.inflight++
	vm.mu.Unlock()

	day := timefmt.FormatDate(date)
	bookings, err := vm.api.ListSlots(ctx, session.Token, day)

	vm.mu.Lock()
	vm.inflight--
	if seq < vm.applied {
		vm.mu.Unlock()
		metrics.IncAction(actionLoad, metrics.OutcomeStale)
		vm.logger.Debug().Uint64("seq", seq).Str("date", day).Msg("discarding stale slots response")
		return ErrStaleResponse
	}
	vm.applied = seq

	if err != nil {
		vm.mu.Unlock()
		vm.fail(actionLoad, err)
		return fmt.Errorf("load slots for %s: %w", day, err)
	}

	owner := slots.OwnerFromSession(session)
	rows := slots.Reconcile(vm.grid.Slots(), bookings, owner)
	vm.rows = rows
	vm.shown = date
	vm.lastError = ""
	vm.mu.Unlock()

	vm.persistActive(ctx, seq, bookings, owner)

	booked, free := slots.Occupancy(rows)
	metrics.IncAction(actionLoad, metrics.OutcomeOK)
	vm.publish(events.EventSlotsLoaded, events.SlotsPayload{Date: day, Booked: booked, Free: free, Seq: seq})
	vm.logger.Debug().Str("date", day).Int("booked", booked).Int("free", free).Msg("slots loaded")
	return nil
}

// Book reserves slot (wire or display form) on date for the current user
// and reloads that date.
func (vm *SlotViewModel) Book(ctx context.Context, date time.Time, slot string) error {
	session, err := currentSession(ctx, vm.store)
	if err != nil {
		vm.fail(actionBook, err)
		return err
	}

	wire := timefmt.Normalize(slot)
	if !vm.grid.Contains(wire) {
		err := fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
		vm.fail(actionBook, err)
		return err
	}

	req := models.BookRequest{BookingDate: timefmt.FormatDate(date), SlotTime: wire}
	if _, err := vm.api.Book(ctx, session.Token, req); err != nil {
		vm.fail(actionBook, err)
		return fmt.Errorf("book %s %s: %w", req.BookingDate, wire, err)
	}

	metrics.IncAction(actionBook, metrics.OutcomeOK)
	vm.publish(events.EventBookingCreated, events.BookingEventPayload{
		Date:     req.BookingDate,
		SlotTime: wire,
		UserID:   session.UserID.String(),
		UserName: session.UserName,
	})
	vm.logger.Info().Str("date", req.BookingDate).Str("slot", wire).Msg("slot booked")

	return vm.reload(ctx, date)
}

// Cancel deletes the persisted active booking and reloads the selected date.
// Without an active booking it fails with ErrNothingToCancel and makes no call.
func (vm *SlotViewModel) Cancel(ctx context.Context) error {
	id, err := vm.store.GetActiveBooking(ctx)
	if err != nil {
		return fmt.Errorf("read active booking: %w", err)
	}
	if id == "" {
		vm.fail(actionCancel, ErrNothingToCancel)
		return ErrNothingToCancel
	}

	session, err := currentSession(ctx, vm.store)
	if err != nil {
		vm.fail(actionCancel, err)
		return err
	}

	if _, err := vm.api.Cancel(ctx, session.Token, id); err != nil {
		vm.fail(actionCancel, err)
		return fmt.Errorf("cancel booking %s: %w", id, err)
	}

	vm.persistMu.Lock()
	if err := vm.store.ClearActiveBooking(ctx); err != nil {
		vm.logger.Error().Err(err).Msg("failed to clear active booking")
	}
	vm.persistMu.Unlock()

	metrics.IncAction(actionCancel, metrics.OutcomeOK)
	vm.publish(events.EventBookingCanceled, events.BookingEventPayload{
		BookingID: id.String(),
		UserID:    session.UserID.String(),
		UserName:  session.UserName,
	})
	vm.logger.Info().Str("booking_id", id.String()).Msg("booking canceled")

	date := vm.SelectedDate()
	if date.IsZero() {
		return nil
	}
	return vm.reload(ctx, date)
}

// Snapshot returns a copy of the current view state.
func (vm *SlotViewModel) Snapshot() models.SlotsView {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	rows := make([]models.ViewRow, len(vm.rows))
	copy(rows, vm.rows)
	return models.SlotsView{
		Date:      vm.shown,
		Rows:      rows,
		Loading:   vm.inflight > 0,
		LastError: vm.lastError,
	}
}

// SelectedDate is the date of the most recent LoadSlots call.
func (vm *SlotViewModel) SelectedDate() time.Time {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.selected
}

// persistActive stores the owned booking id of load seq, unless a newer load
// has applied its rows in the meantime.
func (vm *SlotViewModel) persistActive(ctx context.Context, seq uint64, bookings []models.Booking, owner slots.Owner) {
	vm.persistMu.Lock()
	defer vm.persistMu.Unlock()

	vm.mu.Lock()
	current := seq == vm.applied
	vm.mu.Unlock()
	if !current {
		vm.logger.Debug().Uint64("seq", seq).Msg("skipping active booking write of superseded load")
		return
	}

	var err error
	if owned, ok := slots.FindOwned(bookings, owner); ok {
		err = vm.store.SetActiveBooking(ctx, owned.ID)
	} else {
		err = vm.store.ClearActiveBooking(ctx)
	}
	if err != nil {
		vm.logger.Error().Err(err).Msg("failed to persist active booking")
	}
}

func (vm *SlotViewModel) reload(ctx context.Context, date time.Time) error {
	if err := vm.LoadSlots(ctx, date); err != nil && !errors.Is(err, ErrStaleResponse) {
		return err
	}
	return nil
}

func (vm *SlotViewModel) fail(action string, err error) {
	msg := UserMessage(err)
	vm.mu.Lock()
	vm.lastError = msg
	vm.mu.Unlock()

	metrics.IncAction(action, metrics.OutcomeError)
	vm.logger.Warn().Err(err).Str("action", action).Msg("slot action failed")
	vm.publish(events.EventActionFailed, events.FailurePayload{Action: action, Message: msg, Error: err.Error()})
	if vm.notifier != nil && msg != "" {
		vm.notifier.Notify(msg)
	}
}

func (vm *SlotViewModel) publish(eventType string, payload interface{}) {
	if vm.eventBus == nil {
		return
	}
	if err := vm.eventBus.PublishJSON(eventType, payload); err != nil {
		vm.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
