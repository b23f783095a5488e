package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"bookingdesk/internal/domain"
	"bookingdesk/internal/models"

	"github.com/rs/zerolog"
)

const defaultRecoveryInterval = time.Minute

// FailoverSessionStore serves from primary until it fails, then from
// fallback. The primary is probed again once per recovery interval.
//
// Writes always land in the fallback too, so it mirrors the primary. Writes
// made while the primary is down mark it stale, and the first successful
// probe copies the fallback state back before serving from the primary.
type FailoverSessionStore struct {
	primary  domain.SessionStore
	fallback domain.SessionStore
	logger   *zerolog.Logger

	isDown    atomic.Bool
	stale     atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	interval  time.Duration
	now       func() time.Time
}

func NewFailoverSessionStore(primary, fallback domain.SessionStore, logger *zerolog.Logger) *FailoverSessionStore {
	return &FailoverSessionStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		interval: defaultRecoveryInterval,
		now:      time.Now,
	}
}

func (r *FailoverSessionStore) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.now().Sub(r.lastCheck) > r.interval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverSessionStore) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary session store failed, falling back")
	}
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
}

func (r *FailoverSessionStore) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary session store recovered")
	}
}

// primaryCall runs fn against the primary when it is usable, bringing a stale
// primary up to date first. It reports whether the primary served the call.
func (r *FailoverSessionStore) primaryCall(ctx context.Context, fn func() error) bool {
	if !r.usePrimary() {
		return false
	}
	if err := r.resync(ctx); err != nil {
		r.markDown(err)
		return false
	}
	if err := fn(); err != nil {
		r.markDown(err)
		return false
	}
	r.markUp()
	return true
}

func (r *FailoverSessionStore) resync(ctx context.Context) error {
	if !r.stale.Load() {
		return nil
	}
	session, err := r.fallback.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("read fallback session: %w", err)
	}
	id, err := r.fallback.GetActiveBooking(ctx)
	if err != nil {
		return fmt.Errorf("read fallback active booking: %w", err)
	}

	if err := r.primary.Clear(ctx); err != nil {
		return err
	}
	if session != nil {
		if err := r.primary.SaveSession(ctx, session); err != nil {
			return err
		}
	}
	if id != "" {
		if err := r.primary.SetActiveBooking(ctx, id); err != nil {
			return err
		}
	}
	r.stale.Store(false)
	r.logger.Info().Msg("Primary session store resynced from fallback")
	return nil
}

// write applies a mutation to the fallback and, when possible, the primary.
func (r *FailoverSessionStore) write(ctx context.Context, primaryFn, fallbackFn func() error) error {
	fallbackErr := fallbackFn()
	if r.primaryCall(ctx, primaryFn) {
		if fallbackErr != nil {
			r.logger.Warn().Err(fallbackErr).Msg("Fallback session store write failed")
		}
		return nil
	}
	r.stale.Store(true)
	return fallbackErr
}

func (r *FailoverSessionStore) GetSession(ctx context.Context) (*models.Session, error) {
	var session *models.Session
	if r.primaryCall(ctx, func() (err error) {
		session, err = r.primary.GetSession(ctx)
		return err
	}) {
		return session, nil
	}
	return r.fallback.GetSession(ctx)
}

func (r *FailoverSessionStore) SaveSession(ctx context.Context, session *models.Session) error {
	return r.write(ctx,
		func() error { return r.primary.SaveSession(ctx, session) },
		func() error { return r.fallback.SaveSession(ctx, session) },
	)
}

func (r *FailoverSessionStore) GetActiveBooking(ctx context.Context) (models.ID, error) {
	var id models.ID
	if r.primaryCall(ctx, func() (err error) {
		id, err = r.primary.GetActiveBooking(ctx)
		return err
	}) {
		return id, nil
	}
	return r.fallback.GetActiveBooking(ctx)
}

func (r *FailoverSessionStore) SetActiveBooking(ctx context.Context, id models.ID) error {
	return r.write(ctx,
		func() error { return r.primary.SetActiveBooking(ctx, id) },
		func() error { return r.fallback.SetActiveBooking(ctx, id) },
	)
}

func (r *FailoverSessionStore) ClearActiveBooking(ctx context.Context) error {
	return r.write(ctx,
		func() error { return r.primary.ClearActiveBooking(ctx) },
		func() error { return r.fallback.ClearActiveBooking(ctx) },
	)
}

func (r *FailoverSessionStore) Clear(ctx context.Context) error {
	return r.write(ctx,
		func() error { return r.primary.Clear(ctx) },
		func() error { return r.fallback.Clear(ctx) },
	)
}
