package repository

import (
	"context"
	"sync"

	"bookingdesk/internal/models"
)

type MemorySessionStore struct {
	mu       sync.RWMutex
	session  *models.Session
	activeID models.ID
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (r *MemorySessionStore) GetSession(ctx context.Context) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.session == nil {
		return nil, nil
	}
	s := *r.session
	return &s, nil
}

func (r *MemorySessionStore) SaveSession(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session == nil {
		r.session = nil
		r.activeID = ""
		return nil
	}
	s := *session
	r.session = &s
	return nil
}

func (r *MemorySessionStore) GetActiveBooking(ctx context.Context) (models.ID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID, nil
}

func (r *MemorySessionStore) SetActiveBooking(ctx context.Context, id models.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeID = id
	return nil
}

func (r *MemorySessionStore) ClearActiveBooking(ctx context.Context) error {
	return r.SetActiveBooking(ctx, "")
}

func (r *MemorySessionStore) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
	r.activeID = ""
	return nil
}
