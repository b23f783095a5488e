package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"bookingdesk/internal/events"
	"bookingdesk/internal/models"
	"bookingdesk/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoginResponse), args.Error(1)
}

func (m *mockAPI) Register(ctx context.Context, req models.RegisterRequest) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *mockAPI) ListSlots(ctx context.Context, token, date string) ([]models.Booking, error) {
	args := m.Called(ctx, token, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockAPI) Book(ctx context.Context, token string, req models.BookRequest) (json.RawMessage, error) {
	args := m.Called(ctx, token, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *mockAPI) Cancel(ctx context.Context, token string, id models.ID) (json.RawMessage, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type eventLog struct {
	mu     sync.Mutex
	events []*events.Event
}

func (l *eventLog) record(e *events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) Types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	api      *mockAPI
	store    *repository.MemorySessionStore
	bus      *events.EventBus
	events   *eventLog
	notifier *recordingNotifier
	logger   *zerolog.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	f := &fixture{
		api:      new(mockAPI),
		store:    repository.NewMemorySessionStore(),
		bus:      events.NewEventBus(),
		events:   &eventLog{},
		notifier: &recordingNotifier{},
		logger:   &logger,
	}
	f.bus.SubscribeAll(f.events.record)
	return f
}

func (f *fixture) login(t *testing.T, session models.Session) {
	t.Helper()
	require.NoError(t, f.store.SaveSession(context.Background(), &session))
}

var alice = models.Session{Token: "tok-alice", UserID: "u1", UserName: "Alice", UserDepartment: "Cardiology"}

func rawJSON(s string) json.RawMessage {
	return json.RawMessage(s)
}

// gatedStore holds SetActiveBooking(gateID) until release is closed.
type gatedStore struct {
	*repository.MemorySessionStore
	gateID  models.ID
	entered chan struct{}
	release chan struct{}
}

func newGatedStore(store *repository.MemorySessionStore, gateID models.ID) *gatedStore {
	return &gatedStore{
		MemorySessionStore: store,
		gateID:             gateID,
		entered:            make(chan struct{}),
		release:            make(chan struct{}),
	}
}

func (s *gatedStore) SetActiveBooking(ctx context.Context, id models.ID) error {
	if id == s.gateID {
		close(s.entered)
		<-s.release
	}
	return s.MemorySessionStore.SetActiveBooking(ctx, id)
}
