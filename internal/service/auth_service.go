package service

import (
	"context"
	"fmt"
	"strings"

	"bookingdesk/internal/domain"
	"bookingdesk/internal/events"
	"bookingdesk/internal/models"

	"github.com/rs/zerolog"
)

// AuthService is the only writer of the stored session.
type AuthService struct {
	api      domain.BookingAPI
	store    domain.SessionStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewAuthService(api domain.BookingAPI, store domain.SessionStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *AuthService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AuthService{
		api:      api,
		store:    store,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Login authenticates and replaces whatever was stored before, including the active booking id.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("login failed")
		return nil, fmt.Errorf("login: %w", err)
	}

	session := &models.Session{
		Token:          resp.Token,
		UserID:         resp.User.ID,
		UserName:       resp.User.Name,
		UserDepartment: resp.User.Department,
	}

	if err := s.store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("reset session store: %w", err)
	}
	if err := s.store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.logger.Info().Str("user_id", session.UserID.String()).Str("user_name", session.UserName).Msg("logged in")
	s.publish(events.EventSessionStarted, session)
	return session, nil
}

// Register creates an account. It does not log the user in.
func (s *AuthService) Register(ctx context.Context, name, email, department, password string) error {
	req := models.RegisterRequest{
		Name:       strings.TrimSpace(name),
		Email:      strings.TrimSpace(email),
		Department: strings.TrimSpace(department),
		Password:   password,
	}
	if req.Email == "" || req.Password == "" {
		return ErrMissingCredentials
	}

	if _, err := s.api.Register(ctx, req); err != nil {
		s.logger.Warn().Err(err).Str("email", req.Email).Msg("registration failed")
		return fmt.Errorf("register: %w", err)
	}

	s.logger.Info().Str("email", req.Email).Msg("registered")
	return nil
}

// Logout wipes the token, identity and active booking id.
func (s *AuthService) Logout(ctx context.Context) error {
	session, _ := s.store.GetSession(ctx)
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if session != nil {
		s.publish(events.EventSessionEnded, session)
	}
	return nil
}

// Current returns the stored session or ErrNotAuthenticated.
func (s *AuthService) Current(ctx context.Context) (*models.Session, error) {
	return currentSession(ctx, s.store)
}

func (s *AuthService) publish(eventType string, session *models.Session) {
	if s.eventBus == nil {
		return
	}
	payload := events.SessionPayload{UserID: session.UserID.String(), UserName: session.UserName}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}

func currentSession(ctx context.Context, store domain.SessionStore) (*models.Session, error) {
	session, err := store.GetSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !session.Valid() {
		return nil, ErrNotAuthenticated
	}
	return session, nil
}
