package domain

import (
	"context"
	"encoding/json"

	"bookingdesk/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BookingAPI is the subset of the backend the services talk to.
type BookingAPI interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (json.RawMessage, error)
	ListSlots(ctx context.Context, token, date string) ([]models.Booking, error)
	Book(ctx context.Context, token string, req models.BookRequest) (json.RawMessage, error)
	Cancel(ctx context.Context, token string, id models.ID) (json.RawMessage, error)
}

// SessionStore is client-local storage for the session and the active booking id.
// GetSession and GetActiveBooking return a zero value and no error when nothing is stored.
type SessionStore interface {
	GetSession(ctx context.Context) (*models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	GetActiveBooking(ctx context.Context) (models.ID, error)
	SetActiveBooking(ctx context.Context, id models.ID) error
	ClearActiveBooking(ctx context.Context) error
	Clear(ctx context.Context) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier surfaces a user-visible message, e.g. a blocking alert.
type Notifier interface {
	Notify(message string)
}

// TelegramSender is the part of the Telegram bot API used for announcements.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
