package service

import (
	"fmt"

	"bookingdesk/internal/domain"
	"bookingdesk/internal/events"
	"bookingdesk/internal/timefmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramService announces the user's booking changes in a Telegram chat.
type TelegramService struct {
	bot    domain.TelegramSender
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramService(bot domain.TelegramSender, chatID int64, logger *zerolog.Logger) *TelegramService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &TelegramService{
		bot:    bot,
		chatID: chatID,
		logger: logger,
	}
}

// Subscribe hooks the announcer into bus for booking events.
func (s *TelegramService) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventBookingCreated, s.HandleEvent)
	bus.Subscribe(events.EventBookingCanceled, s.HandleEvent)
}

func (s *TelegramService) SendMessage(text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(s.chatID, text)
	return s.bot.Send(msg)
}

// HandleEvent sends one message per booking event. Other event types are ignored.
func (s *TelegramService) HandleEvent(e *events.Event) error {
	text, ok, err := announcement(e)
	if err != nil || !ok {
		return err
	}
	if _, err := s.SendMessage(text); err != nil {
		s.logger.Error().Err(err).Str("event_type", e.Type).Msg("telegram send failed")
		return err
	}
	return nil
}

func announcement(e *events.Event) (string, bool, error) {
	var p events.BookingEventPayload
	switch e.Type {
	case events.EventBookingCreated:
		if err := e.Decode(&p); err != nil {
			return "", false, err
		}
		return fmt.Sprintf("✅ %s booked %s on %s", who(p), timefmt.ToDisplay(p.SlotTime), p.Date), true, nil
	case events.EventBookingCanceled:
		if err := e.Decode(&p); err != nil {
			return "", false, err
		}
		return fmt.Sprintf("❌ %s canceled booking %s", who(p), p.BookingID), true, nil
	default:
		return "", false, nil
	}
}

func who(p events.BookingEventPayload) string {
	if p.UserName != "" {
		return p.UserName
	}
	return "Someone"
}
