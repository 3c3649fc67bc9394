package notifier

import (
	"context"
	"errors"
	"taskManager/internal/logger"

	"go.uber.org/zap"
)

var ErrEmptyRecipient = errors.New("не указан получатель")

// Message - одно текстовое письмо одному получателю
type Message struct {
	To      string
	Subject string
	Body    string
}

func (m Message) Validate() error {
	if m.To == "" {
		return ErrEmptyRecipient
	}
	return nil
}

// LogNotifier ничего не отправляет, только пишет письмо в лог.
// Используется, когда почта не настроена.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	msg := Message{To: to, Subject: subject, Body: body}
	if err := msg.Validate(); err != nil {
		return err
	}
	logger.Info("Notifier: Письмо (без отправки)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
