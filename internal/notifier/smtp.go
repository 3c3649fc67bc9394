package notifier

import (
	"context"
	"fmt"
	"taskManager/internal/logger"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPNotifier отправляет письма через SMTP, без повторов и очереди
type SMTPNotifier struct {
	client *mail.Client
	from   string
}

func NewSMTPNotifier(settings SMTPSettings) (*SMTPNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(settings.Port),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if settings.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(settings.Username),
			mail.WithPassword(settings.Password),
		)
	}
	if settings.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(settings.Timeout))
	}

	client, err := mail.NewClient(settings.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("создание smtp клиента: %w", err)
	}

	from := settings.From
	if from == "" {
		from = settings.Username
	}
	return &SMTPNotifier{client: client, from: from}, nil
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	start := time.Now()

	if err := (Message{To: to, Subject: subject, Body: body}).Validate(); err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("адрес отправителя: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("адрес получателя: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		logger.Error("Notifier: Не удалось отправить письмо", err,
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("отправка письма: %w", err)
	}

	logger.Info("Notifier: Письмо отправлено",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Duration("ms", time.Since(start)))
	return nil
}
