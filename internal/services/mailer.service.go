package services

import (
	"context"

	"tidynest/config"
	"tidynest/internal/logger"

	"github.com/google/uuid"
)

// Email is one outbound transactional message
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// SendResult reports the outcome of a send attempt. Provider failures come
// back as Sent=false with Err set; Send itself never returns an error, so
// sweeps treat any non-success as log-and-continue.
type SendResult struct {
	Sent bool
	ID   string
	Err  error
}

// Mailer is the transactional email collaborator
type Mailer interface {
	Send(ctx context.Context, email Email) SendResult
}

// logMailer writes messages to the log instead of a provider. It is the
// development and test default; production deployments swap in a real
// provider client at startup.
type logMailer struct {
	fromAddress string
	fromName    string
	log         logger.Logger
}

func NewLogMailer(config config.Config) Mailer {
	return &logMailer{
		fromAddress: config.MailFromAddress,
		fromName:    config.MailFromName,
		log:         logger.New("mailer"),
	}
}

func (m *logMailer) Send(ctx context.Context, email Email) SendResult {
	log := m.log.TraceFromContext(ctx).Function("Send")

	id := uuid.New().String()
	log.Info("Email sent",
		"id", id,
		"from", m.fromAddress,
		"to", email.To,
		"subject", email.Subject,
	)

	return SendResult{Sent: true, ID: id}
}
