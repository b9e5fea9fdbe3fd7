package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "tidynest/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// passthroughTx satisfies TxRunner without a database. Repositories backed
// by in-memory fakes ignore the nil *gorm.DB.
type passthroughTx struct{}

func (p passthroughTx) Execute(
	ctx context.Context,
	fn func(ctx context.Context, tx *gorm.DB) error,
) error {
	return fn(ctx, nil)
}

type fakeTemplateRepo struct {
	templates []*RecurringTemplate
}

func (f *fakeTemplateRepo) Create(_ context.Context, _ *gorm.DB, t *RecurringTemplate) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	f.templates = append(f.templates, t)
	return nil
}

func (f *fakeTemplateRepo) GetByID(
	_ context.Context,
	_ *gorm.DB,
	id uuid.UUID,
) (*RecurringTemplate, error) {
	for _, t := range f.templates {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTemplateRepo) Update(_ context.Context, _ *gorm.DB, t *RecurringTemplate) error {
	return nil
}

func (f *fakeTemplateRepo) GetDueForGeneration(
	_ context.Context,
	_ *gorm.DB,
	horizonEnd time.Time,
) ([]*RecurringTemplate, error) {
	var due []*RecurringTemplate
	for _, t := range f.templates {
		if !t.IsActive {
			continue
		}
		if t.NextDate == nil || !t.NextDate.After(horizonEnd) {
			due = append(due, t)
		}
	}
	return due, nil
}

func (f *fakeTemplateRepo) UpdateNextDate(
	_ context.Context,
	_ *gorm.DB,
	id uuid.UUID,
	nextDate time.Time,
) error {
	for _, t := range f.templates {
		if t.ID == id {
			d := nextDate
			t.NextDate = &d
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeTemplateRepo) Deactivate(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	for _, t := range f.templates {
		if t.ID == id {
			t.IsActive = false
		}
	}
	return nil
}

type fakeBookingRepo struct {
	bookings []*Booking
	// failCreateForTemplate makes Create error for bookings of one template,
	// to exercise per-template failure isolation
	failCreateForTemplate *uuid.UUID
}

func (f *fakeBookingRepo) Create(_ context.Context, _ *gorm.DB, b *Booking) error {
	if err := b.ValidateTotal(); err != nil {
		return err
	}
	if f.failCreateForTemplate != nil && b.RecurringTemplateID != nil &&
		*b.RecurringTemplateID == *f.failCreateForTemplate {
		return errors.New("simulated create failure")
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	f.bookings = append(f.bookings, b)
	return nil
}

func (f *fakeBookingRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*Booking, error) {
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBookingRepo) Update(_ context.Context, _ *gorm.DB, b *Booking) error {
	for i, existing := range f.bookings {
		if existing.ID == b.ID {
			f.bookings[i] = b
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeBookingRepo) ExistsForTemplateDate(
	_ context.Context,
	_ *gorm.DB,
	templateID uuid.UUID,
	date time.Time,
) (bool, error) {
	for _, b := range f.bookings {
		if b.RecurringTemplateID != nil && *b.RecurringTemplateID == templateID &&
			b.ScheduledDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingRepo) GetScheduledForDate(
	_ context.Context,
	_ *gorm.DB,
	date time.Time,
) ([]*Booking, error) {
	var out []*Booking
	for _, b := range f.bookings {
		if !b.ScheduledDate.Equal(date) {
			continue
		}
		if b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) TakenSlots(
	_ context.Context,
	_ *gorm.DB,
	date time.Time,
) ([]string, error) {
	var slots []string
	for _, b := range f.bookings {
		if b.ScheduledDate.Equal(date) && b.Status != BookingStatusCancelled {
			slots = append(slots, b.TimeSlot)
		}
	}
	return slots, nil
}

func (f *fakeBookingRepo) ListByCustomer(
	_ context.Context,
	_ *gorm.DB,
	customerID uuid.UUID,
) ([]*Booking, error) {
	var out []*Booking
	for _, b := range f.bookings {
		if b.CustomerID == customerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) forTemplate(templateID uuid.UUID) []*Booking {
	var out []*Booking
	for _, b := range f.bookings {
		if b.RecurringTemplateID != nil && *b.RecurringTemplateID == templateID {
			out = append(out, b)
		}
	}
	return out
}

type fakeInvoiceRepo struct {
	invoices map[uuid.UUID]*Invoice
	sequence int
	// failUpdateFor makes Update error for one invoice
	failUpdateFor *uuid.UUID
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{invoices: make(map[uuid.UUID]*Invoice)}
}

func (f *fakeInvoiceRepo) Create(_ context.Context, _ *gorm.DB, invoice *Invoice) error {
	f.sequence++
	invoice.Sequence = f.sequence
	invoice.Number = fmt.Sprintf("INV-%05d", f.sequence)
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	stored := *invoice
	f.invoices[invoice.ID] = &stored
	return nil
}

func (f *fakeInvoiceRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*Invoice, error) {
	invoice, ok := f.invoices[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *invoice
	return &copied, nil
}

func (f *fakeInvoiceRepo) GetByIDForUpdate(
	ctx context.Context,
	tx *gorm.DB,
	id uuid.UUID,
) (*Invoice, error) {
	return f.GetByID(ctx, tx, id)
}

func (f *fakeInvoiceRepo) Update(_ context.Context, _ *gorm.DB, invoice *Invoice) error {
	if f.failUpdateFor != nil && invoice.ID == *f.failUpdateFor {
		return errors.New("simulated update failure")
	}
	stored := *invoice
	f.invoices[invoice.ID] = &stored
	return nil
}

func (f *fakeInvoiceRepo) GetOverdueCandidates(
	_ context.Context,
	_ *gorm.DB,
	today time.Time,
) ([]*Invoice, error) {
	var out []*Invoice
	for _, invoice := range f.invoices {
		if invoice.Status == InvoiceStatusSent && invoice.DueDate.Before(today) &&
			invoice.AmountDue.IsPositive() {
			copied := *invoice
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepo) ListByCustomer(
	_ context.Context,
	_ *gorm.DB,
	customerID uuid.UUID,
) ([]*Invoice, error) {
	var out []*Invoice
	for _, invoice := range f.invoices {
		if invoice.CustomerID == customerID {
			copied := *invoice
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeInvoiceRepo) MarkSent(
	_ context.Context,
	_ *gorm.DB,
	id uuid.UUID,
	sentAt time.Time,
) error {
	invoice, ok := f.invoices[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if invoice.Status == InvoiceStatusDraft {
		invoice.Status = InvoiceStatusSent
		at := sentAt
		invoice.SentAt = &at
	}
	return nil
}

type fakePaymentRepo struct {
	payments []*Payment
}

func (f *fakePaymentRepo) Create(_ context.Context, _ *gorm.DB, payment *Payment) error {
	if payment.ProcessorRef != nil {
		for _, p := range f.payments {
			if p.ProcessorRef != nil && *p.ProcessorRef == *payment.ProcessorRef {
				return errors.New("duplicate processor ref")
			}
		}
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	f.payments = append(f.payments, payment)
	return nil
}

func (f *fakePaymentRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*Payment, error) {
	for _, p := range f.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePaymentRepo) GetByProcessorRef(
	_ context.Context,
	_ *gorm.DB,
	processorRef string,
) (*Payment, error) {
	for _, p := range f.payments {
		if p.ProcessorRef != nil && *p.ProcessorRef == processorRef {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) ListByInvoice(
	_ context.Context,
	_ *gorm.DB,
	invoiceID uuid.UUID,
) ([]*Payment, error) {
	var out []*Payment
	for _, p := range f.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePaymentRepo) MarkRefunded(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	for _, p := range f.payments {
		if p.ID == id {
			p.Status = PaymentStatusRefunded
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeCustomerRepo struct {
	customers map[uuid.UUID]*Customer
	spend     map[uuid.UUID]decimal.Decimal
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{
		customers: make(map[uuid.UUID]*Customer),
		spend:     make(map[uuid.UUID]decimal.Decimal),
	}
}

func (f *fakeCustomerRepo) Create(_ context.Context, _ *gorm.DB, customer *Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	customer.FullName = customer.FirstName + " " + customer.LastName
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerRepo) GetByID(
	_ context.Context,
	_ *gorm.DB,
	id uuid.UUID,
) (*Customer, error) {
	customer, ok := f.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return customer, nil
}

func (f *fakeCustomerRepo) GetByEmail(
	_ context.Context,
	_ *gorm.DB,
	email string,
) (*Customer, error) {
	for _, c := range f.customers {
		if c.Email != nil && *c.Email == email {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, _ *gorm.DB, customer *Customer) error {
	f.customers[customer.ID] = customer
	return nil
}

func (f *fakeCustomerRepo) AddLifetimeSpend(
	_ context.Context,
	_ *gorm.DB,
	id uuid.UUID,
	amount decimal.Decimal,
) error {
	f.spend[id] = f.spend[id].Add(amount)
	return nil
}

func (f *fakeCustomerRepo) Deactivate(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	if customer, ok := f.customers[id]; ok {
		customer.IsActive = false
	}
	return nil
}

type fakeInventoryRepo struct {
	items []*InventoryItem
}

func (f *fakeInventoryRepo) Create(_ context.Context, _ *gorm.DB, item *InventoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.items = append(f.items, item)
	return nil
}

func (f *fakeInventoryRepo) ListActive(_ context.Context, _ *gorm.DB) ([]*InventoryItem, error) {
	var out []*InventoryItem
	for _, item := range f.items {
		if item.IsActive {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeInventoryRepo) ListNeedingReorder(
	_ context.Context,
	_ *gorm.DB,
) ([]*InventoryItem, error) {
	var out []*InventoryItem
	for _, item := range f.items {
		if item.NeedsReorder() {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeInventoryRepo) AdjustQuantity(
	_ context.Context,
	_ *gorm.DB,
	id uuid.UUID,
	delta int,
) error {
	for _, item := range f.items {
		if item.ID == id {
			item.Quantity += delta
		}
	}
	return nil
}

type fakeServiceRepo struct {
	services []*Service
}

func (f *fakeServiceRepo) Create(_ context.Context, _ *gorm.DB, service *Service) error {
	if service.ID == uuid.Nil {
		service.ID = uuid.New()
	}
	f.services = append(f.services, service)
	return nil
}

func (f *fakeServiceRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*Service, error) {
	for _, s := range f.services {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeServiceRepo) GetActive(_ context.Context, _ *gorm.DB) ([]*Service, error) {
	var out []*Service
	for _, s := range f.services {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeUserRepo struct {
	users []*User
}

func (f *fakeUserRepo) Create(_ context.Context, _ *gorm.DB, user *User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, _ *gorm.DB, email string) (*User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) ListAdmins(_ context.Context, _ *gorm.DB) ([]*User, error) {
	var out []*User
	for _, u := range f.users {
		if u.Role == RoleAdmin && u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) UpdateLastLogin(
	_ context.Context,
	_ *gorm.DB,
	id uuid.UUID,
	at time.Time,
) error {
	for _, u := range f.users {
		if u.ID == id {
			stamp := at
			u.LastLoginAt = &stamp
		}
	}
	return nil
}

type fakeSessionRepo struct {
	sessions []*Session
}

func (f *fakeSessionRepo) Create(_ context.Context, _ *gorm.DB, session *Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	f.sessions = append(f.sessions, session)
	return nil
}

func (f *fakeSessionRepo) GetByTokenID(
	_ context.Context,
	_ *gorm.DB,
	tokenID string,
) (*Session, error) {
	for _, s := range f.sessions {
		if s.TokenID == tokenID {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) Revoke(
	_ context.Context,
	_ *gorm.DB,
	tokenID string,
	at time.Time,
) error {
	for _, s := range f.sessions {
		if s.TokenID == tokenID {
			stamp := at
			s.RevokedAt = &stamp
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeSessionRepo) DeleteExpired(
	_ context.Context,
	_ *gorm.DB,
	now time.Time,
) (int64, error) {
	var kept []*Session
	var deleted int64
	for _, s := range f.sessions {
		if now.After(s.ExpiresAt) {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	f.sessions = kept
	return deleted, nil
}

type fakeCommLogRepo struct {
	entries []*CommunicationLog
}

func (f *fakeCommLogRepo) Create(_ context.Context, _ *gorm.DB, entry *CommunicationLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeCommLogRepo) ListFailed(
	_ context.Context,
	_ *gorm.DB,
	limit int,
) ([]*CommunicationLog, error) {
	var out []*CommunicationLog
	for _, e := range f.entries {
		if e.Status == CommunicationStatusFailed {
			out = append(out, e)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeMailer struct {
	sent []Email
	// failFor recipients get a failed SendResult
	failFor map[string]bool
}

func (f *fakeMailer) Send(_ context.Context, email Email) SendResult {
	if f.failFor[email.To] {
		return SendResult{Sent: false, Err: errors.New("simulated send failure")}
	}
	f.sent = append(f.sent, email)
	return SendResult{Sent: true, ID: uuid.New().String()}
}

type fakeProcessor struct {
	refunds    []string
	failRefund bool
}

func (f *fakeProcessor) CreateCheckoutSession(
	_ context.Context,
	invoice *Invoice,
	_ *Customer,
) (*CheckoutSession, error) {
	return &CheckoutSession{
		SessionID: "cs_" + uuid.New().String(),
		URL:       "https://pay.example.com/" + invoice.Number,
	}, nil
}

func (f *fakeProcessor) VerifyWebhook(_ []byte, _ string) (*ProcessorEvent, error) {
	return nil, errors.New("not implemented in fake")
}

func (f *fakeProcessor) CreateRefund(_ context.Context, ref string, _ *decimal.Decimal) error {
	if f.failRefund {
		return errors.New("simulated refund failure")
	}
	f.refunds = append(f.refunds, ref)
	return nil
}
