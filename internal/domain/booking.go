package domain

import (
	"context"
	"crypto/rand"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingRefunded  BookingStatus = "refunded"
)

// Booking is a purchaser's claim on some quantity of a ticket type.
// Capacity is consumed when the booking is created; cancellation, refund
// and expiry of an unconfirmed booking hand it back.
type Booking struct {
	ID              uuid.UUID
	EventID         uuid.UUID
	UserID          uuid.UUID
	TicketTypeID    uuid.UUID
	Quantity        int
	TotalAmount     decimal.Decimal
	Status          BookingStatus
	PaymentIntentID string
	Reference       string
	AttendeeName    string
	AttendeeEmail   string
	ExpiresAt       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type AttendeeInfo struct {
	Name  string
	Email string
}

func (a AttendeeInfo) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrInvalidInput
	}
	if _, err := mail.ParseAddress(a.Email); err != nil {
		return ErrInvalidInput
	}
	return nil
}

// NewBooking captures the unit price at booking time: TotalAmount never
// changes with later price edits to the ticket type.
func NewBooking(ticket TicketType, userID uuid.UUID, quantity int, attendee AttendeeInfo, ttl time.Duration) (Booking, error) {
	if quantity < 1 {
		return Booking{}, ErrInvalidInput
	}
	if err := attendee.Validate(); err != nil {
		return Booking{}, err
	}
	ref, err := NewBookingReference()
	if err != nil {
		return Booking{}, err
	}
	now := time.Now().UTC()
	return Booking{
		ID:            uuid.New(),
		EventID:       ticket.EventID,
		UserID:        userID,
		TicketTypeID:  ticket.ID,
		Quantity:      quantity,
		TotalAmount:   ticket.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Status:        BookingPending,
		Reference:     ref,
		AttendeeName:  attendee.Name,
		AttendeeEmail: attendee.Email,
		ExpiresAt:     now.Add(ttl),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewBookingReference returns a short human-communicable code of the
// form BK followed by 8 random characters.
func NewBookingReference() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = referenceCharset[int(b[i])%len(referenceCharset)]
	}
	return "BK" + string(b), nil
}

// BookingSummary is a purchaser-facing listing row joined with event and
// ticket type fields, ordered most-recent-first.
type BookingSummary struct {
	Booking
	EventTitle      string
	EventStartDate  time.Time
	EventLocation   string
	EventImageURL   string
	TicketTypeName  string
	TicketTypePrice decimal.Decimal
}

// BookingDetail carries the snapshots the ticket artifact needs.
type BookingDetail struct {
	Booking
	Event      Event
	TicketType TicketType
}

type BookingRepository interface {
	// Reserve atomically consumes inventory and persists the pending
	// booking; fails with ErrInsufficientInventory when capacity would
	// be exceeded.
	Reserve(ctx context.Context, booking Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*BookingDetail, error)
	GetByPaymentIntent(ctx context.Context, intentRef string) (*Booking, error)
	AttachPaymentIntent(ctx context.Context, id uuid.UUID, intentRef string) error
	// Confirm flips pending to confirmed by payment intent reference.
	// The second return reports whether the booking was already
	// confirmed (idempotent success, no state touched).
	Confirm(ctx context.Context, intentRef string) (*Booking, bool, error)
	// Release moves the booking to the given terminal status and hands
	// the reserved quantity back to the ticket type. The booking's
	// current status must be one of from; anything else fails with
	// ErrConflict, which is how a release racing a concurrent
	// confirmation loses.
	Release(ctx context.Context, id uuid.UUID, to BookingStatus, from ...BookingStatus) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]BookingSummary, error)
	ListExpired(ctx context.Context, now time.Time) ([]Booking, error)
}

// Auditor records booking and payment actions on a side channel. Writes
// are best-effort; failures must not abort the business operation.
type Auditor interface {
	LogAction(ctx context.Context, action string, userID uuid.UUID, data map[string]interface{}) error
}

// PaymentProvider opens payment intents with the external processor.
type PaymentProvider interface {
	// EnsureCustomer returns the processor-side customer id for the
	// user, creating one when customerID is empty.
	EnsureCustomer(ctx context.Context, customerID, email, name string) (string, error)
	CreateIntent(ctx context.Context, customerID string, amount decimal.Decimal, currency string, metadata map[string]string) (intentID, clientSecret string, err error)
}

// ImageStore hosts uploaded event and profile images.
type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, folder string) (url, publicID string, err error)
	Delete(ctx context.Context, publicID string) error
}
