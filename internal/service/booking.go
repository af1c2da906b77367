package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/usetix/tix/internal/domain"
	"github.com/usetix/tix/internal/observability"
)

const serializationRetries = 3

// BookingService is the booking ledger: it mediates the lifecycle of a
// booking against the finite capacity of a ticket type. Inventory is
// consumed at reserve time and handed back on cancel, refund or expiry,
// so sold never exceeds quantity at any observable point.
type BookingService struct {
	bookings domain.BookingRepository
	tickets  domain.TicketTypeRepository
	events   domain.EventRepository
	auditor  domain.Auditor
	renderer TicketRenderer
	ttl      time.Duration
	logger   observability.Logger
}

// TicketRenderer produces the printable ticket artifact for a confirmed
// booking.
type TicketRenderer interface {
	Render(detail domain.BookingDetail) ([]byte, error)
}

func NewBookingService(
	bookings domain.BookingRepository,
	tickets domain.TicketTypeRepository,
	events domain.EventRepository,
	auditor domain.Auditor,
	renderer TicketRenderer,
	ttl time.Duration,
	logger observability.Logger,
) *BookingService {
	return &BookingService{
		bookings: bookings,
		tickets:  tickets,
		events:   events,
		auditor:  auditor,
		renderer: renderer,
		ttl:      ttl,
		logger:   logger,
	}
}

// Reserve creates a pending booking and consumes inventory atomically.
// The total is captured from the tier's current price and never changes
// with later price edits.
func (s *BookingService) Reserve(ctx context.Context, eventID, ticketTypeID, userID uuid.UUID, quantity int, attendee domain.AttendeeInfo) (*domain.Booking, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}
	if ticket.EventID != eventID {
		return nil, domain.ErrInvalidInput
	}
	if !ticket.OnSale(time.Now().UTC()) {
		return nil, domain.ErrInvalidInput
	}
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status != domain.EventPublished {
		return nil, domain.ErrNotFound
	}

	booking, err := domain.NewBooking(*ticket, userID, quantity, attendee, s.ttl)
	if err != nil {
		return nil, err
	}

	err = s.withRetry(ctx, func() error {
		return s.bookings.Reserve(ctx, booking)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientInventory) {
			observability.InventoryRejections.Inc()
		}
		return nil, err
	}

	observability.BookingsCreated.Inc()
	s.audit(ctx, "booking.reserved", userID, map[string]interface{}{
		"booking_id": booking.ID.String(),
		"event_id":   eventID.String(),
		"quantity":   quantity,
		"reference":  booking.Reference,
	})
	return &booking, nil
}

// AttachPaymentIntent records the processor's intent reference on a
// pending booking. One active intent per booking.
func (s *BookingService) AttachPaymentIntent(ctx context.Context, bookingID uuid.UUID, intentRef string) error {
	return s.bookings.AttachPaymentIntent(ctx, bookingID, intentRef)
}

// ConfirmPayment flips the booking found by intent reference to
// confirmed. Calling it twice with the same reference is a no-op
// success: the sold counter moved at reserve time and is never touched
// here.
func (s *BookingService) ConfirmPayment(ctx context.Context, intentRef string) (*domain.Booking, error) {
	var booking *domain.Booking
	var already bool
	err := s.withRetry(ctx, func() error {
		var err error
		booking, already, err = s.bookings.Confirm(ctx, intentRef)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !already {
		observability.BookingsConfirmed.Inc()
		s.audit(ctx, "booking.confirmed", booking.UserID, map[string]interface{}{
			"booking_id":        booking.ID.String(),
			"payment_intent_id": intentRef,
		})
	}
	return booking, nil
}

// Cancel releases a pending or confirmed booking and hands its quantity
// back to the tier. Only the purchaser may cancel.
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID uuid.UUID) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != requesterID {
		return domain.ErrForbidden
	}
	err = s.withRetry(ctx, func() error {
		return s.bookings.Release(ctx, bookingID, domain.BookingCancelled,
			domain.BookingPending, domain.BookingConfirmed)
	})
	if err != nil {
		return err
	}
	observability.BookingsReleased.WithLabelValues("cancelled").Inc()
	s.audit(ctx, "booking.cancelled", requesterID, map[string]interface{}{"booking_id": bookingID.String()})
	return nil
}

// Refund releases a confirmed booking. The money movement itself stays
// with the processor; the ledger only returns inventory and records the
// terminal state.
func (s *BookingService) Refund(ctx context.Context, bookingID, requesterID uuid.UUID) error {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.UserID != requesterID {
		return domain.ErrForbidden
	}
	if booking.Status != domain.BookingConfirmed {
		return domain.ErrBookingNotRefundable
	}
	err = s.withRetry(ctx, func() error {
		return s.bookings.Release(ctx, bookingID, domain.BookingRefunded, domain.BookingConfirmed)
	})
	if err != nil {
		return err
	}
	observability.BookingsReleased.WithLabelValues("refunded").Inc()
	s.audit(ctx, "booking.refunded", requesterID, map[string]interface{}{"booking_id": bookingID.String()})
	return nil
}

func (s *BookingService) Get(ctx context.Context, bookingID, requesterID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requesterID {
		return nil, domain.ErrForbidden
	}
	return booking, nil
}

// ListForUser returns the purchaser's bookings joined with event and
// tier summary fields, most recent first. Point-in-time snapshot.
func (s *BookingService) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.BookingSummary, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// IssueTicket renders the printable artifact for a confirmed booking
// owned by the requester.
func (s *BookingService) IssueTicket(ctx context.Context, bookingID, requesterID uuid.UUID) ([]byte, string, error) {
	detail, err := s.bookings.GetDetail(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if detail.UserID != requesterID {
		return nil, "", domain.ErrForbidden
	}
	if detail.Status != domain.BookingConfirmed {
		return nil, "", domain.ErrNotConfirmed
	}
	pdf, err := s.renderer.Render(*detail)
	if err != nil {
		return nil, "", err
	}
	return pdf, detail.Reference, nil
}

// ExpireOverdue releases pending bookings whose hold has lapsed,
// returning their quantity to inventory. Run periodically by the expiry
// worker.
func (s *BookingService) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.bookings.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}
	released := 0
	for _, b := range expired {
		err := s.withRetry(ctx, func() error {
			return s.bookings.Release(ctx, b.ID, domain.BookingCancelled, domain.BookingPending)
		})
		if err != nil {
			// A booking confirmed between the scan and the release is
			// skipped, not failed.
			if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
				continue
			}
			s.logger.WithField("booking_id", b.ID.String()).Error("failed to expire booking", err)
			continue
		}
		released++
		observability.BookingsReleased.WithLabelValues("expired").Inc()
	}
	return released, nil
}

func (s *BookingService) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < serializationRetries; i++ {
		err = fn()
		if !errors.Is(err, domain.ErrSerializationFailure) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(1<<i) * 10 * time.Millisecond):
		}
	}
	return err
}

func (s *BookingService) audit(ctx context.Context, action string, userID uuid.UUID, data map[string]interface{}) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.LogAction(ctx, action, userID, data); err != nil {
		s.logger.Warn("audit write failed", err)
	}
}
