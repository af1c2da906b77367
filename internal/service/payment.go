package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/usetix/tix/internal/domain"
	"github.com/usetix/tix/internal/observability"
)

// PaymentService opens payment intents with the processor and attaches
// them to pending bookings. Confirmation flows back through the booking
// ledger, keyed by the intent reference.
type PaymentService struct {
	bookings *BookingService
	users    domain.UserRepository
	provider domain.PaymentProvider
	auditor  domain.Auditor
	logger   observability.Logger
}

func NewPaymentService(bookings *BookingService, users domain.UserRepository, provider domain.PaymentProvider, auditor domain.Auditor, logger observability.Logger) *PaymentService {
	return &PaymentService{bookings: bookings, users: users, provider: provider, auditor: auditor, logger: logger}
}

// CreateIntent opens an intent for the booking's total and records its
// reference on the booking. Only the purchaser of a pending booking may
// start a payment.
func (s *PaymentService) CreateIntent(ctx context.Context, bookingID, requesterID uuid.UUID) (clientSecret string, err error) {
	booking, err := s.bookings.Get(ctx, bookingID, requesterID)
	if err != nil {
		return "", err
	}
	if booking.Status != domain.BookingPending {
		return "", domain.ErrBookingNotPending
	}

	customerID, err := s.ensureCustomer(ctx, requesterID)
	if err != nil {
		return "", err
	}

	intentID, clientSecret, err := s.provider.CreateIntent(ctx, customerID, booking.TotalAmount, "usd", map[string]string{
		"booking_id":        booking.ID.String(),
		"booking_reference": booking.Reference,
		"event_id":          booking.EventID.String(),
	})
	if err != nil {
		return "", err
	}
	if err := s.bookings.AttachPaymentIntent(ctx, bookingID, intentID); err != nil {
		return "", err
	}
	if s.auditor != nil {
		if auditErr := s.auditor.LogAction(ctx, "payment.intent_created", requesterID, map[string]interface{}{
			"booking_id":        bookingID.String(),
			"payment_intent_id": intentID,
		}); auditErr != nil {
			s.logger.Warn("audit write failed", auditErr)
		}
	}
	return clientSecret, nil
}

// ensureCustomer resolves the processor-side customer for the user,
// storing a newly created id for reuse on later payments.
func (s *PaymentService) ensureCustomer(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	customerID, err := s.provider.EnsureCustomer(ctx, user.StripeCustomerID, user.Email, user.FirstName+" "+user.LastName)
	if err != nil {
		return "", err
	}
	if customerID != user.StripeCustomerID {
		if err := s.users.SetStripeCustomerID(ctx, userID, customerID); err != nil {
			s.logger.Warn("failed to store customer id", err)
		}
	}
	return customerID, nil
}

// Confirm finalizes the booking behind the given intent reference. The
// caller must be its purchaser. Repeat calls succeed without touching
// state.
func (s *PaymentService) Confirm(ctx context.Context, intentRef string, requesterID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.bookings.bookings.GetByPaymentIntent(ctx, intentRef)
	if err != nil {
		return nil, err
	}
	if booking.UserID != requesterID {
		return nil, domain.ErrForbidden
	}
	return s.bookings.ConfirmPayment(ctx, intentRef)
}
