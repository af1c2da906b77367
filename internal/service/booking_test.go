package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usetix/tix/internal/domain"
)

type bookingFixture struct {
	svc      *BookingService
	events   *fakeEventRepo
	tickets  *fakeTicketRepo
	bookings *fakeBookingRepo
	auditor  *fakeAuditor

	event  domain.Event
	ticket domain.TicketType
	userID uuid.UUID
}

func newBookingFixture(t *testing.T, capacity int) *bookingFixture {
	t.Helper()

	events := newFakeEventRepo()
	ticketRepo := newFakeTicketRepo()
	bookings := newFakeBookingRepo(ticketRepo)
	auditor := &fakeAuditor{}

	organizerID := uuid.New()
	event := domain.NewEvent(organizerID)
	event.Title = "Gophercon"
	event.Description = "talks"
	event.Category = "technology"
	event.Location = "Denver"
	event.StartDate = time.Now().Add(48 * time.Hour)
	event.EndDate = time.Now().Add(72 * time.Hour)
	event.Status = domain.EventPublished
	require.NoError(t, events.Create(context.Background(), event))

	ticket := domain.NewTicketType(event.ID, "General", "", decimal.RequireFromString("50.00"), capacity)
	require.NoError(t, ticketRepo.Create(context.Background(), ticket))

	svc := NewBookingService(bookings, ticketRepo, events, auditor, fakeRenderer{}, 15*time.Minute, testLogger())

	return &bookingFixture{
		svc:      svc,
		events:   events,
		tickets:  ticketRepo,
		bookings: bookings,
		auditor:  auditor,
		event:    event,
		ticket:   ticket,
		userID:   uuid.New(),
	}
}

func attendee() domain.AttendeeInfo {
	return domain.AttendeeInfo{Name: "Ada Lovelace", Email: "ada@example.com"}
}

func TestBookingService_Reserve(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 3, attendee())
	require.NoError(t, err)

	assert.Equal(t, domain.BookingPending, booking.Status)
	assert.True(t, booking.TotalAmount.Equal(decimal.RequireFromString("150.00")))

	stored, err := f.tickets.GetByID(context.Background(), f.ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Sold)
	assert.Contains(t, f.auditor.actions, "booking.reserved")
}

func TestBookingService_Reserve_InsufficientInventory(t *testing.T) {
	f := newBookingFixture(t, 2)

	_, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 3, attendee())
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)

	stored, _ := f.tickets.GetByID(context.Background(), f.ticket.ID)
	assert.Equal(t, 0, stored.Sold, "a rejected reservation must not consume inventory")
}

func TestBookingService_Reserve_UnpublishedEventHidden(t *testing.T) {
	f := newBookingFixture(t, 10)
	_, err := f.events.UpdateStatus(context.Background(), f.event.ID, domain.EventDraft)
	require.NoError(t, err)

	_, err = f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 1, attendee())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingService_Reserve_OffSaleTier(t *testing.T) {
	f := newBookingFixture(t, 10)
	past := time.Now().Add(-time.Hour)
	f.ticket.SaleEndDate = &past
	require.NoError(t, f.tickets.Update(context.Background(), f.ticket))

	_, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 1, attendee())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBookingService_Reserve_TierFromOtherEvent(t *testing.T) {
	f := newBookingFixture(t, 10)

	_, err := f.svc.Reserve(context.Background(), uuid.New(), f.ticket.ID, f.userID, 1, attendee())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Concurrent reservations at capacity: exactly capacity seats are sold
// no matter how many goroutines race.
func TestBookingService_Reserve_ConcurrentAtCapacity(t *testing.T) {
	const capacity = 5
	const contenders = 20

	f := newBookingFixture(t, capacity)

	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, uuid.New(), 1, attendee())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
		}
	}
	assert.Equal(t, capacity, won)

	stored, _ := f.tickets.GetByID(context.Background(), f.ticket.ID)
	assert.Equal(t, capacity, stored.Sold)
}

func TestBookingService_ConfirmPayment_Idempotent(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 2, attendee())
	require.NoError(t, err)
	require.NoError(t, f.svc.AttachPaymentIntent(context.Background(), booking.ID, "pi_123"))

	first, err := f.svc.ConfirmPayment(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, first.Status)

	second, err := f.svc.ConfirmPayment(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, second.Status)

	stored, _ := f.tickets.GetByID(context.Background(), f.ticket.ID)
	assert.Equal(t, 2, stored.Sold, "confirmation must not move the sold counter")
}

func TestBookingService_Cancel(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 4, attendee())
	require.NoError(t, err)

	require.NoError(t, f.svc.Cancel(context.Background(), booking.ID, f.userID))

	stored, _ := f.tickets.GetByID(context.Background(), f.ticket.ID)
	assert.Equal(t, 0, stored.Sold, "cancellation hands inventory back")

	err = f.svc.Cancel(context.Background(), booking.ID, f.userID)
	assert.ErrorIs(t, err, domain.ErrConflict, "double cancel must not release twice")
}

func TestBookingService_Cancel_Forbidden(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 1, attendee())
	require.NoError(t, err)

	err = f.svc.Cancel(context.Background(), booking.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestBookingService_Refund_OnlyConfirmed(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 2, attendee())
	require.NoError(t, err)

	err = f.svc.Refund(context.Background(), booking.ID, f.userID)
	assert.ErrorIs(t, err, domain.ErrBookingNotRefundable)

	require.NoError(t, f.svc.AttachPaymentIntent(context.Background(), booking.ID, "pi_r"))
	_, err = f.svc.ConfirmPayment(context.Background(), "pi_r")
	require.NoError(t, err)

	require.NoError(t, f.svc.Refund(context.Background(), booking.ID, f.userID))
	stored, _ := f.tickets.GetByID(context.Background(), f.ticket.ID)
	assert.Equal(t, 0, stored.Sold)
}

func TestBookingService_IssueTicket(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 1, attendee())
	require.NoError(t, err)

	_, _, err = f.svc.IssueTicket(context.Background(), booking.ID, f.userID)
	assert.ErrorIs(t, err, domain.ErrNotConfirmed)

	_, _, err = f.svc.IssueTicket(context.Background(), booking.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.svc.AttachPaymentIntent(context.Background(), booking.ID, "pi_t"))
	_, err = f.svc.ConfirmPayment(context.Background(), "pi_t")
	require.NoError(t, err)

	pdf, ref, err := f.svc.IssueTicket(context.Background(), booking.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, booking.Reference, ref)
	assert.NotEmpty(t, pdf)
}

func TestBookingService_ExpireOverdue(t *testing.T) {
	f := newBookingFixture(t, 10)

	expired, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 2, attendee())
	require.NoError(t, err)
	confirmed, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 3, attendee())
	require.NoError(t, err)
	require.NoError(t, f.svc.AttachPaymentIntent(context.Background(), confirmed.ID, "pi_keep"))
	_, err = f.svc.ConfirmPayment(context.Background(), "pi_keep")
	require.NoError(t, err)

	released, err := f.svc.ExpireOverdue(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	stored, _ := f.tickets.GetByID(context.Background(), f.ticket.ID)
	assert.Equal(t, 3, stored.Sold, "only the lapsed pending booking is released")

	got, err := f.svc.Get(context.Background(), expired.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
}

// confirmOnScanRepo confirms the given intent right after the expiry
// scan returns, modelling a payment that lands between the scan and the
// release.
type confirmOnScanRepo struct {
	*fakeBookingRepo
	intentRef string
}

func (r *confirmOnScanRepo) ListExpired(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	expired, err := r.fakeBookingRepo.ListExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	if _, _, err := r.fakeBookingRepo.Confirm(ctx, r.intentRef); err != nil {
		return nil, err
	}
	return expired, nil
}

func TestBookingService_ExpireOverdue_SkipsConfirmedMidSweep(t *testing.T) {
	f := newBookingFixture(t, 10)

	booking, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 2, attendee())
	require.NoError(t, err)
	require.NoError(t, f.svc.AttachPaymentIntent(context.Background(), booking.ID, "pi_race"))

	racing := NewBookingService(
		&confirmOnScanRepo{fakeBookingRepo: f.bookings, intentRef: "pi_race"},
		f.tickets, f.events, f.auditor, fakeRenderer{}, 15*time.Minute, testLogger())

	released, err := racing.ExpireOverdue(context.Background(), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, released, "a booking paid during the sweep must not be expired")

	got, err := f.svc.Get(context.Background(), booking.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)

	stored, _ := f.tickets.GetByID(context.Background(), f.ticket.ID)
	assert.Equal(t, 2, stored.Sold, "the paid booking keeps its seats")
}

func TestBookingService_ListForUser(t *testing.T) {
	f := newBookingFixture(t, 10)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, f.userID, 1, domain.AttendeeInfo{
			Name:  fmt.Sprintf("Guest %d", i),
			Email: fmt.Sprintf("g%d@example.com", i),
		})
		require.NoError(t, err)
	}
	_, err := f.svc.Reserve(context.Background(), f.event.ID, f.ticket.ID, uuid.New(), 1, attendee())
	require.NoError(t, err)

	list, err := f.svc.ListForUser(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}
