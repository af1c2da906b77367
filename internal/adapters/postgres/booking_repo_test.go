package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/usetix/tix/internal/adapters/postgres"
	"github.com/usetix/tix/internal/domain"
)

// Integration test against a real Postgres. Gated behind TIX_INTEGRATION
// because it needs a container runtime.
func setupRepo(t *testing.T) *postgres.Repository {
	t.Helper()
	if os.Getenv("TIX_INTEGRATION") == "" {
		t.Skip("set TIX_INTEGRATION=1 to run container-backed tests")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			Env:          map[string]string{"POSTGRES_PASSWORD": "tix", "POSTGRES_DB": "tix"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:tix@%s:%s/tix?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("schema.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return postgres.NewRepository(pool)
}

type fixtures struct {
	userID   uuid.UUID
	eventID  uuid.UUID
	ticketID uuid.UUID
}

func seed(t *testing.T, repo *postgres.Repository, capacity int) fixtures {
	t.Helper()
	ctx := context.Background()

	users := postgres.NewUserRepository(repo)
	events := postgres.NewEventRepository(repo)
	tickets := postgres.NewTicketTypeRepository(repo)

	user := domain.NewUser(fmt.Sprintf("u-%s@example.com", uuid.NewString()[:8]), "Test", "User", "", "hash")
	require.NoError(t, users.Create(ctx, user))

	event := domain.NewEvent(user.ID)
	event.Title = "Integration Night"
	event.Description = "d"
	event.Category = "technology"
	event.Location = "Test Hall"
	event.StartDate = time.Now().Add(24 * time.Hour)
	event.EndDate = time.Now().Add(26 * time.Hour)
	event.Status = domain.EventPublished
	require.NoError(t, events.Create(ctx, event))

	ticket := domain.NewTicketType(event.ID, "GA", "", decimal.RequireFromString("10.00"), capacity)
	require.NoError(t, tickets.Create(ctx, ticket))

	return fixtures{userID: user.ID, eventID: event.ID, ticketID: ticket.ID}
}

func newPendingBooking(t *testing.T, f fixtures, quantity int) domain.Booking {
	t.Helper()
	ticket := domain.TicketType{ID: f.ticketID, EventID: f.eventID, Price: decimal.RequireFromString("10.00")}
	b, err := domain.NewBooking(ticket, f.userID, quantity, domain.AttendeeInfo{
		Name:  "Ada",
		Email: "ada@example.com",
	}, 15*time.Minute)
	require.NoError(t, err)
	return b
}

func TestBookingRepository_ReserveCapacity(t *testing.T) {
	repo := setupRepo(t)
	f := seed(t, repo, 3)
	bookings := postgres.NewBookingRepository(repo)
	ctx := context.Background()

	require.NoError(t, bookings.Reserve(ctx, newPendingBooking(t, f, 2)))
	require.NoError(t, bookings.Reserve(ctx, newPendingBooking(t, f, 1)))

	err := bookings.Reserve(ctx, newPendingBooking(t, f, 1))
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)

	tickets := postgres.NewTicketTypeRepository(repo)
	stored, err := tickets.GetByID(ctx, f.ticketID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Sold)
}

func TestBookingRepository_ConcurrentReserve(t *testing.T) {
	repo := setupRepo(t)
	f := seed(t, repo, 5)
	bookings := postgres.NewBookingRepository(repo)

	// Serialization failures are retried the way the service layer does;
	// only a definitive outcome counts.
	reserve := func(b domain.Booking) error {
		for {
			err := bookings.Reserve(context.Background(), b)
			if errors.Is(err, domain.ErrSerializationFailure) {
				continue
			}
			return err
		}
	}

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- reserve(newPendingBooking(t, f, 1))
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
	assert.Equal(t, 5, won, "exactly capacity reservations may win")

	tickets := postgres.NewTicketTypeRepository(repo)
	stored, err := tickets.GetByID(context.Background(), f.ticketID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Sold)
}

func TestBookingRepository_ConfirmIdempotent(t *testing.T) {
	repo := setupRepo(t)
	f := seed(t, repo, 10)
	bookings := postgres.NewBookingRepository(repo)
	ctx := context.Background()

	b := newPendingBooking(t, f, 2)
	require.NoError(t, bookings.Reserve(ctx, b))
	require.NoError(t, bookings.AttachPaymentIntent(ctx, b.ID, "pi_int_1"))

	first, already, err := bookings.Confirm(ctx, "pi_int_1")
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, domain.BookingConfirmed, first.Status)

	second, already, err := bookings.Confirm(ctx, "pi_int_1")
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, domain.BookingConfirmed, second.Status)

	tickets := postgres.NewTicketTypeRepository(repo)
	stored, err := tickets.GetByID(ctx, f.ticketID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Sold, "confirmation never moves the sold counter")
}

func TestBookingRepository_ReleaseReturnsInventory(t *testing.T) {
	repo := setupRepo(t)
	f := seed(t, repo, 10)
	bookings := postgres.NewBookingRepository(repo)
	ctx := context.Background()

	b := newPendingBooking(t, f, 4)
	require.NoError(t, bookings.Reserve(ctx, b))
	require.NoError(t, bookings.Release(ctx, b.ID, domain.BookingCancelled, domain.BookingPending))

	tickets := postgres.NewTicketTypeRepository(repo)
	stored, err := tickets.GetByID(ctx, f.ticketID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Sold)

	err = bookings.Release(ctx, b.ID, domain.BookingCancelled, domain.BookingPending)
	assert.ErrorIs(t, err, domain.ErrConflict, "a second release must not decrement again")
}

func TestBookingRepository_ReleaseRequiresSourceStatus(t *testing.T) {
	repo := setupRepo(t)
	f := seed(t, repo, 10)
	bookings := postgres.NewBookingRepository(repo)
	ctx := context.Background()

	b := newPendingBooking(t, f, 2)
	require.NoError(t, bookings.Reserve(ctx, b))
	require.NoError(t, bookings.AttachPaymentIntent(ctx, b.ID, "pi_rel_1"))
	_, _, err := bookings.Confirm(ctx, "pi_rel_1")
	require.NoError(t, err)

	err = bookings.Release(ctx, b.ID, domain.BookingCancelled, domain.BookingPending)
	assert.ErrorIs(t, err, domain.ErrConflict, "a confirmed booking is not releasable as pending")

	tickets := postgres.NewTicketTypeRepository(repo)
	stored, err := tickets.GetByID(ctx, f.ticketID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Sold)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := setupRepo(t)
	users := postgres.NewUserRepository(repo)
	ctx := context.Background()

	u := domain.NewUser("dup@example.com", "A", "B", "", "hash")
	require.NoError(t, users.Create(ctx, u))

	again := domain.NewUser("dup@example.com", "C", "D", "", "hash")
	err := users.Create(ctx, again)
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}
