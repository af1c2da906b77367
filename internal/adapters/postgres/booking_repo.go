package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/usetix/tix/internal/domain"
)

type BookingRepository struct {
	repo *Repository
}

func NewBookingRepository(repo *Repository) *BookingRepository {
	return &BookingRepository{repo: repo}
}

const bookingColumns = `id, event_id, user_id, ticket_type_id, quantity, total_amount::text,
	status, COALESCE(payment_intent_id, ''), booking_reference, attendee_name, attendee_email,
	expires_at, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var total string
	err := row.Scan(&b.ID, &b.EventID, &b.UserID, &b.TicketTypeID, &b.Quantity, &total,
		&b.Status, &b.PaymentIntentID, &b.Reference, &b.AttendeeName, &b.AttendeeEmail,
		&b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Reserve consumes capacity and persists the pending booking in one
// serializable transaction. The conditional increment is the guard for
// sold <= quantity: zero rows affected means the tier is missing,
// inactive, or short on inventory.
func (r *BookingRepository) Reserve(ctx context.Context, b domain.Booking) error {
	return r.repo.WithTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE ticket_types SET sold = sold + $2
			WHERE id = $1 AND is_active AND sold + $2 <= quantity
		`, b.TicketTypeID, b.Quantity)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrInsufficientInventory
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO bookings (id, event_id, user_id, ticket_type_id, quantity, total_amount,
				status, booking_reference, attendee_name, attendee_email, expires_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, b.ID, b.EventID, b.UserID, b.TicketTypeID, b.Quantity, b.TotalAmount.StringFixed(2),
			b.Status, b.Reference, b.AttendeeName, b.AttendeeEmail, b.ExpiresAt, b.CreatedAt, b.UpdatedAt)
		if err != nil {
			return err
		}

		return r.insertBookingOutbox(ctx, tx, b.ID, "booking.created", map[string]interface{}{
			"booking_id": b.ID,
			"event_id":   b.EventID,
			"quantity":   b.Quantity,
		})
	})
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := r.repo.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

func (r *BookingRepository) GetByPaymentIntent(ctx context.Context, intentRef string) (*domain.Booking, error) {
	row := r.repo.pool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE payment_intent_id = $1`, intentRef)
	return scanBooking(row)
}

func (r *BookingRepository) AttachPaymentIntent(ctx context.Context, id uuid.UUID, intentRef string) error {
	result, err := r.repo.pool.Exec(ctx, `
		UPDATE bookings SET payment_intent_id = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, id, intentRef)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Confirm flips pending to confirmed by intent reference. Capacity was
// already consumed at reserve time, so a repeated confirmation is a
// plain no-op: the second return reports it.
func (r *BookingRepository) Confirm(ctx context.Context, intentRef string) (*domain.Booking, bool, error) {
	var booking *domain.Booking
	var already bool
	err := r.repo.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+bookingColumns+` FROM bookings WHERE payment_intent_id = $1 FOR UPDATE`, intentRef)
		b, err := scanBooking(row)
		if err != nil {
			return err
		}
		if b.Status == domain.BookingConfirmed {
			booking, already = b, true
			return nil
		}
		if b.Status != domain.BookingPending {
			return domain.ErrBookingNotPending
		}

		_, err = tx.Exec(ctx, `
			UPDATE bookings SET status = 'confirmed', updated_at = now() WHERE id = $1
		`, b.ID)
		if err != nil {
			return err
		}
		b.Status = domain.BookingConfirmed
		booking = b

		return r.insertBookingOutbox(ctx, tx, b.ID, "booking.confirmed", map[string]interface{}{
			"booking_id":        b.ID,
			"payment_intent_id": intentRef,
		})
	})
	if err != nil {
		return nil, false, err
	}
	return booking, already, nil
}

// Release moves the booking to a terminal status and hands the reserved
// quantity back to its ticket type. The row is locked, read, and checked
// against the allowed source statuses, so a booking that changed hands
// since the caller last saw it comes back ErrConflict instead of being
// released.
func (r *BookingRepository) Release(ctx context.Context, id uuid.UUID, to domain.BookingStatus, from ...domain.BookingStatus) error {
	return r.repo.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
		b, err := scanBooking(row)
		if err != nil {
			return err
		}
		if !statusIn(b.Status, from) {
			return domain.ErrConflict
		}

		_, err = tx.Exec(ctx, `
			UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1
		`, id, to)
		if err != nil {
			return err
		}

		result, err := tx.Exec(ctx, `
			UPDATE ticket_types SET sold = sold - $2 WHERE id = $1 AND sold >= $2
		`, b.TicketTypeID, b.Quantity)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrConflict
		}

		return r.insertBookingOutbox(ctx, tx, id, "booking."+string(to), map[string]interface{}{
			"booking_id": id,
			"quantity":   b.Quantity,
		})
	})
}

func statusIn(status domain.BookingStatus, allowed []domain.BookingStatus) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

func (r *BookingRepository) GetDetail(ctx context.Context, id uuid.UUID) (*domain.BookingDetail, error) {
	row := r.repo.pool.QueryRow(ctx, `
		SELECT b.id, b.event_id, b.user_id, b.ticket_type_id, b.quantity, b.total_amount::text,
			b.status, COALESCE(b.payment_intent_id, ''), b.booking_reference, b.attendee_name,
			b.attendee_email, b.expires_at, b.created_at, b.updated_at,
			e.title, e.description, e.location, e.is_virtual, e.virtual_link,
			e.start_date, e.end_date, e.image_url,
			t.name, t.description, t.price::text
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		JOIN ticket_types t ON t.id = b.ticket_type_id
		WHERE b.id = $1
	`, id)

	var d domain.BookingDetail
	var total, price string
	err := row.Scan(&d.ID, &d.EventID, &d.UserID, &d.TicketTypeID, &d.Quantity, &total,
		&d.Status, &d.PaymentIntentID, &d.Reference, &d.AttendeeName, &d.AttendeeEmail,
		&d.ExpiresAt, &d.CreatedAt, &d.UpdatedAt,
		&d.Event.Title, &d.Event.Description, &d.Event.Location, &d.Event.IsVirtual,
		&d.Event.VirtualLink, &d.Event.StartDate, &d.Event.EndDate, &d.Event.ImageURL,
		&d.TicketType.Name, &d.TicketType.Description, &price)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Event.ID = d.EventID
	d.TicketType.ID = d.TicketTypeID
	if d.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if d.TicketType.Price, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.BookingSummary, error) {
	rows, err := r.repo.pool.Query(ctx, `
		SELECT b.id, b.event_id, b.user_id, b.ticket_type_id, b.quantity, b.total_amount::text,
			b.status, COALESCE(b.payment_intent_id, ''), b.booking_reference, b.attendee_name,
			b.attendee_email, b.expires_at, b.created_at, b.updated_at,
			e.title, e.start_date, e.location, e.image_url, t.name, t.price::text
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		JOIN ticket_types t ON t.id = b.ticket_type_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.BookingSummary
	for rows.Next() {
		var s domain.BookingSummary
		var total, price string
		err := rows.Scan(&s.ID, &s.EventID, &s.UserID, &s.TicketTypeID, &s.Quantity, &total,
			&s.Status, &s.PaymentIntentID, &s.Reference, &s.AttendeeName, &s.AttendeeEmail,
			&s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt,
			&s.EventTitle, &s.EventStartDate, &s.EventLocation, &s.EventImageURL,
			&s.TicketTypeName, &price)
		if err != nil {
			return nil, err
		}
		if s.TotalAmount, err = decimal.NewFromString(total); err != nil {
			return nil, err
		}
		if s.TicketTypePrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *BookingRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	rows, err := r.repo.pool.Query(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE status = 'pending' AND expires_at <= $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *BookingRepository) insertBookingOutbox(ctx context.Context, tx pgx.Tx, bookingID uuid.UUID, eventType string, data map[string]interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return r.repo.InsertOutbox(ctx, tx, OutboxRecord{
		ID:            uuid.New(),
		AggregateType: "booking",
		AggregateID:   bookingID,
		EventType:     eventType,
		Payload:       payload,
		DedupeKey:     eventType + ":" + bookingID.String(),
	})
}
