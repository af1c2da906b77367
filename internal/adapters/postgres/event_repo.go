package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/usetix/tix/internal/domain"
)

type EventRepository struct {
	repo *Repository
}

func NewEventRepository(repo *Repository) *EventRepository {
	return &EventRepository{repo: repo}
}

const eventColumns = `id, title, description, short_description, category, image_url, venue,
	location, start_date, end_date, timezone, is_virtual, virtual_link,
	max_attendees, status, organizer_id, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.ShortDescription, &e.Category,
		&e.ImageURL, &e.Venue, &e.Location, &e.StartDate, &e.EndDate, &e.Timezone,
		&e.IsVirtual, &e.VirtualLink, &e.MaxAttendees, &e.Status, &e.OrganizerID,
		&e.CreatedAt, &e.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EventRepository) Create(ctx context.Context, e domain.Event) error {
	_, err := r.repo.pool.Exec(ctx, `
		INSERT INTO events (id, title, description, short_description, category, image_url,
			venue, location, start_date, end_date, timezone, is_virtual, virtual_link,
			max_attendees, status, organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, e.ID, e.Title, e.Description, e.ShortDescription, e.Category, e.ImageURL,
		e.Venue, e.Location, e.StartDate, e.EndDate, e.Timezone, e.IsVirtual, e.VirtualLink,
		e.MaxAttendees, e.Status, e.OrganizerID, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	row := r.repo.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (r *EventRepository) Update(ctx context.Context, e domain.Event) error {
	result, err := r.repo.pool.Exec(ctx, `
		UPDATE events SET title = $2, description = $3, short_description = $4, category = $5,
			image_url = $6, venue = $7, location = $8, start_date = $9, end_date = $10,
			timezone = $11, is_virtual = $12, virtual_link = $13, max_attendees = $14,
			updated_at = now()
		WHERE id = $1
	`, e.ID, e.Title, e.Description, e.ShortDescription, e.Category, e.ImageURL, e.Venue,
		e.Location, e.StartDate, e.EndDate, e.Timezone, e.IsVirtual, e.VirtualLink, e.MaxAttendees)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EventStatus) (*domain.Event, error) {
	row := r.repo.pool.QueryRow(ctx, `
		UPDATE events SET status = $2, updated_at = now() WHERE id = $1
		RETURNING `+eventColumns, id, status)
	return scanEvent(row)
}

// List returns published events only, joined with their active ticket
// price list and attendee count, newest start date first.
func (r *EventRepository) List(ctx context.Context, f domain.EventFilters) ([]domain.EventSummary, int, error) {
	conditions := []string{"e.status = 'published'"}
	args := []interface{}{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Category != "" && f.Category != "all" {
		conditions = append(conditions, "e.category = "+arg(f.Category))
	}
	if f.Search != "" {
		conditions = append(conditions, "e.title ILIKE "+arg("%"+f.Search+"%"))
	}
	if f.Location != "" {
		conditions = append(conditions, "e.location ILIKE "+arg("%"+f.Location+"%"))
	}
	if f.StartDate != nil {
		conditions = append(conditions, "e.start_date >= "+arg(*f.StartDate))
	}
	if f.EndDate != nil {
		conditions = append(conditions, "e.end_date <= "+arg(*f.EndDate))
	}
	where := strings.Join(conditions, " AND ")

	page := f.Page
	if page < 1 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize < 1 {
		pageSize = 12
	}

	var total int
	if err := r.repo.pool.QueryRow(ctx,
		`SELECT count(*) FROM events e WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT e.id, e.title, e.description, e.short_description, e.category, e.image_url,
			e.venue, e.location, e.start_date, e.end_date, e.timezone, e.is_virtual,
			e.virtual_link, e.max_attendees, e.status, e.organizer_id, e.created_at, e.updated_at,
			COALESCE(json_agg(json_build_object('name', t.name, 'price', t.price::text))
				FILTER (WHERE t.id IS NOT NULL AND t.is_active), '[]'),
			COALESCE(SUM(t.sold), 0)::INT
		FROM events e
		LEFT JOIN ticket_types t ON t.event_id = e.id
		WHERE ` + where + `
		GROUP BY e.id
		ORDER BY e.start_date DESC
		LIMIT ` + arg(pageSize) + ` OFFSET ` + arg((page-1)*pageSize)

	rows, err := r.repo.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var summaries []domain.EventSummary
	for rows.Next() {
		var s domain.EventSummary
		var pricesJSON []byte
		err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.ShortDescription, &s.Category,
			&s.ImageURL, &s.Venue, &s.Location, &s.StartDate, &s.EndDate, &s.Timezone,
			&s.IsVirtual, &s.VirtualLink, &s.MaxAttendees, &s.Status, &s.OrganizerID,
			&s.CreatedAt, &s.UpdatedAt, &pricesJSON, &s.AttendeeCount)
		if err != nil {
			return nil, 0, err
		}
		var raw []struct {
			Name  string `json:"name"`
			Price string `json:"price"`
		}
		if err := json.Unmarshal(pricesJSON, &raw); err != nil {
			return nil, 0, err
		}
		for _, p := range raw {
			price, err := decimal.NewFromString(p.Price)
			if err != nil {
				return nil, 0, err
			}
			s.TicketPrices = append(s.TicketPrices, domain.TicketPrice{Name: p.Name, Price: price})
		}
		summaries = append(summaries, s)
	}
	return summaries, total, rows.Err()
}

func (r *EventRepository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.Event, error) {
	rows, err := r.repo.pool.Query(ctx, `
		SELECT `+eventColumns+` FROM events WHERE organizer_id = $1 ORDER BY created_at DESC
	`, organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *EventRepository) ListAll(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.repo.pool.Query(ctx,
		`SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *EventRepository) OrganizerStats(ctx context.Context, organizerID uuid.UUID) (*domain.OrganizerStats, error) {
	var stats domain.OrganizerStats
	var revenue string
	err := r.repo.pool.QueryRow(ctx, `
		SELECT count(DISTINCT e.id),
			COALESCE(SUM(b.total_amount) FILTER (WHERE b.status = 'confirmed'), 0)::text,
			COALESCE(SUM(b.quantity) FILTER (WHERE b.status = 'confirmed'), 0)::int
		FROM events e
		LEFT JOIN bookings b ON b.event_id = e.id
		WHERE e.organizer_id = $1
	`, organizerID).Scan(&stats.TotalEvents, &revenue, &stats.TotalAttendees)
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue, err = decimal.NewFromString(revenue)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *EventRepository) PlatformStats(ctx context.Context) (*domain.PlatformStats, error) {
	var stats domain.PlatformStats
	var revenue string
	err := r.repo.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM users),
			(SELECT count(*) FROM events),
			(SELECT count(*) FROM bookings),
			(SELECT COALESCE(SUM(total_amount), 0)::text FROM bookings WHERE status = 'confirmed')
	`).Scan(&stats.TotalUsers, &stats.TotalEvents, &stats.TotalBookings, &revenue)
	if err != nil {
		return nil, err
	}
	stats.TotalRevenue, err = decimal.NewFromString(revenue)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
