package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/usetix/tix/internal/domain"
)

type TicketTypeRepository struct {
	repo *Repository
}

func NewTicketTypeRepository(repo *Repository) *TicketTypeRepository {
	return &TicketTypeRepository{repo: repo}
}

const ticketColumns = `id, event_id, name, description, price::text, quantity, sold,
	sale_start_date, sale_end_date, is_active, created_at`

func scanTicketType(row pgx.Row) (*domain.TicketType, error) {
	var t domain.TicketType
	var price string
	err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.Description, &price, &t.Quantity,
		&t.Sold, &t.SaleStartDate, &t.SaleEndDate, &t.IsActive, &t.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketTypeRepository) Create(ctx context.Context, t domain.TicketType) error {
	_, err := r.repo.pool.Exec(ctx, `
		INSERT INTO ticket_types (id, event_id, name, description, price, quantity, sold,
			sale_start_date, sale_end_date, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, t.ID, t.EventID, t.Name, t.Description, t.Price.StringFixed(2), t.Quantity, t.Sold,
		t.SaleStartDate, t.SaleEndDate, t.IsActive, t.CreatedAt)
	return err
}

func (r *TicketTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TicketType, error) {
	row := r.repo.pool.QueryRow(ctx, `SELECT `+ticketColumns+` FROM ticket_types WHERE id = $1`, id)
	return scanTicketType(row)
}

// Update never touches the sold counter; inventory moves only through
// the booking repository.
func (r *TicketTypeRepository) Update(ctx context.Context, t domain.TicketType) error {
	result, err := r.repo.pool.Exec(ctx, `
		UPDATE ticket_types SET name = $2, description = $3, price = $4, quantity = $5,
			sale_start_date = $6, sale_end_date = $7, is_active = $8
		WHERE id = $1
	`, t.ID, t.Name, t.Description, t.Price.StringFixed(2), t.Quantity,
		t.SaleStartDate, t.SaleEndDate, t.IsActive)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TicketTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.repo.pool.Exec(ctx, `DELETE FROM ticket_types WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *TicketTypeRepository) ListByEvent(ctx context.Context, eventID uuid.UUID, activeOnly bool) ([]domain.TicketType, error) {
	query := `SELECT ` + ticketColumns + ` FROM ticket_types WHERE event_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY price`

	rows, err := r.repo.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.TicketType
	for rows.Next() {
		t, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}
