package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TicketType is a priced admission tier with finite capacity. The sold
// counter never exceeds Quantity; the repository enforces this with an
// atomic conditional increment.
type TicketType struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	Quantity      int
	Sold          int
	SaleStartDate *time.Time
	SaleEndDate   *time.Time
	IsActive      bool
	CreatedAt     time.Time
}

func NewTicketType(eventID uuid.UUID, name, description string, price decimal.Decimal, quantity int) TicketType {
	return TicketType{
		ID:          uuid.New(),
		EventID:     eventID,
		Name:        name,
		Description: description,
		Price:       price,
		Quantity:    quantity,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
}

func (t *TicketType) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrInvalidInput
	}
	if t.Price.IsNegative() {
		return ErrInvalidInput
	}
	if t.Quantity < 1 {
		return ErrInvalidInput
	}
	if t.SaleStartDate != nil && t.SaleEndDate != nil && !t.SaleStartDate.Before(*t.SaleEndDate) {
		return ErrInvalidInput
	}
	return nil
}

// OnSale reports whether the tier can be reserved against at the given
// instant: active and inside the optional sale window.
func (t *TicketType) OnSale(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.SaleStartDate != nil && now.Before(*t.SaleStartDate) {
		return false
	}
	if t.SaleEndDate != nil && now.After(*t.SaleEndDate) {
		return false
	}
	return true
}

type TicketTypeRepository interface {
	Create(ctx context.Context, ticket TicketType) error
	GetByID(ctx context.Context, id uuid.UUID) (*TicketType, error)
	Update(ctx context.Context, ticket TicketType) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID, activeOnly bool) ([]TicketType, error)
}
