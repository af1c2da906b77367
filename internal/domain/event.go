package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

type Event struct {
	ID               uuid.UUID
	Title            string
	Description      string
	ShortDescription string
	Category         string
	ImageURL         string
	Venue            string
	Location         string
	StartDate        time.Time
	EndDate          time.Time
	Timezone         string
	IsVirtual        bool
	VirtualLink      string
	MaxAttendees     *int
	Status           EventStatus
	OrganizerID      uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewEvent builds an event in draft. Publishing is a separate transition.
func NewEvent(organizerID uuid.UUID) Event {
	now := time.Now().UTC()
	return Event{
		ID:          uuid.New(),
		Status:      EventDraft,
		Timezone:    "UTC",
		OrganizerID: organizerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate enforces the event invariants: required fields, a known
// category, start < end, and the location/virtual-link exclusivity rule.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Description) == "" {
		return ErrInvalidInput
	}
	if !ValidCategory(e.Category) {
		return ErrInvalidInput
	}
	if e.StartDate.IsZero() || e.EndDate.IsZero() || !e.StartDate.Before(e.EndDate) {
		return ErrInvalidInput
	}
	if e.IsVirtual {
		if strings.TrimSpace(e.VirtualLink) == "" {
			return ErrInvalidInput
		}
	} else if strings.TrimSpace(e.Location) == "" {
		return ErrInvalidInput
	}
	if e.MaxAttendees != nil && *e.MaxAttendees < 1 {
		return ErrInvalidInput
	}
	return nil
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Categories is the fixed label set events must belong to.
var Categories = []Category{
	{ID: "music", Name: "Music", Icon: "music", Color: "#8b5cf6"},
	{ID: "sports", Name: "Sports", Icon: "trophy", Color: "#22c55e"},
	{ID: "arts", Name: "Arts & Culture", Icon: "palette", Color: "#ec4899"},
	{ID: "technology", Name: "Technology", Icon: "cpu", Color: "#3b82f6"},
	{ID: "business", Name: "Business", Icon: "briefcase", Color: "#f59e0b"},
	{ID: "food", Name: "Food & Drink", Icon: "utensils", Color: "#ef4444"},
	{ID: "health", Name: "Health & Wellness", Icon: "heart", Color: "#14b8a6"},
	{ID: "education", Name: "Education", Icon: "book", Color: "#6366f1"},
	{ID: "other", Name: "Other", Icon: "tag", Color: "#6b7280"},
}

func ValidCategory(id string) bool {
	for _, c := range Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// EventFilters narrows the discovery listing. Only published events are
// ever returned regardless of filters.
type EventFilters struct {
	Category  string
	Search    string
	Location  string
	StartDate *time.Time
	EndDate   *time.Time
	Page      int
	PageSize  int
}

type TicketPrice struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// EventSummary is a discovery listing row: the event plus its active
// ticket price list and the running attendee count (sum of sold).
type EventSummary struct {
	Event
	TicketPrices  []TicketPrice
	AttendeeCount int
}

type OrganizerStats struct {
	TotalEvents    int             `json:"totalEvents"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
	TotalAttendees int             `json:"totalAttendees"`
}

type PlatformStats struct {
	TotalUsers    int             `json:"totalUsers"`
	TotalEvents   int             `json:"totalEvents"`
	TotalBookings int             `json:"totalBookings"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

type EventRepository interface {
	Create(ctx context.Context, event Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	Update(ctx context.Context, event Event) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status EventStatus) (*Event, error)
	List(ctx context.Context, filters EventFilters) ([]EventSummary, int, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]Event, error)
	ListAll(ctx context.Context) ([]Event, error)
	OrganizerStats(ctx context.Context, organizerID uuid.UUID) (*OrganizerStats, error)
	PlatformStats(ctx context.Context) (*PlatformStats, error)
}
