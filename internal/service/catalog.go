package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/usetix/tix/internal/domain"
	"github.com/usetix/tix/internal/observability"
)

// CatalogService owns the organizer-facing event and ticket tier
// lifecycle plus the public browsing surface. Draft events are visible
// to their organizer only; publishing makes them browsable.
type CatalogService struct {
	events  domain.EventRepository
	tickets domain.TicketTypeRepository
	images  domain.ImageStore
	logger  observability.Logger
}

func NewCatalogService(events domain.EventRepository, tickets domain.TicketTypeRepository, images domain.ImageStore, logger observability.Logger) *CatalogService {
	return &CatalogService{events: events, tickets: tickets, images: images, logger: logger}
}

type EventInput struct {
	Title            string
	Description      string
	ShortDescription string
	Category         string
	Venue            string
	Location         string
	Timezone         string
	IsVirtual        bool
	VirtualLink      string
	StartDate        time.Time
	EndDate          time.Time
	ImageURL         string
	MaxAttendees     *int
}

func (s *CatalogService) CreateEvent(ctx context.Context, organizerID uuid.UUID, in EventInput) (*domain.Event, error) {
	event := domain.NewEvent(organizerID)
	applyEventInput(&event, in)
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent replaces the editable fields. Status is not touched here;
// the publish and unpublish transitions have their own operation.
func (s *CatalogService) UpdateEvent(ctx context.Context, eventID, requesterID uuid.UUID, in EventInput) (*domain.Event, error) {
	event, err := s.ownedEvent(ctx, eventID, requesterID)
	if err != nil {
		return nil, err
	}
	applyEventInput(event, in)
	event.UpdatedAt = time.Now().UTC()
	if err := event.Validate(); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, *event); err != nil {
		return nil, err
	}
	return event, nil
}

// Publish flips a draft to published. Publishing an already published
// event is a no-op success.
func (s *CatalogService) Publish(ctx context.Context, eventID, requesterID uuid.UUID) (*domain.Event, error) {
	return s.setStatus(ctx, eventID, requesterID, domain.EventPublished)
}

// Unpublish returns a published event to draft, hiding it from the
// public surface. Existing bookings are untouched.
func (s *CatalogService) Unpublish(ctx context.Context, eventID, requesterID uuid.UUID) (*domain.Event, error) {
	return s.setStatus(ctx, eventID, requesterID, domain.EventDraft)
}

// CancelEvent marks the event cancelled. Terminal for the event record;
// per-booking refunds remain individual operations.
func (s *CatalogService) CancelEvent(ctx context.Context, eventID, requesterID uuid.UUID) (*domain.Event, error) {
	return s.setStatus(ctx, eventID, requesterID, domain.EventCancelled)
}

func (s *CatalogService) setStatus(ctx context.Context, eventID, requesterID uuid.UUID, status domain.EventStatus) (*domain.Event, error) {
	event, err := s.ownedEvent(ctx, eventID, requesterID)
	if err != nil {
		return nil, err
	}
	if event.Status == status {
		return event, nil
	}
	if event.Status == domain.EventCancelled {
		return nil, domain.ErrConflict
	}
	return s.events.UpdateStatus(ctx, eventID, status)
}

// GetEvent returns a published event to anyone, and a draft only to its
// organizer. requesterID is uuid.Nil for anonymous callers.
func (s *CatalogService) GetEvent(ctx context.Context, eventID, requesterID uuid.UUID) (*domain.Event, []domain.TicketType, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, nil, err
	}
	if event.Status != domain.EventPublished && event.OrganizerID != requesterID {
		return nil, nil, domain.ErrNotFound
	}
	activeOnly := event.OrganizerID != requesterID
	tickets, err := s.tickets.ListByEvent(ctx, eventID, activeOnly)
	if err != nil {
		return nil, nil, err
	}
	return event, tickets, nil
}

// ListEvents is the public browse surface: published events only.
func (s *CatalogService) ListEvents(ctx context.Context, filters domain.EventFilters) ([]domain.EventSummary, int, error) {
	return s.events.List(ctx, filters)
}

func (s *CatalogService) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.Event, error) {
	return s.events.ListByOrganizer(ctx, organizerID)
}

func (s *CatalogService) CreateTicketType(ctx context.Context, eventID, requesterID uuid.UUID, ticket *domain.TicketType) error {
	if _, err := s.ownedEvent(ctx, eventID, requesterID); err != nil {
		return err
	}
	ticket.ID = uuid.New()
	ticket.EventID = eventID
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now().UTC()
	}
	if err := ticket.Validate(); err != nil {
		return err
	}
	return s.tickets.Create(ctx, *ticket)
}

// UpdateTicketType edits name, price, quantity and sale window. The
// sold counter is owned by the booking ledger and is never writable
// here; quantity may not drop below what is already sold.
func (s *CatalogService) UpdateTicketType(ctx context.Context, ticketTypeID, requesterID uuid.UUID, update *domain.TicketType) (*domain.TicketType, error) {
	existing, err := s.tickets.GetByID(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedEvent(ctx, existing.EventID, requesterID); err != nil {
		return nil, err
	}
	if update.Quantity < existing.Sold {
		return nil, domain.ErrInvalidInput
	}
	existing.Name = update.Name
	existing.Description = update.Description
	existing.Price = update.Price
	existing.Quantity = update.Quantity
	existing.SaleStartDate = update.SaleStartDate
	existing.SaleEndDate = update.SaleEndDate
	existing.IsActive = update.IsActive
	if err := existing.Validate(); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, *existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteTicketType removes a tier that has no sales yet. Tiers with
// sold tickets are deactivated instead of deleted.
func (s *CatalogService) DeleteTicketType(ctx context.Context, ticketTypeID, requesterID uuid.UUID) error {
	existing, err := s.tickets.GetByID(ctx, ticketTypeID)
	if err != nil {
		return err
	}
	if _, err := s.ownedEvent(ctx, existing.EventID, requesterID); err != nil {
		return err
	}
	if existing.Sold > 0 {
		existing.IsActive = false
		return s.tickets.Update(ctx, *existing)
	}
	return s.tickets.Delete(ctx, ticketTypeID)
}

// UploadImage hosts an event or profile image and returns its URL.
func (s *CatalogService) UploadImage(ctx context.Context, r io.Reader, folder string) (string, error) {
	url, publicID, err := s.images.Upload(ctx, r, folder)
	if err != nil {
		return "", err
	}
	s.logger.WithField("public_id", publicID).Info("image uploaded")
	return url, nil
}

func (s *CatalogService) Categories() []domain.Category {
	return domain.Categories
}

func (s *CatalogService) ownedEvent(ctx context.Context, eventID, requesterID uuid.UUID) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OrganizerID != requesterID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

func applyEventInput(event *domain.Event, in EventInput) {
	event.Title = in.Title
	event.Description = in.Description
	event.ShortDescription = in.ShortDescription
	event.Category = in.Category
	event.Venue = in.Venue
	event.Location = in.Location
	event.IsVirtual = in.IsVirtual
	event.VirtualLink = in.VirtualLink
	event.StartDate = in.StartDate
	event.EndDate = in.EndDate
	event.ImageURL = in.ImageURL
	event.MaxAttendees = in.MaxAttendees
	if in.Timezone != "" {
		event.Timezone = in.Timezone
	}
}
