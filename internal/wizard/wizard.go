// Package wizard drives multi-step event authoring as an explicit state
// machine. Each step's data is validated when the caller advances past
// it, so a wizard at step N carries valid data for every step before N.
package wizard

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/usetix/tix/internal/domain"
	"github.com/usetix/tix/internal/service"
)

type Step int

const (
	StepBasics Step = iota
	StepLocation
	StepTickets
	StepReview
)

type SubmissionStatus int

const (
	NotSubmitted SubmissionStatus = iota
	Submitting
	Submitted
	Failed
)

// Basics is the first step: what the event is and when it runs.
type Basics struct {
	Title            string
	Description      string
	ShortDescription string
	Category         string
	StartDate        time.Time
	EndDate          time.Time
	Timezone         string
	ImageURL         string
}

// Location is the second step: where attendees go, physical or virtual.
type Location struct {
	IsVirtual    bool
	Venue        string
	Address      string
	VirtualLink  string
	MaxAttendees *int
}

// Tier is one ticket tier row as authored in the third step. ID is set
// only in edit mode for tiers that already exist.
type Tier struct {
	ID            uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	Quantity      int
	SaleStartDate *time.Time
	SaleEndDate   *time.Time
}

// Wizard is the authoring session state. Zero value is a fresh
// create-mode wizard at the first step.
type Wizard struct {
	step     Step
	status   SubmissionStatus
	basics   Basics
	location Location
	tiers    []Tier

	// edit mode
	eventID       uuid.UUID
	existingTiers []domain.TicketType
}

func New() *Wizard {
	return &Wizard{}
}

// NewEdit seeds a wizard from an existing event and its tiers for
// editing. Submit will diff the tier list against what exists.
func NewEdit(event domain.Event, tiers []domain.TicketType) *Wizard {
	w := &Wizard{
		eventID:       event.ID,
		existingTiers: tiers,
		basics: Basics{
			Title:            event.Title,
			Description:      event.Description,
			ShortDescription: event.ShortDescription,
			Category:         event.Category,
			StartDate:        event.StartDate,
			EndDate:          event.EndDate,
			Timezone:         event.Timezone,
			ImageURL:         event.ImageURL,
		},
		location: Location{
			IsVirtual:    event.IsVirtual,
			Venue:        event.Venue,
			Address:      event.Location,
			VirtualLink:  event.VirtualLink,
			MaxAttendees: event.MaxAttendees,
		},
	}
	for _, t := range tiers {
		w.tiers = append(w.tiers, Tier{
			ID:            t.ID,
			Name:          t.Name,
			Description:   t.Description,
			Price:         t.Price,
			Quantity:      t.Quantity,
			SaleStartDate: t.SaleStartDate,
			SaleEndDate:   t.SaleEndDate,
		})
	}
	return w
}

func (w *Wizard) Step() Step               { return w.step }
func (w *Wizard) Status() SubmissionStatus { return w.status }
func (w *Wizard) EventID() uuid.UUID       { return w.eventID }

func (w *Wizard) SetBasics(b Basics)     { w.basics = b }
func (w *Wizard) SetLocation(l Location) { w.location = l }
func (w *Wizard) SetTiers(tiers []Tier)  { w.tiers = tiers }

// Next validates the current step and advances. It refuses to move past
// a step whose data is invalid, and never advances beyond review.
func (w *Wizard) Next(now time.Time) error {
	if err := w.validateStep(w.step, now); err != nil {
		return err
	}
	if w.step < StepReview {
		w.step++
	}
	return nil
}

// Back moves to the previous step without validating: partially filled
// data survives the round trip.
func (w *Wizard) Back() {
	if w.step > StepBasics {
		w.step--
	}
}

func (w *Wizard) validateStep(step Step, now time.Time) error {
	switch step {
	case StepBasics:
		b := w.basics
		if strings.TrimSpace(b.Title) == "" || strings.TrimSpace(b.Description) == "" {
			return domain.ErrInvalidInput
		}
		if !domain.ValidCategory(b.Category) {
			return domain.ErrInvalidInput
		}
		if b.StartDate.IsZero() || b.EndDate.IsZero() || !b.StartDate.Before(b.EndDate) {
			return domain.ErrInvalidInput
		}
		if b.StartDate.Before(now) {
			return domain.ErrInvalidInput
		}
	case StepLocation:
		l := w.location
		if l.IsVirtual {
			if strings.TrimSpace(l.VirtualLink) == "" {
				return domain.ErrInvalidInput
			}
		} else if strings.TrimSpace(l.Address) == "" {
			return domain.ErrInvalidInput
		}
		if l.MaxAttendees != nil && *l.MaxAttendees < 1 {
			return domain.ErrInvalidInput
		}
	case StepTickets:
		if len(w.tiers) == 0 {
			return domain.ErrInvalidInput
		}
		for _, t := range w.tiers {
			if strings.TrimSpace(t.Name) == "" || t.Price.IsNegative() || t.Quantity < 1 {
				return domain.ErrInvalidInput
			}
		}
	}
	return nil
}

// Submit validates every step, then persists through the catalog
// service: the event first (a draft in create mode), then the tiers. In
// edit mode tiers are diffed: rows with an ID are updated, rows without
// are created, and existing tiers missing from the wizard are deleted.
// Publishing remains a separate action.
func (w *Wizard) Submit(ctx context.Context, catalog *service.CatalogService, organizerID uuid.UUID, now time.Time) (*domain.Event, error) {
	if w.status == Submitted {
		return nil, domain.ErrConflict
	}
	for step := StepBasics; step <= StepTickets; step++ {
		if err := w.validateStep(step, now); err != nil {
			return nil, err
		}
	}
	w.status = Submitting

	in := service.EventInput{
		Title:            w.basics.Title,
		Description:      w.basics.Description,
		ShortDescription: w.basics.ShortDescription,
		Category:         w.basics.Category,
		Venue:            w.location.Venue,
		Location:         w.location.Address,
		Timezone:         w.basics.Timezone,
		IsVirtual:        w.location.IsVirtual,
		VirtualLink:      w.location.VirtualLink,
		StartDate:        w.basics.StartDate,
		EndDate:          w.basics.EndDate,
		ImageURL:         w.basics.ImageURL,
		MaxAttendees:     w.location.MaxAttendees,
	}

	var event *domain.Event
	var err error
	if w.eventID == uuid.Nil {
		event, err = catalog.CreateEvent(ctx, organizerID, in)
	} else {
		event, err = catalog.UpdateEvent(ctx, w.eventID, organizerID, in)
	}
	if err != nil {
		w.status = Failed
		return nil, err
	}

	if err := w.persistTiers(ctx, catalog, event.ID, organizerID); err != nil {
		w.status = Failed
		return nil, err
	}

	w.status = Submitted
	w.eventID = event.ID
	return event, nil
}

func (w *Wizard) persistTiers(ctx context.Context, catalog *service.CatalogService, eventID, organizerID uuid.UUID) error {
	kept := make(map[uuid.UUID]bool, len(w.tiers))
	for _, t := range w.tiers {
		tt := domain.TicketType{
			Name:          t.Name,
			Description:   t.Description,
			Price:         t.Price,
			Quantity:      t.Quantity,
			SaleStartDate: t.SaleStartDate,
			SaleEndDate:   t.SaleEndDate,
			IsActive:      true,
		}
		if t.ID == uuid.Nil {
			if err := catalog.CreateTicketType(ctx, eventID, organizerID, &tt); err != nil {
				return err
			}
			continue
		}
		kept[t.ID] = true
		if _, err := catalog.UpdateTicketType(ctx, t.ID, organizerID, &tt); err != nil {
			return err
		}
	}
	for _, existing := range w.existingTiers {
		if !kept[existing.ID] {
			if err := catalog.DeleteTicketType(ctx, existing.ID, organizerID); err != nil {
				return err
			}
		}
	}
	return nil
}
