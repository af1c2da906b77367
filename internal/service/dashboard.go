package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/usetix/tix/internal/domain"
)

// DashboardService aggregates the organizer and platform views. The
// numbers are point-in-time reads, not a consistent snapshot across
// tables.
type DashboardService struct {
	events domain.EventRepository
	users  domain.UserRepository
}

func NewDashboardService(events domain.EventRepository, users domain.UserRepository) *DashboardService {
	return &DashboardService{events: events, users: users}
}

type OrganizerDashboard struct {
	Stats  domain.OrganizerStats `json:"stats"`
	Events []domain.Event        `json:"events"`
}

func (s *DashboardService) Organizer(ctx context.Context, organizerID uuid.UUID) (*OrganizerDashboard, error) {
	stats, err := s.events.OrganizerStats(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	return &OrganizerDashboard{Stats: *stats, Events: events}, nil
}

type AdminDashboard struct {
	Stats  domain.PlatformStats `json:"stats"`
	Events []domain.Event       `json:"events"`
}

// Admin returns the platform-wide view. Non-admin callers get
// ErrForbidden.
func (s *DashboardService) Admin(ctx context.Context, requesterID uuid.UUID) (*AdminDashboard, error) {
	user, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, domain.ErrForbidden
	}
	stats, err := s.events.PlatformStats(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.events.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminDashboard{Stats: *stats, Events: events}, nil
}
