package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/usetix/tix/internal/domain"
)

// Wire shapes. Money is serialized as a decimal string; times as
// RFC 3339.

type userResponse struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	IsAdmin         bool      `json:"isAdmin"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		IsAdmin:         u.IsAdmin,
		CreatedAt:       u.CreatedAt,
	}
}

type eventResponse struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"shortDescription,omitempty"`
	Category         string    `json:"category"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	Venue            string    `json:"venue,omitempty"`
	Location         string    `json:"location,omitempty"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	Timezone         string    `json:"timezone"`
	IsVirtual        bool      `json:"isVirtual"`
	VirtualLink      string    `json:"virtualLink,omitempty"`
	MaxAttendees     *int      `json:"maxAttendees,omitempty"`
	Status           string    `json:"status"`
	OrganizerID      uuid.UUID `json:"organizerId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toEventResponse(e domain.Event) eventResponse {
	return eventResponse{
		ID:               e.ID,
		Title:            e.Title,
		Description:      e.Description,
		ShortDescription: e.ShortDescription,
		Category:         e.Category,
		ImageURL:         e.ImageURL,
		Venue:            e.Venue,
		Location:         e.Location,
		StartDate:        e.StartDate,
		EndDate:          e.EndDate,
		Timezone:         e.Timezone,
		IsVirtual:        e.IsVirtual,
		VirtualLink:      e.VirtualLink,
		MaxAttendees:     e.MaxAttendees,
		Status:           string(e.Status),
		OrganizerID:      e.OrganizerID,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func toEventResponses(events []domain.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

type eventSummaryResponse struct {
	eventResponse
	TicketPrices  []domain.TicketPrice `json:"ticketPrices"`
	AttendeeCount int                  `json:"attendeeCount"`
}

func toEventSummaryResponse(s domain.EventSummary) eventSummaryResponse {
	prices := s.TicketPrices
	if prices == nil {
		prices = []domain.TicketPrice{}
	}
	return eventSummaryResponse{
		eventResponse: toEventResponse(s.Event),
		TicketPrices:  prices,
		AttendeeCount: s.AttendeeCount,
	}
}

type ticketTypeResponse struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"eventId"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Price         string     `json:"price"`
	Quantity      int        `json:"quantity"`
	Sold          int        `json:"sold"`
	Available     int        `json:"available"`
	SaleStartDate *time.Time `json:"saleStartDate,omitempty"`
	SaleEndDate   *time.Time `json:"saleEndDate,omitempty"`
	IsActive      bool       `json:"isActive"`
}

func toTicketTypeResponse(t domain.TicketType) ticketTypeResponse {
	return ticketTypeResponse{
		ID:            t.ID,
		EventID:       t.EventID,
		Name:          t.Name,
		Description:   t.Description,
		Price:         t.Price.StringFixed(2),
		Quantity:      t.Quantity,
		Sold:          t.Sold,
		Available:     t.Quantity - t.Sold,
		SaleStartDate: t.SaleStartDate,
		SaleEndDate:   t.SaleEndDate,
		IsActive:      t.IsActive,
	}
}

type bookingResponse struct {
	ID              uuid.UUID `json:"id"`
	EventID         uuid.UUID `json:"eventId"`
	TicketTypeID    uuid.UUID `json:"ticketTypeId"`
	Quantity        int       `json:"quantity"`
	TotalAmount     string    `json:"totalAmount"`
	Status          string    `json:"status"`
	Reference       string    `json:"bookingReference"`
	AttendeeName    string    `json:"attendeeName"`
	AttendeeEmail   string    `json:"attendeeEmail"`
	ExpiresAt       time.Time `json:"expiresAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:            b.ID,
		EventID:       b.EventID,
		TicketTypeID:  b.TicketTypeID,
		Quantity:      b.Quantity,
		TotalAmount:   b.TotalAmount.StringFixed(2),
		Status:        string(b.Status),
		Reference:     b.Reference,
		AttendeeName:  b.AttendeeName,
		AttendeeEmail: b.AttendeeEmail,
		ExpiresAt:     b.ExpiresAt,
		CreatedAt:     b.CreatedAt,
	}
}

type bookingSummaryResponse struct {
	bookingResponse
	EventTitle      string    `json:"eventTitle"`
	EventStartDate  time.Time `json:"eventStartDate"`
	EventLocation   string    `json:"eventLocation,omitempty"`
	EventImageURL   string    `json:"eventImageUrl,omitempty"`
	TicketTypeName  string    `json:"ticketTypeName"`
	TicketTypePrice string    `json:"ticketTypePrice"`
}

func toBookingSummaryResponse(s domain.BookingSummary) bookingSummaryResponse {
	return bookingSummaryResponse{
		bookingResponse: toBookingResponse(s.Booking),
		EventTitle:      s.EventTitle,
		EventStartDate:  s.EventStartDate,
		EventLocation:   s.EventLocation,
		EventImageURL:   s.EventImageURL,
		TicketTypeName:  s.TicketTypeName,
		TicketTypePrice: s.TicketTypePrice.StringFixed(2),
	}
}
