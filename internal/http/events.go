package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/usetix/tix/internal/domain"
	"github.com/usetix/tix/internal/service"
)

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := domain.EventFilters{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Location: q.Get("location"),
	}
	if v := q.Get("page"); v != "" {
		filters.Page, _ = strconv.Atoi(v)
	}
	if v := q.Get("pageSize"); v != "" {
		filters.PageSize, _ = strconv.Atoi(v)
	}
	if v := q.Get("startDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.StartDate = &t
		}
	}
	if v := q.Get("endDate"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.EndDate = &t
		}
	}

	events, total, err := h.catalog.ListEvents(r.Context(), filters)
	if err != nil {
		writeError(w, err)
		return
	}
	summaries := make([]eventSummaryResponse, 0, len(events))
	for _, e := range events {
		summaries = append(summaries, toEventSummaryResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": summaries,
		"total":  total,
	})
}

func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	event, tickets, err := h.catalog.GetEvent(r.Context(), eventID, currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	ticketResponses := make([]ticketTypeResponse, 0, len(tickets))
	for _, t := range tickets {
		ticketResponses = append(ticketResponses, toTicketTypeResponse(t))
	}
	resp := struct {
		eventResponse
		TicketTypes []ticketTypeResponse `json:"ticketTypes"`
	}{toEventResponse(*event), ticketResponses}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) ListEventTickets(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	_, tickets, err := h.catalog.GetEvent(r.Context(), eventID, currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ticketTypeResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketTypeResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Categories())
}

type eventRequest struct {
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"shortDescription"`
	Category         string     `json:"category"`
	Venue            string     `json:"venue"`
	Location         string     `json:"location"`
	Timezone         string     `json:"timezone"`
	IsVirtual        bool       `json:"isVirtual"`
	VirtualLink      string     `json:"virtualLink"`
	StartDate        time.Time  `json:"startDate"`
	EndDate          time.Time  `json:"endDate"`
	ImageURL         string     `json:"imageUrl"`
	MaxAttendees     *int       `json:"maxAttendees"`
}

func (req eventRequest) toInput() service.EventInput {
	return service.EventInput{
		Title:            req.Title,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		Category:         req.Category,
		Venue:            req.Venue,
		Location:         req.Location,
		Timezone:         req.Timezone,
		IsVirtual:        req.IsVirtual,
		VirtualLink:      req.VirtualLink,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		ImageURL:         req.ImageURL,
		MaxAttendees:     req.MaxAttendees,
	}
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	event, err := h.catalog.CreateEvent(r.Context(), currentUserID(r), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(*event))
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	var req eventRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	event, err := h.catalog.UpdateEvent(r.Context(), eventID, currentUserID(r), req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(*event))
}

func (h *Handlers) PublishEvent(w http.ResponseWriter, r *http.Request) {
	h.setEventStatus(w, r, h.catalog.Publish)
}

func (h *Handlers) UnpublishEvent(w http.ResponseWriter, r *http.Request) {
	h.setEventStatus(w, r, h.catalog.Unpublish)
}

func (h *Handlers) CancelEvent(w http.ResponseWriter, r *http.Request) {
	h.setEventStatus(w, r, h.catalog.CancelEvent)
}

func (h *Handlers) setEventStatus(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, eventID, requesterID uuid.UUID) (*domain.Event, error)) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	event, err := fn(r.Context(), eventID, currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(*event))
}

type ticketTypeRequest struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Price         string     `json:"price"`
	Quantity      int        `json:"quantity"`
	SaleStartDate *time.Time `json:"saleStartDate"`
	SaleEndDate   *time.Time `json:"saleEndDate"`
	IsActive      *bool      `json:"isActive"`
}

func (req ticketTypeRequest) toDomain() (domain.TicketType, error) {
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return domain.TicketType{}, domain.ErrInvalidInput
	}
	t := domain.TicketType{
		Name:          req.Name,
		Description:   req.Description,
		Price:         price,
		Quantity:      req.Quantity,
		SaleStartDate: req.SaleStartDate,
		SaleEndDate:   req.SaleEndDate,
		IsActive:      true,
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}
	return t, nil
}

func (h *Handlers) CreateTicketType(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	var req ticketTypeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ticket, err := req.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.catalog.CreateTicketType(r.Context(), eventID, currentUserID(r), &ticket); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTicketTypeResponse(ticket))
}

func (h *Handlers) UpdateTicketType(w http.ResponseWriter, r *http.Request) {
	ticketTypeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	var req ticketTypeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	update, err := req.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}
	ticket, err := h.catalog.UpdateTicketType(r.Context(), ticketTypeID, currentUserID(r), &update)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketTypeResponse(*ticket))
}

func (h *Handlers) DeleteTicketType(w http.ResponseWriter, r *http.Request) {
	ticketTypeID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.catalog.DeleteTicketType(r.Context(), ticketTypeID, currentUserID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DashboardStats(w http.ResponseWriter, r *http.Request) {
	dash, err := h.dashboard.Organizer(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash.Stats)
}

func (h *Handlers) DashboardEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.catalog.ListByOrganizer(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponses(events))
}

func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	dash, err := h.dashboard.Admin(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dash.Stats)
}

func (h *Handlers) AdminEvents(w http.ResponseWriter, r *http.Request) {
	dash, err := h.dashboard.Admin(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponses(dash.Events))
}
