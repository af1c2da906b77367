package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/usetix/tix/internal/domain"
	"github.com/usetix/tix/internal/idempotency"
)

// CreateBooking reserves inventory for a pending booking. An optional
// Idempotency-Key header makes retries replay the stored response
// instead of reserving again.
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get("Idempotency-Key")
	if key != "" {
		existing, err := h.idemp.Get(r.Context(), key)
		if err != nil {
			writeError(w, err)
			return
		}
		if existing != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(existing.Status)
			w.Write(existing.Result)
			return
		}
	}

	var req struct {
		EventID       uuid.UUID `json:"eventId"`
		TicketTypeID  uuid.UUID `json:"ticketTypeId"`
		Quantity      int       `json:"quantity"`
		AttendeeName  string    `json:"attendeeName"`
		AttendeeEmail string    `json:"attendeeEmail"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	booking, err := h.bookings.Reserve(r.Context(), req.EventID, req.TicketTypeID, currentUserID(r), req.Quantity, domain.AttendeeInfo{
		Name:  req.AttendeeName,
		Email: req.AttendeeEmail,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	data, _ := json.Marshal(toBookingResponse(*booking))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(data)

	if key != "" {
		if err := h.idemp.Set(r.Context(), key, idempotency.Response{Status: http.StatusCreated, Result: data}); err != nil {
			h.logger.Warn("idempotency store failed", err)
		}
	}
}

func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.bookings.ListForUser(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]bookingSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toBookingSummaryResponse(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	booking, err := h.bookings.Get(r.Context(), bookingID, currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(*booking))
}

// BookingTicket streams the PDF ticket for a confirmed booking.
func (h *Handlers) BookingTicket(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	pdf, reference, err := h.bookings.IssueTicket(r.Context(), bookingID, currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="ticket-`+reference+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.bookings.Cancel(r.Context(), bookingID, currentUserID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "booking cancelled"})
}

func (h *Handlers) RefundBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	if err := h.bookings.Refund(r.Context(), bookingID, currentUserID(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "booking refunded"})
}

func (h *Handlers) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookingID uuid.UUID `json:"bookingId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	clientSecret, err := h.payments.CreateIntent(r.Context(), req.BookingID, currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": clientSecret})
}

func (h *Handlers) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentIntentID string `json:"paymentIntentId"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PaymentIntentID == "" {
		writeError(w, domain.ErrInvalidInput)
		return
	}
	booking, err := h.payments.Confirm(r.Context(), req.PaymentIntentID, currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(*booking))
}
