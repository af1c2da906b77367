package http

import (
	"context"
	"net/http"
	"time"

	"github.com/usetix/tix/internal/config"
	"github.com/usetix/tix/internal/domain"
	"github.com/usetix/tix/internal/idempotency"
	"github.com/usetix/tix/internal/observability"
	"github.com/usetix/tix/internal/service"
)

// Pinger reports backing-store liveness for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	cfg       *config.Config
	identity  *service.IdentityService
	catalog   *service.CatalogService
	bookings  *service.BookingService
	payments  *service.PaymentService
	dashboard *service.DashboardService
	idemp     *idempotency.Idempotency
	images    domain.ImageStore
	db        Pinger
	cache     Pinger
	logger    observability.Logger
}

func NewHandlers(
	cfg *config.Config,
	identity *service.IdentityService,
	catalog *service.CatalogService,
	bookings *service.BookingService,
	payments *service.PaymentService,
	dashboard *service.DashboardService,
	idemp *idempotency.Idempotency,
	images domain.ImageStore,
	db, cache Pinger,
	logger observability.Logger,
) *Handlers {
	return &Handlers{
		cfg:       cfg,
		identity:  identity,
		catalog:   catalog,
		bookings:  bookings,
		payments:  payments,
		dashboard: dashboard,
		idemp:     idemp,
		images:    images,
		db:        db,
		cache:     cache,
		logger:    logger,
	}
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, token, session, err := h.identity.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, authResponse{User: toUserResponse(user), Token: token})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, token, session, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, authResponse{User: toUserResponse(user), Token: token})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := h.identity.Logout(r.Context(), c.Value); err != nil {
			h.logger.Warn("session delete failed", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *Handlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identity.GetUser(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, session string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.SessionTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "db unavailable"})
		return
	}
	if err := h.cache.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "cache unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
