package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/usetix/tix/internal/domain"
	"github.com/usetix/tix/internal/observability"
)

// In-memory fakes. fakeBookingRepo enforces the same capacity rule as
// the relational store so reservation behavior can be tested without a
// database, including under concurrency.

type fakeTicketRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.TicketType
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{byID: make(map[uuid.UUID]domain.TicketType)}
}

func (f *fakeTicketRepo) Create(ctx context.Context, t domain.TicketType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[t.ID] = t
	return nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, t domain.TicketType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.byID[t.ID]
	if !ok {
		return domain.ErrNotFound
	}
	t.Sold = existing.Sold
	f.byID[t.ID] = t
	return nil
}

func (f *fakeTicketRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeTicketRepo) ListByEvent(ctx context.Context, eventID uuid.UUID, activeOnly bool) ([]domain.TicketType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketType
	for _, t := range f.byID {
		if t.EventID != eventID {
			continue
		}
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type fakeEventRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[uuid.UUID]domain.Event)}
}

func (f *fakeEventRepo) Create(ctx context.Context, e domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, e domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EventStatus) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Status = status
	f.byID[id] = e
	return &e, nil
}

func (f *fakeEventRepo) List(ctx context.Context, filters domain.EventFilters) ([]domain.EventSummary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.EventSummary
	for _, e := range f.byID {
		if e.Status != domain.EventPublished {
			continue
		}
		if filters.Category != "" && e.Category != filters.Category {
			continue
		}
		out = append(out, domain.EventSummary{Event: e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, len(out), nil
}

func (f *fakeEventRepo) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Event
	for _, e := range f.byID {
		if e.OrganizerID == organizerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListAll(ctx context.Context) ([]domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Event
	for _, e := range f.byID {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) OrganizerStats(ctx context.Context, organizerID uuid.UUID) (*domain.OrganizerStats, error) {
	return &domain.OrganizerStats{}, nil
}

func (f *fakeEventRepo) PlatformStats(ctx context.Context) (*domain.PlatformStats, error) {
	return &domain.PlatformStats{}, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]domain.Booking
	byIntent map[string]uuid.UUID
	tickets  *fakeTicketRepo
}

func newFakeBookingRepo(tickets *fakeTicketRepo) *fakeBookingRepo {
	return &fakeBookingRepo{
		byID:     make(map[uuid.UUID]domain.Booking),
		byIntent: make(map[string]uuid.UUID),
		tickets:  tickets,
	}
}

func (f *fakeBookingRepo) Reserve(ctx context.Context, b domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets.mu.Lock()
	defer f.tickets.mu.Unlock()

	t, ok := f.tickets.byID[b.TicketTypeID]
	if !ok {
		return domain.ErrNotFound
	}
	if !t.IsActive || t.Sold+b.Quantity > t.Quantity {
		return domain.ErrInsufficientInventory
	}
	t.Sold += b.Quantity
	f.tickets.byID[t.ID] = t
	f.byID[b.ID] = b
	return nil
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (f *fakeBookingRepo) GetDetail(ctx context.Context, id uuid.UUID) (*domain.BookingDetail, error) {
	b, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := f.tickets.GetByID(ctx, b.TicketTypeID)
	if err != nil {
		return nil, err
	}
	return &domain.BookingDetail{Booking: *b, TicketType: *t}, nil
}

func (f *fakeBookingRepo) GetByPaymentIntent(ctx context.Context, intentRef string) (*domain.Booking, error) {
	f.mu.Lock()
	id, ok := f.byIntent[intentRef]
	f.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f.GetByID(ctx, id)
}

func (f *fakeBookingRepo) AttachPaymentIntent(ctx context.Context, id uuid.UUID, intentRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.byID[id]
	if !ok || b.Status != domain.BookingPending {
		return domain.ErrNotFound
	}
	b.PaymentIntentID = intentRef
	f.byID[id] = b
	f.byIntent[intentRef] = id
	return nil
}

func (f *fakeBookingRepo) Confirm(ctx context.Context, intentRef string) (*domain.Booking, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byIntent[intentRef]
	if !ok {
		return nil, false, domain.ErrNotFound
	}
	b := f.byID[id]
	if b.Status == domain.BookingConfirmed {
		return &b, true, nil
	}
	if b.Status != domain.BookingPending {
		return nil, false, domain.ErrBookingNotPending
	}
	b.Status = domain.BookingConfirmed
	f.byID[id] = b
	return &b, false, nil
}

func (f *fakeBookingRepo) Release(ctx context.Context, id uuid.UUID, to domain.BookingStatus, from ...domain.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets.mu.Lock()
	defer f.tickets.mu.Unlock()

	b, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	allowed := false
	for _, s := range from {
		if b.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return domain.ErrConflict
	}
	b.Status = to
	f.byID[id] = b

	t := f.tickets.byID[b.TicketTypeID]
	if t.Sold >= b.Quantity {
		t.Sold -= b.Quantity
	}
	f.tickets.byID[t.ID] = t
	return nil
}

func (f *fakeBookingRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.BookingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BookingSummary
	for _, b := range f.byID {
		if b.UserID == userID {
			out = append(out, domain.BookingSummary{Booking: b})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeBookingRepo) ListExpired(ctx context.Context, now time.Time) ([]domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Booking
	for _, b := range f.byID {
		if b.Status == domain.BookingPending && !b.ExpiresAt.After(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAuditor) LogAction(ctx context.Context, action string, userID uuid.UUID, data map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
	return nil
}

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]domain.User
	byEmail map[string]uuid.UUID
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[uuid.UUID]domain.User), byEmail: make(map[string]uuid.UUID)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u.ID
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := f.byID[id]
	return &u, nil
}

func (f *fakeUserRepo) SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.StripeCustomerID = customerID
	f.byID[id] = u
	return nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]uuid.UUID
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]uuid.UUID)}
}

func (f *fakeSessionStore) SetSession(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[token] = userID
	return nil
}

func (f *fakeSessionStore) GetSession(ctx context.Context, token string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[token], nil
}

func (f *fakeSessionStore) DeleteSession(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

type fakePaymentProvider struct {
	mu        sync.Mutex
	intents   int
	customers int
	fail      error
}

func (f *fakePaymentProvider) EnsureCustomer(ctx context.Context, customerID, email, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if customerID != "" {
		return customerID, nil
	}
	f.customers++
	return fmt.Sprintf("cus_test_%d", f.customers), nil
}

func (f *fakePaymentProvider) CreateIntent(ctx context.Context, customerID string, amount decimal.Decimal, currency string, metadata map[string]string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return "", "", f.fail
	}
	f.intents++
	id := fmt.Sprintf("pi_test_%d", f.intents)
	return id, id + "_secret", nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(detail domain.BookingDetail) ([]byte, error) {
	return []byte("%PDF-stub " + detail.Reference), nil
}

type fakeImageStore struct{}

func (fakeImageStore) Upload(ctx context.Context, r io.Reader, folder string) (string, string, error) {
	return "https://img.example.com/x.png", "x", nil
}

func (fakeImageStore) Delete(ctx context.Context, publicID string) error { return nil }

func testLogger() observability.Logger {
	return observability.NewLogger()
}
