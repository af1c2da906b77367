package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/usetix/tix/internal/auth"
	"github.com/usetix/tix/internal/domain"
	"github.com/usetix/tix/internal/observability"
)

// SessionStore keeps server-side browser sessions keyed by an opaque
// token carried in a cookie.
type SessionStore interface {
	SetSession(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (uuid.UUID, error)
	DeleteSession(ctx context.Context, token string) error
}

// IdentityService handles registration, login and session lifecycle.
// Authenticated callers present either a bearer token or a session
// cookie; both resolve to the same user record.
type IdentityService struct {
	users      domain.UserRepository
	issuer     *auth.TokenIssuer
	sessions   SessionStore
	sessionTTL time.Duration
	logger     observability.Logger
}

func NewIdentityService(users domain.UserRepository, issuer *auth.TokenIssuer, sessions SessionStore, sessionTTL time.Duration, logger observability.Logger) *IdentityService {
	return &IdentityService{users: users, issuer: issuer, sessions: sessions, sessionTTL: sessionTTL, logger: logger}
}

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (in *RegisterInput) validate() error {
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.ErrInvalidInput
	}
	if len(in.Password) < 8 {
		return domain.ErrInvalidInput
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return domain.ErrInvalidInput
	}
	return nil
}

// Register creates the account and immediately establishes a signed-in
// session, returning both the bearer token and the session token.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*domain.User, string, string, error) {
	if err := in.validate(); err != nil {
		return nil, "", "", err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", "", err
	}
	user := domain.NewUser(strings.ToLower(strings.TrimSpace(in.Email)), in.FirstName, in.LastName, "", hash)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", "", err
	}
	return s.signIn(ctx, &user)
}

// Login verifies credentials. A wrong password and an unknown email are
// indistinguishable to the caller.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*domain.User, string, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", "", domain.ErrInvalidCredentials
		}
		return nil, "", "", err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", "", domain.ErrInvalidCredentials
	}
	return s.signIn(ctx, user)
}

func (s *IdentityService) signIn(ctx context.Context, user *domain.User) (*domain.User, string, string, error) {
	bearer, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, "", "", err
	}
	session := uuid.NewString()
	if err := s.sessions.SetSession(ctx, session, user.ID, s.sessionTTL); err != nil {
		return nil, "", "", err
	}
	return user, bearer, session, nil
}

func (s *IdentityService) Logout(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	return s.sessions.DeleteSession(ctx, sessionToken)
}

func (s *IdentityService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Resolve maps the credentials on a request to a user ID. The bearer
// token wins when both are present; an empty result with nil error
// means anonymous.
func (s *IdentityService) Resolve(ctx context.Context, bearer, sessionToken string) (uuid.UUID, error) {
	if bearer != "" {
		return s.issuer.Verify(bearer)
	}
	if sessionToken != "" {
		userID, err := s.sessions.GetSession(ctx, sessionToken)
		if err != nil {
			return uuid.Nil, err
		}
		return userID, nil
	}
	return uuid.Nil, nil
}
