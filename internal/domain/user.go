package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID
	Email            string
	FirstName        string
	LastName         string
	ProfileImageURL  string
	PasswordHash     string
	StripeCustomerID string
	IsAdmin          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewUser(email, firstName, lastName, profileImageURL, passwordHash string) User {
	now := time.Now().UTC()
	return User{
		ID:              uuid.New(),
		Email:           email,
		FirstName:       firstName,
		LastName:        lastName,
		ProfileImageURL: profileImageURL,
		PasswordHash:    passwordHash,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

type UserRepository interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	SetStripeCustomerID(ctx context.Context, id uuid.UUID, customerID string) error
}
