package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

const ProviderPassword = "password"

// Account is the identity-provider side of a user. Profiles hang off Account.ID.
type Account struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	PasswordHash    *string   `json:"-"`
	Provider        string    `json:"provider"`
	ProviderSubject string    `json:"provider_subject"`
	CreatedAt       time.Time `json:"created_at"`
}

type AuthEventType string

const (
	AuthSignedIn  AuthEventType = "signed_in"
	AuthSignedOut AuthEventType = "signed_out"
)

type AuthEvent struct {
	Type AuthEventType
	User *User
}
