package entity

import (
	"time"

	"github.com/google/uuid"
)

// Identity is a login credential held by the identity provider.
// It is keyed by email and may be shared by several partnerships.
type Identity struct {
	ID               uuid.UUID
	Email            string
	EmailConfirmedAt *time.Time
	Metadata         map[string]any
	CreatedAt        time.Time
}

// NewIdentity carries what the provider needs to create a login.
// Password is cleartext and must only be handed to the provider, never persisted as is.
type NewIdentity struct {
	Email          string
	Password       string
	EmailConfirmed bool
	Metadata       map[string]any
}
