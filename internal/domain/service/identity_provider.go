// Package service defines interfaces for core, stateless domain logic and external collaborators.
package service

import (
	"context"
	"errors"

	"bizdir/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrIdentityNotFound is returned by FindByEmail when no login exists for the email.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityAlreadyExists is returned by Create when another login already owns the email.
	ErrIdentityAlreadyExists = errors.New("identity already exists")
)

// IdentityProvider is the administrative interface of the login provider.
type IdentityProvider interface {
	// FindByEmail looks a login up by email, returning ErrIdentityNotFound when absent.
	FindByEmail(ctx context.Context, email string) (*entity.Identity, error)

	// Create provisions a new login. A uniqueness conflict on email yields ErrIdentityAlreadyExists.
	Create(ctx context.Context, input entity.NewIdentity) (*entity.Identity, error)

	// Delete removes a login. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}
