package repository

import (
	"context"

	"bizdir/internal/domain/entity"

	"github.com/google/uuid"
)

// ProfileRepository persists display profiles keyed by identity id.
type ProfileRepository interface {
	// FindByID returns ErrProfileNotFound when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)

	// Create returns ErrAlreadyExists when a profile with the same id was inserted concurrently.
	Create(ctx context.Context, profile *entity.Profile) error

	// Delete returns ErrResourceInUse while a partnership still points at the profile.
	Delete(ctx context.Context, id uuid.UUID) error
}
