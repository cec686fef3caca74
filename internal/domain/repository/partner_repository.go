package repository

import (
	"context"

	"bizdir/internal/domain/entity"

	"github.com/google/uuid"
)

// PartnerRepository persists identity-to-business partnership links.
type PartnerRepository interface {
	// FindByIdentityAndBusiness returns ErrPartnerNotFound when no link exists.
	FindByIdentityAndBusiness(ctx context.Context, identityID, businessID uuid.UUID) (*entity.Partner, error)

	// Create returns ErrAlreadyExists when the (identity, business) pair is already linked and
	// ErrProfileNotFound when the identity has no profile.
	Create(ctx context.Context, partner *entity.Partner) error

	Delete(ctx context.Context, id uuid.UUID) error

	// ListByIdentity returns every business link held by an identity.
	ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]*entity.Partner, error)
}
