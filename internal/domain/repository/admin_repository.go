package repository

import (
	"context"

	"github.com/google/uuid"
)

// AdminRepository answers membership questions about the administrators set.
type AdminRepository interface {
	// IsAdmin reports whether the identity belongs to the administrators set.
	IsAdmin(ctx context.Context, identityID uuid.UUID) (bool, error)

	// Grant adds the identity to the administrators set. Granting twice is a no-op.
	Grant(ctx context.Context, identityID uuid.UUID) error
}
