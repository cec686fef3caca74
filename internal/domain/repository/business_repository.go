package repository

import (
	"context"

	"bizdir/internal/domain/entity"

	"github.com/google/uuid"
)

// BusinessRepository defines the persistence operations on business listings used by the approval flow.
type BusinessRepository interface {
	// FindByID retrieves a single business by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Business, error)

	// Create persists a new business. Used by seeding and tests; listing CRUD lives elsewhere.
	Create(ctx context.Context, business *entity.Business) error

	// ApplyApproval writes the approval columns of the business.
	ApplyApproval(ctx context.Context, id uuid.UUID, patch entity.ApprovalPatch) error
}
