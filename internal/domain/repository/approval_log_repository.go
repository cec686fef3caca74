package repository

import (
	"context"

	"bizdir/internal/domain/entity"

	"github.com/google/uuid"
)

// ApprovalLogRepository stores the audit trail of completed approvals.
type ApprovalLogRepository interface {
	Create(ctx context.Context, log *entity.ApprovalLog) error

	// ListByBusiness returns the approvals of a business, newest first.
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*entity.ApprovalLog, error)
}
