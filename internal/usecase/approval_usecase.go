// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"bizdir/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// ApproveBusinessInput defines the data required to approve a pending business.
type ApproveBusinessInput struct {
	// Token is the caller's bearer credential, without the "Bearer " prefix.
	Token      string
	BusinessID uuid.UUID
	// PlanType overrides the business's current plan when set.
	PlanType entity.PlanType
}

// --- Output DTOs ---

// ApproveBusinessOutput is returned when the business has been approved.
type ApproveBusinessOutput struct {
	BusinessID  uuid.UUID
	IdentityID  uuid.UUID
	ApprovedBy  uuid.UUID
	PlanType    entity.PlanType
	Credentials entity.ApprovalCredentials
	// NotificationSent is false when the welcome email could not be delivered.
	// The approval stands and the credentials must be handed over manually.
	NotificationSent bool
	Trace            entity.ApprovalTrace
}

// ApprovalError is returned by ApproveBusiness on failure. It wraps the domain error that
// decides the response and carries the step trace up to and including the failure.
type ApprovalError struct {
	Step  entity.ApprovalStep
	Trace entity.ApprovalTrace
	Err   error
}

func (e *ApprovalError) Error() string {
	return string(e.Step) + ": " + e.Err.Error()
}

func (e *ApprovalError) Unwrap() error {
	return e.Err
}

// ApprovalUsecase defines the partner-approval operation.
type ApprovalUsecase interface {
	// ApproveBusiness provisions the partner login, profile and partnership for a business and
	// marks it approved. Every creation step is idempotent, so retrying after a failure is safe.
	ApproveBusiness(ctx context.Context, input ApproveBusinessInput) (*ApproveBusinessOutput, error)
}

// AdminAuthenticator resolves a bearer token to an administrator identity.
type AdminAuthenticator interface {
	// Authenticate returns ErrUnauthenticated for a missing or invalid token and ErrForbidden
	// when the identity is not an administrator.
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}
