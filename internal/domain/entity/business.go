// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BusinessStatus is the lifecycle state of a registered business.
type BusinessStatus string

const (
	BusinessStatusPending   BusinessStatus = "pending"
	BusinessStatusApproved  BusinessStatus = "approved"
	BusinessStatusSuspended BusinessStatus = "suspended"
	BusinessStatusCancelled BusinessStatus = "cancelled"
)

// IsValid checks if the status is one of the known values.
func (s BusinessStatus) IsValid() bool {
	switch s {
	case BusinessStatusPending, BusinessStatusApproved, BusinessStatusSuspended, BusinessStatusCancelled:
		return true
	default:
		return false
	}
}

// PlanType is the commercial plan a business is listed under.
type PlanType string

const (
	PlanTypeBasic   PlanType = "basic"
	PlanTypePremium PlanType = "premium"
)

// IsValid checks if the plan type is one of the known values.
func (p PlanType) IsValid() bool {
	return p == PlanTypeBasic || p == PlanTypePremium
}

// PlanLimits are the per-plan quotas copied onto a business when it is approved.
type PlanLimits struct {
	MaxCoupons int
	MaxPhotos  int
}

// Business is a directory listing registered by a responsible contact and reviewed by an administrator.
type Business struct {
	ID               uuid.UUID
	Name             string
	ResponsibleEmail *string // Nil when the registration form was submitted without a contact email.
	ResponsibleName  string
	Status           BusinessStatus
	PlanType         PlanType
	MaxCoupons       int
	MaxPhotos        int
	ApprovedAt       *time.Time
	ApprovedBy       *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ContactEmail returns the normalized responsible email, or "" when none is set.
func (b *Business) ContactEmail() string {
	if b == nil || b.ResponsibleEmail == nil {
		return ""
	}

	return strings.ToLower(strings.TrimSpace(*b.ResponsibleEmail))
}

// DisplayName is the name given to the partner profile created for this business.
func (b *Business) DisplayName() string {
	if name := strings.TrimSpace(b.ResponsibleName); name != "" {
		return name
	}

	return b.Name
}

// ApprovalPatch is the set of columns written by the approval state transition.
type ApprovalPatch struct {
	Status     BusinessStatus
	PlanType   PlanType
	MaxCoupons int
	MaxPhotos  int
	ApprovedAt time.Time
	ApprovedBy uuid.UUID
}
