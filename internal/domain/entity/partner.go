package entity

import (
	"time"

	"github.com/google/uuid"
)

// PartnerStatus is the state of a partnership link.
type PartnerStatus string

// PartnerStatusActive is the only status written by the approval flow.
const PartnerStatusActive PartnerStatus = "active"

// Partner grants an Identity management rights over exactly one Business.
// At most one Partner exists per (IdentityID, BusinessID).
type Partner struct {
	ID         uuid.UUID
	IdentityID uuid.UUID
	BusinessID uuid.UUID
	Status     PartnerStatus
	ApprovedBy uuid.UUID
	CreatedAt  time.Time
}
