package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProfileModel mirrors the 'profiles' table. ID equals the identity id, so the primary key
// doubles as the 1:1 uniqueness constraint.
type ProfileModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"type:varchar(255)"`
	Role      string    `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ProfileModel) TableName() string {
	return "profiles"
}

// PartnerModel mirrors the 'partners' table. At most one row per (identity, business).
// The profile foreign key restricts deletes, so a profile cannot vanish under a live partnership.
type PartnerModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	IdentityID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_partners_identity_business"`
	BusinessID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_partners_identity_business;index"`
	Status     string    `gorm:"type:varchar(20);not null"`
	ApprovedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt  time.Time

	Business *BusinessModel `gorm:"foreignKey:BusinessID"`
	Profile  *ProfileModel  `gorm:"foreignKey:IdentityID;references:ID;constraint:OnDelete:RESTRICT"`
}

// Foreign key names created by AutoMigrate for PartnerModel.
const (
	FKPartnersBusiness = "fk_partners_business"
	FKPartnersProfile  = "fk_partners_profile"
)

// TableName explicitly sets the table name for GORM.
func (PartnerModel) TableName() string {
	return "partners"
}

// ApprovalLogModel mirrors the 'approval_logs' table. Trace is the JSON step record of the invocation.
type ApprovalLogModel struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BusinessID      uuid.UUID      `gorm:"type:uuid;not null;index"`
	ApprovedBy      uuid.UUID      `gorm:"type:uuid;not null"`
	IdentityID      uuid.UUID      `gorm:"type:uuid;not null"`
	IdentityCreated bool           `gorm:"not null"`
	PlanType        string         `gorm:"type:varchar(20);not null"`
	Trace           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time
}

// TableName explicitly sets the table name for GORM.
func (ApprovalLogModel) TableName() string {
	return "approval_logs"
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&BusinessModel{},
		&IdentityModel{},
		&AdminModel{},
		&ProfileModel{},
		&PartnerModel{},
		&ApprovalLogModel{},
	}
}
