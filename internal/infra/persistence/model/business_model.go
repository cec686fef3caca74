package model

import (
	"time"

	"github.com/google/uuid"
)

// BusinessModel mirrors the 'businesses' table. IDs are generated in code (UUIDv7) with gen_random_uuid() as the column default.
type BusinessModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name             string     `gorm:"type:varchar(255);not null"`
	ResponsibleEmail *string    `gorm:"type:varchar(255);index"`
	ResponsibleName  string     `gorm:"type:varchar(255)"`
	Status           string     `gorm:"type:varchar(20);not null;default:pending;index;check:chk_businesses_status,status IN ('pending','approved','suspended','cancelled')"`
	PlanType         string     `gorm:"type:varchar(20);not null;default:basic;check:chk_businesses_plan_type,plan_type IN ('basic','premium')"`
	MaxCoupons       int        `gorm:"not null;default:0"`
	MaxPhotos        int        `gorm:"not null;default:0"`
	ApprovedAt       *time.Time
	ApprovedBy       *uuid.UUID `gorm:"type:uuid"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (BusinessModel) TableName() string {
	return "businesses"
}
