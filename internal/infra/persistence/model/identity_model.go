package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// IdentityModel mirrors the 'identities' table used by the postgres identity provider.
// Email is stored lower-cased; the unique index serializes concurrent find-or-create.
type IdentityModel struct {
	ID               uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Email            string            `gorm:"type:varchar(255);not null;uniqueIndex:idx_identities_email"`
	PasswordHash     string            `gorm:"type:varchar(255);not null"`
	EmailConfirmedAt *time.Time
	Metadata         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (IdentityModel) TableName() string {
	return "identities"
}

// AdminModel mirrors the 'admins' table: the set of identities allowed to approve businesses.
type AdminModel struct {
	IdentityID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (AdminModel) TableName() string {
	return "admins"
}
