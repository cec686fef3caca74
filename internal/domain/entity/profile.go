package entity

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the display metadata attached 1:1 to an Identity.
type Profile struct {
	ID        uuid.UUID // Same value as the Identity ID.
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}
