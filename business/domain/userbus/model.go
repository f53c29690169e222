package userbus

import (
	"net/mail"
	"time"

	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/password"
	"github.com/getorbital/orbital/business/types/username"
	"github.com/google/uuid"
)

// User represents information about an individual user. The normalized keys
// are derived fields kept alongside the display values so lookups and the
// per-tenant uniqueness constraints are case and accent insensitive.
type User struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	Username           username.Username
	NormalizedUsername string
	Email              mail.Address
	NormalizedEmail    string
	FullName           name.Name
	PasswordHash       []byte
	Enabled            bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewUser contains information needed to create a new user. TenantID is only
// honored under the system scope; tenant-bound scopes stamp their own.
type NewUser struct {
	TenantID uuid.UUID
	Username username.Username
	Email    mail.Address
	FullName name.Name
	Password password.Password
}

// UpdateUser contains information needed to update a user.
type UpdateUser struct {
	FullName *name.Name
	Email    *mail.Address
	Password *password.Password
	Enabled  *bool
}
