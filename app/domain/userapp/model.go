package userapp

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/domain/permbus"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/types/name"
	"github.com/getorbital/orbital/business/types/password"
	"github.com/getorbital/orbital/business/types/username"
)

// User represents information about an individual user.
type User struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenantId"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Encode implements the encoder interface.
func (app User) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppUser(bus userbus.User) User {
	return User{
		ID:        bus.ID.String(),
		TenantID:  bus.TenantID.String(),
		Username:  bus.Username.String(),
		Email:     bus.Email.Address,
		FullName:  bus.FullName.String(),
		Enabled:   bus.Enabled,
		CreatedAt: bus.CreatedAt.Format(time.RFC3339),
		UpdatedAt: bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppUsers(users []userbus.User) []User {
	app := make([]User, len(users))
	for i, usr := range users {
		app[i] = toAppUser(usr)
	}

	return app
}

// Permissions is the set of permission names held by a user.
type Permissions struct {
	Permissions []string `json:"permissions"`
}

// Encode implements the encoder interface.
func (app Permissions) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppPermissionNames(perms []permbus.Permission) Permissions {
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = p.Name
	}

	return Permissions{
		Permissions: names,
	}
}

// NewUser defines the data needed to add a new user.
type NewUser struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// Decode implements the decoder interface.
func (app *NewUser) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewUser) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusNewUser(app NewUser) (userbus.NewUser, error) {
	un, err := username.Parse(app.Username)
	if err != nil {
		return userbus.NewUser{}, fmt.Errorf("parse: %w", err)
	}

	addr, err := mail.ParseAddress(app.Email)
	if err != nil {
		return userbus.NewUser{}, fmt.Errorf("parse: %w", err)
	}

	fn, err := name.Parse(app.FullName)
	if err != nil {
		return userbus.NewUser{}, fmt.Errorf("parse: %w", err)
	}

	pass, err := password.Parse(app.Password)
	if err != nil {
		return userbus.NewUser{}, fmt.Errorf("parse: %w", err)
	}

	bus := userbus.NewUser{
		Username: un,
		Email:    *addr,
		FullName: fn,
		Password: pass,
	}

	return bus, nil
}

// UpdateUser defines the data needed to update a user.
type UpdateUser struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	FullName *string `json:"fullName"`
	Password *string `json:"password" validate:"omitempty,min=8"`
	Enabled  *bool   `json:"enabled"`
}

// Decode implements the decoder interface.
func (app *UpdateUser) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateUser) Validate() error {
	if err := errs.Check(app); err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	return nil
}

func toBusUpdateUser(app UpdateUser) (userbus.UpdateUser, error) {
	var bus userbus.UpdateUser

	if app.Email != nil {
		addr, err := mail.ParseAddress(*app.Email)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse: %w", err)
		}
		bus.Email = addr
	}

	if app.FullName != nil {
		fn, err := name.Parse(*app.FullName)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse: %w", err)
		}
		bus.FullName = &fn
	}

	if app.Password != nil {
		pass, err := password.Parse(*app.Password)
		if err != nil {
			return userbus.UpdateUser{}, fmt.Errorf("parse: %w", err)
		}
		bus.Password = &pass
	}

	bus.Enabled = app.Enabled

	return bus, nil
}
