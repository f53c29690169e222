// Package tenancy provides the ambient tenant scope for the system and the
// resolution of that scope from inbound requests. A Scope is passed
// explicitly into every store and business call; it is never carried in
// mutable global state, so a value observed at the start of a request is the
// value used for its entire unit of work.
package tenancy

import (
	"errors"

	"github.com/google/uuid"
)

// ErrTenantMismatch indicates an entity or assignment whose stamped tenant
// conflicts with the ambient scope. It is fatal to the current write and is
// never retried.
var ErrTenantMismatch = errors.New("tenant mismatch with ambient scope")

// Scope is an immutable value representing the resolved tenant for one unit
// of work. The zero value is the system scope: no tenant boundary applies and
// scoped entities are visible across all tenants. The system scope is only
// produced by an explicit configuration or tooling decision, never as a
// silent default.
type Scope struct {
	tenantID   uuid.UUID
	identifier string
}

// New constructs a scope bound to the specified tenant.
func New(tenantID uuid.UUID) Scope {
	return Scope{
		tenantID: tenantID,
	}
}

// NewWithIdentifier constructs a scope bound to the specified tenant,
// retaining the external identifier it was resolved from.
func NewWithIdentifier(tenantID uuid.UUID, identifier string) Scope {
	return Scope{
		tenantID:   tenantID,
		identifier: identifier,
	}
}

// System returns the unscoped system/super-admin scope.
func System() Scope {
	return Scope{}
}

// TenantID returns the tenant id the scope is bound to. It is uuid.Nil for
// the system scope.
func (s Scope) TenantID() uuid.UUID {
	return s.tenantID
}

// Identifier returns the external identifier the scope was resolved from,
// when resolution went through one.
func (s Scope) Identifier() string {
	return s.identifier
}

// IsSystem reports whether the scope crosses tenant boundaries.
func (s Scope) IsSystem() bool {
	return s.tenantID == uuid.Nil
}

// Equal provides support for the go-cmp package and testing. Two scopes are
// equal when they are bound to the same tenant.
func (s Scope) Equal(s2 Scope) bool {
	return s.tenantID == s2.tenantID
}

// String implements the stringer interface.
func (s Scope) String() string {
	if s.IsSystem() {
		return "system"
	}

	return s.tenantID.String()
}

// MarshalText provides support for logging and any marshal needs.
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
