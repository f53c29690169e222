// Package mid provides app level middleware support.
package mid

import (
	"context"
	"errors"

	"github.com/getorbital/orbital/app/sdk/auth"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/business/sdk/unitofwork"
	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/google/uuid"
)

func checkIsError(e web.Encoder) error {
	err, hasError := e.(error)
	if hasError {
		return err
	}

	return nil
}

// =============================================================================

type ctxKey int

const (
	claimKey ctxKey = iota + 1
	userIDKey
	userKey
	scopeKey
	uowKey
)

func setClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, claimKey, claims)
}

// GetClaims returns the claims from the context.
func GetClaims(ctx context.Context) auth.Claims {
	v, ok := ctx.Value(claimKey).(auth.Claims)
	if !ok {
		return auth.Claims{}
	}
	return v
}

func setUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the user id from the context.
func GetUserID(ctx context.Context) (uuid.UUID, error) {
	v, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok {
		return uuid.UUID{}, errors.New("user id not found in context")
	}

	return v, nil
}

func setUser(ctx context.Context, usr userbus.User) context.Context {
	return context.WithValue(ctx, userKey, usr)
}

// GetUser returns the user from the context.
func GetUser(ctx context.Context) (userbus.User, error) {
	v, ok := ctx.Value(userKey).(userbus.User)
	if !ok {
		return userbus.User{}, errors.New("user not found in context")
	}

	return v, nil
}

func setScope(ctx context.Context, scope tenancy.Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// GetScope returns the resolved tenant scope from the context. A request
// that never went through tenant resolution has no scope, never a silent
// system one.
func GetScope(ctx context.Context) (tenancy.Scope, error) {
	v, ok := ctx.Value(scopeKey).(tenancy.Scope)
	if !ok {
		return tenancy.Scope{}, errors.New("tenant scope not found in context")
	}

	return v, nil
}

func setUOW(ctx context.Context, uow *unitofwork.UnitOfWork) context.Context {
	return context.WithValue(ctx, uowKey, uow)
}

// GetUOW retrieves the unit of work bound to the request.
func GetUOW(ctx context.Context) (*unitofwork.UnitOfWork, error) {
	v, ok := ctx.Value(uowKey).(*unitofwork.UnitOfWork)
	if !ok {
		return nil, errors.New("unit of work not found in context")
	}

	return v, nil
}
