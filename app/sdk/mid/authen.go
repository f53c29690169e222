package mid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getorbital/orbital/app/sdk/auth"
	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/google/uuid"
)

// Authenticate validates the JWT in the Authorization header and stages the
// claims and subject in the context.
func Authenticate(a *auth.Auth) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			authStr := r.Header.Get("authorization")
			if authStr == "" {
				return errs.New(errs.Unauthenticated, errors.New("missing authorization header"))
			}

			parts := strings.Split(authStr, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return errs.New(errs.Unauthenticated, errors.New("expected authorization header format: Bearer <token>"))
			}

			claims, err := a.Authenticate(ctx, authStr)
			if err != nil {
				return errs.New(errs.Unauthenticated, err)
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return errs.New(errs.Unauthenticated, fmt.Errorf("invalid user id: %w", err))
			}

			ctx = setUserID(ctx, userID)
			ctx = setClaims(ctx, claims)

			return next(ctx, r)
		}

		return h
	}

	return m
}
