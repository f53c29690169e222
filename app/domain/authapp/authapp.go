// Package authapp maintains the app layer api for token issuance.
package authapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/getorbital/orbital/app/sdk/auth"
	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/app/sdk/mid"
	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/web"
)

type app struct {
	auth      *auth.Auth
	userBus   *userbus.Core
	activeKID string
}

func newApp(ath *auth.Auth, userBus *userbus.Core, activeKID string) *app {
	return &app{
		auth:      ath,
		userBus:   userBus,
		activeKID: activeKID,
	}
}

func (a *app) token(ctx context.Context, r *http.Request) web.Encoder {
	var req Login
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	scope, err := mid.GetScope(ctx)
	if err != nil {
		return errs.Newf(errs.Internal, "scope missing in context: %s", err)
	}

	pass, err := toBusPassword(req.Password)
	if err != nil {
		return errs.New(errs.Unauthenticated, userbus.ErrAuthenticationFailure)
	}

	usr, err := a.userBus.Authenticate(ctx, scope, req.Username, pass)
	if err != nil {
		if errors.Is(err, userbus.ErrAuthenticationFailure) {
			return errs.New(errs.Unauthenticated, userbus.ErrAuthenticationFailure)
		}
		return errs.Errorf(errs.InternalOnlyLog, "authenticate: %s", err)
	}

	tokenStr, err := a.auth.GenerateToken(a.activeKID, usr.ID, scope)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "generatetoken: %s", err)
	}

	return toAppToken(tokenStr)
}
