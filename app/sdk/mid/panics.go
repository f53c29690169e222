package mid

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/sdk/web"
)

// Panics recovers from panics and converts the panic to an error so it is
// handled in Errors.
func Panics() web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) (resp web.Encoder) {
			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					resp = errs.Errorf(errs.InternalOnlyLog, "PANIC [%v] TRACE[%s]", rec, string(trace))
				}
			}()

			return next(ctx, r)
		}

		return h
	}

	return m
}
