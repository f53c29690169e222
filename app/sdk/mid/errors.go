package mid

import (
	"context"
	"net/http"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/getorbital/orbital/foundation/logger"
)

// Errors handles errors coming out of the call chain. Unexpected errors are
// masked before leaving the service; coded errors pass through as they are.
func Errors(log *logger.Logger) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			resp := next(ctx, r)

			err := checkIsError(resp)
			if err == nil {
				return resp
			}

			appErr := errs.GetError(err)
			if !errs.IsError(err) {
				appErr = errs.New(errs.Internal, err)
			}

			log.Error(ctx, "handled error during request",
				"err", err, "source_err_file", appErr.FileName, "source_err_func", appErr.FuncName)

			if appErr.Code == errs.InternalOnlyLog {
				appErr = errs.Newf(errs.Internal, "internal error")
			}

			return appErr
		}

		return h
	}

	return m
}
