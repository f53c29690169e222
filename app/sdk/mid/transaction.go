package mid

import (
	"context"
	"net/http"

	"github.com/getorbital/orbital/app/sdk/errs"
	"github.com/getorbital/orbital/business/sdk/unitofwork"
	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/getorbital/orbital/foundation/logger"
)

// Transaction begins one unit of work for the request bound to the resolved
// scope and stages it in the context. An error response rolls the unit back;
// a success response commits it. Handlers that need the row count call
// SaveChanges on the unit before returning.
func Transaction(log *logger.Logger, factory *unitofwork.Factory) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			scope, err := GetScope(ctx)
			if err != nil {
				return errs.New(errs.Internal, err)
			}

			log.Info(ctx, "BEGIN TRANSACTION", "scope", scope)

			uow, err := factory.Begin(ctx, scope)
			if err != nil {
				return errs.Errorf(errs.Internal, "BEGIN TRANSACTION: %s", err)
			}

			defer func() {
				if err := uow.Close(); err != nil {
					log.Info(ctx, "ROLLBACK TRANSACTION", "ERROR", err)
				}
			}()

			ctx = setUOW(ctx, uow)

			resp := next(ctx, r)

			if checkIsError(resp) != nil {
				log.Info(ctx, "ROLLBACK TRANSACTION")
				return resp
			}

			log.Info(ctx, "COMMIT TRANSACTION")
			if err := uow.Commit(); err != nil {
				return errs.Errorf(errs.Internal, "COMMIT TRANSACTION: %s", err)
			}

			return resp
		}

		return h
	}

	return m
}
