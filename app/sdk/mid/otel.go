package mid

import (
	"context"
	"net/http"

	"github.com/getorbital/orbital/business/sdk/web"
	"github.com/getorbital/orbital/foundation/otel"
	"go.opentelemetry.io/otel/trace"
)

// Otel injects the tracer into the request context so business layers can
// add their own spans.
func Otel(tracer trace.Tracer) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			ctx = otel.InjectTracing(ctx, tracer)

			return next(ctx, r)
		}

		return h
	}

	return m
}
