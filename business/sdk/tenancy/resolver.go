package tenancy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/getorbital/orbital/business/types/slug"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/getorbital/orbital/foundation/otel"
	"github.com/google/uuid"
)

// Set of errors returned by the resolver.
var (
	ErrNoTenant = errors.New("no tenant resolved for request")
)

// Headers consumed by the header strategy.
const (
	HeaderTenantID         = "X-TenantId"
	HeaderTenantIdentifier = "X-TenantIdentifier"
)

// Strategy identifies the primary resolution strategy.
type Strategy string

// The set of primary strategies that can be configured.
const (
	StrategySubdomain = Strategy("subdomain")
	StrategyPath      = Strategy("path")
	StrategyHeader    = Strategy("header")
)

// ParseStrategy parses a configuration string into a Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch s := Strategy(value); s {
	case StrategySubdomain, StrategyPath, StrategyHeader:
		return s, nil
	}

	return Strategy(""), fmt.Errorf("unknown strategy %q", value)
}

// Claims carries the tenant claims of the authenticated principal, consumed
// as the fallback after the primary strategy. Token validation is an
// external collaborator; only the resolved claim values enter here.
type Claims struct {
	TenantID         string
	TenantIdentifier string
}

// Lookup translates an external identifier into a tenant id. Implemented by
// the tenant business layer so resolution and administration share one
// source of truth for the identifier mapping.
type Lookup interface {
	QueryIDBySlug(ctx context.Context, sl slug.Slug) (uuid.UUID, error)
}

// Config holds the dependencies and policy for a resolver.
type Config struct {
	Log      *logger.Logger
	Lookup   Lookup
	Strategy Strategy

	// PathPrefix is the path segment preceding the tenant reference for the
	// path strategy. Defaults to "/tenant/".
	PathPrefix string

	// DefaultTenantID, when set, is used after the primary strategy and the
	// claims fallback both fail.
	DefaultTenantID uuid.UUID

	// SystemFallback makes an unresolved request produce the system scope
	// instead of failing with ErrNoTenant. Resolution fails closed unless
	// this is set.
	SystemFallback bool
}

// Resolver derives the tenant scope for a request by evaluating the
// configured primary strategy, then the principal's claims, then the
// configured default. The result is a per-request snapshot: callers resolve
// once and carry the Scope for the whole unit of work.
type Resolver struct {
	log            *logger.Logger
	lookup         Lookup
	strategy       Strategy
	pathPrefix     string
	defaultTenant  uuid.UUID
	systemFallback bool
}

// NewResolver constructs a resolver for use.
func NewResolver(cfg Config) (*Resolver, error) {
	if cfg.Lookup == nil {
		return nil, errors.New("lookup is required")
	}

	if _, err := ParseStrategy(string(cfg.Strategy)); err != nil {
		return nil, err
	}

	pathPrefix := cfg.PathPrefix
	if pathPrefix == "" {
		pathPrefix = "/tenant/"
	}

	return &Resolver{
		log:            cfg.Log,
		lookup:         cfg.Lookup,
		strategy:       cfg.Strategy,
		pathPrefix:     pathPrefix,
		defaultTenant:  cfg.DefaultTenantID,
		systemFallback: cfg.SystemFallback,
	}, nil
}

// Resolve derives the tenant scope for the specified request. The fallback
// chain is fixed: primary strategy, claims, configured default. When nothing
// yields a tenant the resolver fails closed with ErrNoTenant unless the
// system fallback was configured explicitly.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request, claims Claims) (Scope, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenancy.resolve")
	defer span.End()

	if scope, ok := r.primary(ctx, req); ok {
		return scope, nil
	}

	if scope, ok := r.fromClaims(ctx, claims); ok {
		return scope, nil
	}

	if r.defaultTenant != uuid.Nil {
		return New(r.defaultTenant), nil
	}

	if r.systemFallback {
		r.log.Warn(ctx, "tenancy: resolution fell through to system scope", "strategy", r.strategy, "host", req.Host)
		return System(), nil
	}

	return Scope{}, ErrNoTenant
}

func (r *Resolver) primary(ctx context.Context, req *http.Request) (Scope, bool) {
	switch r.strategy {
	case StrategySubdomain:
		return r.fromSubdomain(ctx, req)

	case StrategyPath:
		return r.fromPath(ctx, req)

	case StrategyHeader:
		return r.fromHeader(ctx, req)
	}

	return Scope{}, false
}

// fromSubdomain treats the first host label as the candidate identifier.
// Hosts with fewer than three labels have no subdomain to give, and
// "localhost" never yields a tenant.
func (r *Resolver) fromSubdomain(ctx context.Context, req *http.Request) (Scope, bool) {
	host := req.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return Scope{}, false
	}

	return r.resolveIdentifier(ctx, labels[0])
}

// fromPath extracts the segment following the configured prefix, accepting
// either a raw tenant id or an identifier.
func (r *Resolver) fromPath(ctx context.Context, req *http.Request) (Scope, bool) {
	path := req.URL.Path
	if !strings.HasPrefix(path, r.pathPrefix) {
		return Scope{}, false
	}

	segment := strings.TrimPrefix(path, r.pathPrefix)
	if idx := strings.Index(segment, "/"); idx != -1 {
		segment = segment[:idx]
	}

	if segment == "" {
		return Scope{}, false
	}

	if tenantID, err := uuid.Parse(segment); err == nil {
		return New(tenantID), true
	}

	return r.resolveIdentifier(ctx, segment)
}

func (r *Resolver) fromHeader(ctx context.Context, req *http.Request) (Scope, bool) {
	if value := req.Header.Get(HeaderTenantID); value != "" {
		if tenantID, err := uuid.Parse(value); err == nil {
			return New(tenantID), true
		}
	}

	if value := req.Header.Get(HeaderTenantIdentifier); value != "" {
		return r.resolveIdentifier(ctx, value)
	}

	return Scope{}, false
}

func (r *Resolver) fromClaims(ctx context.Context, claims Claims) (Scope, bool) {
	if claims.TenantID != "" {
		if tenantID, err := uuid.Parse(claims.TenantID); err == nil {
			return New(tenantID), true
		}
	}

	if claims.TenantIdentifier != "" {
		return r.resolveIdentifier(ctx, claims.TenantIdentifier)
	}

	return Scope{}, false
}

// resolveIdentifier translates a candidate identifier into a tenant id. A
// candidate that doesn't parse as a slug or has no mapping leaves the chain
// to continue with the next fallback.
func (r *Resolver) resolveIdentifier(ctx context.Context, candidate string) (Scope, bool) {
	sl, err := slug.Parse(candidate)
	if err != nil {
		return Scope{}, false
	}

	tenantID, err := r.lookup.QueryIDBySlug(ctx, sl)
	if err != nil {
		r.log.Debug(ctx, "tenancy: identifier lookup failed", "identifier", sl, "err", err)
		return Scope{}, false
	}

	return NewWithIdentifier(tenantID, sl.String()), true
}
