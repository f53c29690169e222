// Package auth provides authentication support via RS256 signed JWTs. The
// claims carry the tenant the token was issued under; authorization itself
// is resolved dynamically against the permission bus, not from the token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/getorbital/orbital/business/domain/userbus"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Set of errors for auth operations.
var (
	ErrKIDMissing   = errors.New("kid missing from token header")
	ErrKIDMalformed = errors.New("kid in token header is malformed")
	ErrUserDisabled = errors.New("user is disabled")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	TenantID         string `json:"tenant_id,omitempty"`
	TenantIdentifier string `json:"tenant_identifier,omitempty"`
}

// KeyLookup declares a method set of behavior for looking up private and
// public keys for JWT use.
type KeyLookup interface {
	PrivateKey(kid string) (key string, err error)
	PublicKey(kid string) (key string, err error)
}

// Config represents information required to initialize auth.
type Config struct {
	Log       *logger.Logger
	UserBus   *userbus.Core
	KeyLookup KeyLookup
	Issuer    string
}

// Auth is used to authenticate clients.
type Auth struct {
	log       *logger.Logger
	keyLookup KeyLookup
	userBus   *userbus.Core
	method    jwt.SigningMethod
	parser    *jwt.Parser
	issuer    string
}

// New creates an Auth to support authentication/authorization.
func New(cfg Config) *Auth {
	return &Auth{
		log:       cfg.Log,
		keyLookup: cfg.KeyLookup,
		userBus:   cfg.UserBus,
		method:    jwt.GetSigningMethod(jwt.SigningMethodRS256.Name),
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name})),
		issuer:    cfg.Issuer,
	}
}

// Issuer provides the configured issuer used to authenticate tokens.
func (a *Auth) Issuer() string {
	return a.issuer
}

// GenerateToken generates a signed JWT token string representing the user
// claims, bound to the tenant the user authenticated under.
func (a *Auth) GenerateToken(kid string, userID uuid.UUID, scope tenancy.Scope) (string, error) {
	var tid string
	if !scope.IsSystem() {
		tid = scope.TenantID().String()
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    a.issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		TenantID:         tid,
		TenantIdentifier: scope.Identifier(),
	}

	token := jwt.NewWithClaims(a.method, claims)
	token.Header["kid"] = kid

	privateKeyPEM, err := a.keyLookup.PrivateKey(kid)
	if err != nil {
		return "", fmt.Errorf("private key: %w", err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("parsing private key from PEM: %w", err)
	}

	str, err := token.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return str, nil
}

// Authenticate processes the token to validate the sender's token is valid.
func (a *Auth) Authenticate(ctx context.Context, bearerToken string) (Claims, error) {
	if !strings.HasPrefix(bearerToken, "Bearer ") {
		return Claims{}, errors.New("expected authorization header format: Bearer <token>")
	}

	jwtUnverified := bearerToken[7:]

	var claims Claims
	token, _, err := a.parser.ParseUnverified(jwtUnverified, &claims)
	if err != nil {
		return Claims{}, fmt.Errorf("error parsing token: %w", err)
	}

	kidRaw, exists := token.Header["kid"]
	if !exists {
		return Claims{}, ErrKIDMissing
	}

	kid, ok := kidRaw.(string)
	if !ok {
		return Claims{}, ErrKIDMalformed
	}

	pem, err := a.keyLookup.PublicKey(kid)
	if err != nil {
		return Claims{}, fmt.Errorf("fetching public key for kid %q: %w", kid, err)
	}

	if err := a.verifySignatureAndClaims(jwtUnverified, pem); err != nil {
		a.log.Info(ctx, "authenticate failed", "userID", claims.Subject)
		return Claims{}, fmt.Errorf("authentication failed: %w", err)
	}

	if err := a.isUserEnabled(ctx, claims); err != nil {
		return Claims{}, fmt.Errorf("user enabled check: %w", err)
	}

	return claims, nil
}

// verifySignatureAndClaims validates the token signature and the registered
// claims against the configured issuer.
func (a *Auth) verifySignatureAndClaims(tokenStr string, pem string) error {
	keyFunc := func(t *jwt.Token) (any, error) {
		return jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("parsing token: %w", err)
	}

	if !token.Valid {
		return errors.New("invalid token")
	}

	return nil
}

// isUserEnabled verifies the subject still exists and is enabled inside the
// tenant the token was issued under.
func (a *Auth) isUserEnabled(ctx context.Context, claims Claims) error {
	if a.userBus == nil {
		return nil
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return fmt.Errorf("parse subject: %w", err)
	}

	scope := tenancy.System()
	if claims.TenantID != "" {
		tid, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return fmt.Errorf("parse tenant id: %w", err)
		}
		scope = tenancy.New(tid)
	}

	usr, err := a.userBus.QueryByID(ctx, scope, userID)
	if err != nil {
		return fmt.Errorf("query user: %w", err)
	}

	if !usr.Enabled {
		return ErrUserDisabled
	}

	return nil
}
