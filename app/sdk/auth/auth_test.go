package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"testing"

	"github.com/getorbital/orbital/app/sdk/auth"
	"github.com/getorbital/orbital/business/sdk/tenancy"
	"github.com/getorbital/orbital/foundation/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type keyStub struct {
	keys map[string]*rsa.PrivateKey
}

func (ks keyStub) PrivateKey(kid string) (string, error) {
	pk, exists := ks.keys[kid]
	if !exists {
		return "", fmt.Errorf("kid %q not found", kid)
	}

	block := pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(pk),
	}

	return string(pem.EncodeToMemory(&block)), nil
}

func (ks keyStub) PublicKey(kid string) (string, error) {
	pk, exists := ks.keys[kid]
	if !exists {
		return "", fmt.Errorf("kid %q not found", kid)
	}

	asn1, err := x509.MarshalPKIXPublicKey(&pk.PublicKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}

	block := pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: asn1,
	}

	return string(pem.EncodeToMemory(&block)), nil
}

func newAuth(t *testing.T, kid string) *auth.Auth {
	t.Helper()

	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	return auth.New(auth.Config{
		Log:       log,
		KeyLookup: keyStub{keys: map[string]*rsa.PrivateKey{kid: pk}},
		Issuer:    "https://getorbital.io/auth/",
	})
}

func Test_Auth_RoundTrip(t *testing.T) {
	const kid = "test-key"

	a := newAuth(t, kid)
	ctx := context.Background()

	userID := uuid.New()
	tenantID := uuid.New()

	token, err := a.GenerateToken(kid, userID, tenancy.New(tenantID))
	require.NoError(t, err)

	claims, err := a.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)
	require.Equal(t, userID.String(), claims.Subject)
	require.Equal(t, tenantID.String(), claims.TenantID)

	// System scope tokens carry no tenant claim.
	token, err = a.GenerateToken(kid, userID, tenancy.System())
	require.NoError(t, err)

	claims, err = a.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)
	require.Empty(t, claims.TenantID)
}

func Test_Auth_Rejections(t *testing.T) {
	const kid = "test-key"

	a := newAuth(t, kid)
	ctx := context.Background()

	token, err := a.GenerateToken(kid, uuid.New(), tenancy.New(uuid.New()))
	require.NoError(t, err)

	// Missing the Bearer prefix.
	_, err = a.Authenticate(ctx, token)
	require.Error(t, err)

	// A token signed with an unknown key.
	_, err = a.GenerateToken("other-key", uuid.New(), tenancy.System())
	require.Error(t, err)

	// A tampered payload fails signature verification.
	_, err = a.Authenticate(ctx, "Bearer "+token[:len(token)-4]+"aaaa")
	require.Error(t, err)

	// Tokens signed by another authority's key are rejected.
	other := newAuth(t, kid)
	foreign, err := other.GenerateToken(kid, uuid.New(), tenancy.System())
	require.NoError(t, err)

	_, err = a.Authenticate(ctx, "Bearer "+foreign)
	require.Error(t, err)
}
