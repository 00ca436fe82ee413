package v1

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("super-secret", time.Hour)

	tok, err := svc.Issue(42)
	require.NoError(t, err)

	id, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenService_DefaultTTL(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("k", 0)
	assert.Equal(t, DefaultTokenTTL, svc.ttl)
	assert.Equal(t, 7*24*time.Hour, DefaultTokenTTL)
}

func TestTokenService_TamperedSignature(t *testing.T) {
	t.Parallel()

	svc := NewTokenService("right-secret", time.Hour)
	other := NewTokenService("wrong-secret", time.Hour)

	tok, err := svc.Issue(7)
	require.NoError(t, err)
	forged, err := other.Issue(7)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	forgedParts := strings.Split(forged, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + forgedParts[2]

	_, err = svc.Verify(tampered)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Verify(forged)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenService_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenService("k", DefaultTokenTTL)
	issuer.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	verifier := NewTokenService("k", DefaultTokenTTL)

	tok, err := issuer.Issue(1)
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenService_RejectsMalformedAndForeignTokens(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	svc := NewTokenService(string(secret), time.Hour)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	sign := func(method jwt.SigningMethod, claims jwt.RegisteredClaims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
		require.NoError(t, err)
		return s
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1", ExpiresAt: exp}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"empty":              "",
		"garbage":            "not.a.jwt",
		"non-integer sub":    sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp}),
		"zero sub":           sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "0", ExpiresAt: exp}),
		"missing expiry":     sign(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}),
		"other hmac variant": sign(jwt.SigningMethodHS512, jwt.RegisteredClaims{Subject: "1", ExpiresAt: exp}),
		"alg none":           unsigned,
	}

	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			id, err := svc.Verify(tok)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.Zero(t, id)
		})
	}
}
