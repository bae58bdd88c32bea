package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synergysphere/backend/domain"
)

func TestIssueAndVerify(t *testing.T) {
	svc := New("test-secret", "synergysphere", time.Hour)

	signed, err := svc.Issue("user-1", "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.SubjectID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed, err := New("secret-a", "synergysphere", time.Hour).Issue("user-1", "user@example.com")
	require.NoError(t, err)

	_, err = New("secret-b", "synergysphere", time.Hour).Verify(signed)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTokenInvalid))
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := New("test-secret", "synergysphere", time.Hour)

	// Issue never produces an expired token, so sign one directly with
	// a past exp claim.
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   "user-1",
		"email": "user@example.com",
		"iss":   "synergysphere",
		"iat":   now.Add(-time.Hour).Unix(),
		"exp":   now.Add(-time.Minute).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeTokenInvalid))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := New("test-secret", "synergysphere", time.Hour)

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(input)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeTokenInvalid), "input %q", input)
	}
}

func TestOpaqueTokens(t *testing.T) {
	a := Opaque()
	b := Opaque()

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
