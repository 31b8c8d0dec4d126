package jwt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT(42, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userId, role, err := ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, uint(42), userId)
	require.Equal(t, "admin", role)
}

func TestValidateRejectsTampering(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := GenerateJWT(42, "user")
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "other-secret")
	_, _, err = ValidateToken(token)
	require.Error(t, err)

	_, _, err = ValidateToken("not.a.token")
	require.Error(t, err)
}
