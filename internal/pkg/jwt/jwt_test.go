package jwt_test

import (
	"testing"
	"time"

	"booking-core/internal/domain/user"
	"booking-core/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RoundTrip(t *testing.T) {
	svc := jwt.NewService("test-secret", time.Hour)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, user.RoleOperator)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "operator", claims.Role)
}

func TestService_RejectsForeignSignature(t *testing.T) {
	token, err := jwt.NewService("secret-a", time.Hour).GenerateToken(uuid.New(), user.RoleViewer)
	require.NoError(t, err)

	_, err = jwt.NewService("secret-b", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestService_RejectsExpiredToken(t *testing.T) {
	svc := jwt.NewService("test-secret", -time.Minute)

	token, err := svc.GenerateToken(uuid.New(), user.RoleViewer)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrExpiredToken)
}
