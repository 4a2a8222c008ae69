package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-purposes"

func TestGenerateAndValidateToken(t *testing.T) {
	service := NewService(testSecret, time.Hour)
	operatorID := uuid.New()

	token, expiresAt, err := service.GenerateToken(operatorID, "counter-01")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, operatorID, claims.OperatorID)
	assert.Equal(t, "counter-01", claims.Username)
	assert.Equal(t, operatorID.String(), claims.Subject)
}

func TestValidateToken_Invalid(t *testing.T) {
	service := NewService(testSecret, time.Hour)

	_, err := service.ValidateToken("not.a.token")
	assert.Error(t, err)

	// Token signed with a different secret
	other := NewService("completely-different-secret", time.Hour)
	token, _, err := other.GenerateToken(uuid.New(), "counter-02")
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	service := NewService(testSecret, -time.Minute)
	token, _, err := service.GenerateToken(uuid.New(), "counter-03")
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Error(t, err)
}
