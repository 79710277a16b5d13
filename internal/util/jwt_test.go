package util

import (
	"compliance_training_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTRoundTrip(t *testing.T) {
	user := &model.User{EmployeeID: "969631", IsAdmin: true}

	token, err := GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "969631", claims.EmployeeID)
	assert.True(t, claims.IsAdmin)
}

func TestParseJWTRejects(t *testing.T) {
	user := &model.User{EmployeeID: "12345"}

	token, err := GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(token, "another-secret-another-secret-000")
	assert.Error(t, err)

	expired, err := GenerateJWT(user, testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, testSecret)
	assert.Error(t, err)

	_, err = ParseJWT("not-a-token", testSecret)
	assert.Error(t, err)
}
