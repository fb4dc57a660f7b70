package service

import (
	"placement_test_backend/internal/config"
	"placement_test_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestIssueToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("operator-key"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Auth.APIKeyHash = string(hash)
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpireTime = time.Hour
	svc := NewAuthService(cfg)

	token, err := svc.IssueToken("operator-key")
	require.NoError(t, err)

	claims, err := util.ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Subject)
}

func TestIssueTokenRejectsBadKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("operator-key"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Auth.APIKeyHash = string(hash)
	cfg.JWT.Secret = "test-secret"
	svc := NewAuthService(cfg)

	_, err = svc.IssueToken("wrong-key")
	assert.ErrorIs(t, err, util.ErrInvalidAPIKey)
}

func TestIssueTokenRejectsWhenUnconfigured(t *testing.T) {
	svc := NewAuthService(&config.Config{})
	_, err := svc.IssueToken("anything")
	assert.ErrorIs(t, err, util.ErrInvalidAPIKey)
}
