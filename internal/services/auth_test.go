package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/resourcehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	as, err := NewAuthService(logger.Nop(), "test-secret")
	require.NoError(t, err)

	user := uuid.New()
	token, err := as.IssueToken(user, ctxutil.RoleAdmin, time.Minute)
	require.NoError(t, err)

	ctx, err := as.SetContextFromToken(context.Background(), token)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(ctx)
	require.NotNil(t, rd)
	assert.Equal(t, user, rd.UserID)
	assert.True(t, rd.Privileged())
}

func TestAuthServiceRejectsForeignSignature(t *testing.T) {
	issuer, _ := NewAuthService(logger.Nop(), "other-secret")
	token, err := issuer.IssueToken(uuid.New(), "", time.Minute)
	require.NoError(t, err)

	as, _ := NewAuthService(logger.Nop(), "test-secret")
	_, err = as.SetContextFromToken(context.Background(), token)
	assert.Error(t, err)
}

func TestAuthServiceTTLFallbackAndMalformedToken(t *testing.T) {
	as, _ := NewAuthService(logger.Nop(), "test-secret")
	token, err := as.IssueToken(uuid.New(), "", -time.Minute)
	require.NoError(t, err)
	// Non-positive ttl falls back to an hour, so the token is still valid.
	_, err = as.SetContextFromToken(context.Background(), token)
	assert.NoError(t, err)

	_, err = as.SetContextFromToken(context.Background(), "not-a-jwt")
	assert.Error(t, err)
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	_, err := NewAuthService(logger.Nop(), " ")
	assert.Error(t, err)
}
