package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/tailorshop/config"
	"github.com/d60-Lab/tailorshop/internal/model"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, RegisterInput{
		Username: "meera",
		Email:    "meera@shop.test",
		Password: "correct-horse",
		FullName: "Meera S",
		Roles:    []string{model.RoleTailor},
	})
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	token, got, err := env.users.Authenticate(ctx, "meera", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := env.users.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, []string{model.RoleTailor}, claims.Roles)
	assert.False(t, claims.IsSuperuser)

	_, _, err = env.users.Authenticate(ctx, "meera", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	_, _, err = env.users.Authenticate(ctx, "nobody", "correct-horse")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, RegisterInput{
		Username: "arun", Email: "arun@shop.test", Password: "password123",
	})
	require.NoError(t, err)
	token, _, err := env.users.Authenticate(ctx, "arun", "password123")
	require.NoError(t, err)

	other := NewUserService(env.db, config.JWTConfig{Secret: "different", TTL: time.Hour})
	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestGrantRoleIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, RegisterInput{
		Username: "dev", Email: "dev@shop.test", Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, env.users.GrantRole(ctx, user.ID, model.RoleStaff))
	require.NoError(t, env.users.GrantRole(ctx, user.ID, model.RoleStaff))
	require.NoError(t, env.users.GrantRole(ctx, user.ID, model.RoleDelivery))

	roles, err := env.users.RolesOf(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{model.RoleStaff, model.RoleDelivery}, roles)

	actor, err := env.users.ActorFor(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{model.RoleStaff, model.RoleDelivery}, actor.Roles)
}
