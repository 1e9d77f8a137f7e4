package service

import (
	"context"
	"testing"

	"foodcatalog/internal/model"
	"foodcatalog/internal/repository/repotest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedDefaultRolesIsIdempotent(t *testing.T) {
	store := repotest.NewStore()
	svc := NewRoleService(store.Roles(), store.Users(), store.Tx(), zerolog.Nop())

	require.NoError(t, svc.SeedDefaultRoles(context.Background()))
	require.NoError(t, svc.SeedDefaultRoles(context.Background()))

	roles, err := store.Roles().ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, roles, 3)
}

func TestEnsureAdministrator(t *testing.T) {
	store := repotest.NewStore()
	svc := NewRoleService(store.Roles(), store.Users(), store.Tx(), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdministrator(ctx, "", ""))
	assert.Error(t, svc.EnsureAdministrator(ctx, "admin", "weak"))

	require.NoError(t, svc.EnsureAdministrator(ctx, "admin", "Adm1nPassword"))
	require.NoError(t, svc.EnsureAdministrator(ctx, "admin", "Adm1nPassword"))

	user, err := store.Users().FindByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleAdministrator}, user.RoleNames())
}
