package service

import (
	"context"
	"testing"
	"time"

	"foodcatalog/internal/auth"
	"foodcatalog/internal/model"
	"foodcatalog/internal/repository/repotest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testPassword = "Passw0rd"

func newTokens() *auth.TokenManager {
	return auth.NewTokenManager([]byte("test-secret"), time.Hour, "foodcatalog-test")
}

// seedUser stores an account with the given roles and returns it
func seedUser(t *testing.T, store *repotest.Store, username string, roles ...string) *model.User {
	t.Helper()
	ctx := context.Background()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)

	user := &model.User{Username: username, PasswordHash: hash}
	require.NoError(t, store.Users().Create(ctx, user))
	require.NoError(t, store.Users().AddToRoles(ctx, user.ID, roles))
	return user
}

func principalFor(user *model.User) *auth.Principal {
	return &auth.Principal{UserID: user.ID, Username: user.Username, Roles: user.RoleNames()}
}

func principalWith(roles ...string) *auth.Principal {
	return &auth.Principal{UserID: uuid.New(), Username: "caller", Roles: roles}
}

func validationMessages(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Messages()
}
