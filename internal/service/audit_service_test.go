package service

import (
	"context"
	"testing"

	"foodcatalog/internal/events"
	"foodcatalog/internal/model"
	"foodcatalog/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAuditLogs(t *testing.T) {
	store := repotest.NewStore()
	user := seedUser(t, store, "maria", model.RoleFoodProducer)
	products := newProductService(store, &events.Recorder{})
	_, err := products.Create(context.Background(), principalFor(mustFind(t, store, user.Username)), validForm("Apple"))
	require.NoError(t, err)

	logs, total, err := NewAuditService(store.Audit()).GetAuditLogs(context.Background(), AuditLogFilter{})

	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, logs, 1)
	assert.Equal(t, "maria", logs[0].Username)
	assert.Equal(t, model.ActionCreateProduct, logs[0].Action)

	logs, total, err = NewAuditService(store.Audit()).GetAuditLogs(context.Background(), AuditLogFilter{Action: "delete_product"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, logs)
}

func TestGetAuditLogs_DeletedActor(t *testing.T) {
	store := repotest.NewStore()
	user := seedUser(t, store, "maria", model.RoleFoodProducer)
	require.NoError(t, store.Audit().Log(context.Background(), &model.AuditLog{
		UserID: &user.ID, Action: model.ActionChangePassword, EntityID: user.ID.String(),
	}))
	require.NoError(t, store.Users().Delete(context.Background(), user.ID))

	logs, _, err := NewAuditService(store.Audit()).GetAuditLogs(context.Background(), AuditLogFilter{EntityID: user.ID.String()})

	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Deleted account", logs[0].Username)
	assert.Empty(t, logs[0].UserID)
}

func mustFind(t *testing.T, store *repotest.Store, username string) *model.User {
	t.Helper()
	user, err := store.Users().FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return user
}
