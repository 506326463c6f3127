package notifications_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/daoboard/notifier/pkg/notifications"
)

func TestMongoStorage(t *testing.T) {
	url := os.Getenv("TEST_MONGODB_URL")
	if url == "" {
		t.Skip("TEST_MONGODB_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(url))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("notifier_test")
	storage := notifications.NewMongoStorage(db, "notifications_"+uuid.NewString()[:8])
	t.Cleanup(func() { _ = storage.Clear(context.Background()) })

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	older := notifications.Notification{
		ID: "n1", Type: notifications.TypeSystem, Title: "older",
		Recipients: notifications.Users("u1"), ReadBy: []string{}, CreatedAt: base,
	}
	newer := notifications.Notification{
		ID: "n2", Type: notifications.TypeDAOCreated, Title: "newer",
		Data:       map[string]any{notifications.DataRecordID: "r1"},
		Recipients: notifications.All(), CreatedAt: base.Add(time.Minute),
	}
	require.NoError(t, storage.Insert(ctx, older))
	require.NoError(t, storage.Insert(ctx, newer))
	require.NoError(t, storage.AddReader(ctx, "u1", "n1", "n2"))
	require.NoError(t, storage.AddReader(ctx, "u1", "n1"))

	got, err := storage.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "n2", got[0].ID)
	assert.True(t, got[0].Recipients.IsAll())
	assert.Equal(t, "r1", got[0].Data[notifications.DataRecordID])
	assert.Equal(t, []string{"u1"}, got[1].ReadBy)
	assert.Equal(t, []string{"u1"}, got[1].Recipients.IDs())

	limited, err := storage.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, storage.Clear(ctx))
	got, err = storage.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
