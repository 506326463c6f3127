package directory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/dao"
	"github.com/daoboard/notifier/pkg/directory"
)

func TestMemoryUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	users := directory.NewMemoryUsers(
		directory.User{ID: "u1", Email: "awa@x.com", DisplayName: "Awa", Active: true},
		directory.User{ID: "u2", Email: "moussa@x.com", DisplayName: "Moussa"},
	)

	u, err := users.User(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Awa", u.DisplayName)

	_, err = users.User(ctx, "missing")
	assert.ErrorIs(t, err, directory.ErrUserNotFound)

	u, err = users.ByEmail(ctx, "MOUSSA@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", u.ID)

	active, err := users.ActiveUsers(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	_, err = users.Activate(ctx, "u2")
	require.NoError(t, err)
	active, _ = users.ActiveUsers(ctx)
	assert.Len(t, active, 2)

	created, err := users.Create(ctx, directory.User{Email: "new@x.com", Active: true})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = users.Create(ctx, directory.User{Email: "NEW@x.com"})
	assert.ErrorIs(t, err, directory.ErrUserExists)
}

func TestMemoryRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	records := directory.NewMemoryRecords(dao.Record{ID: "r1", Number: "DAO-2025-001", Team: []dao.Member{{UserID: "u1"}}})

	r, err := records.Record(ctx, "r1")
	require.NoError(t, err)
	r.Team[0].UserID = "mutated"

	again, err := records.Record(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "u1", again.Team[0].UserID)

	records.Delete("r1")
	_, err = records.Record(ctx, "r1")
	assert.ErrorIs(t, err, directory.ErrRecordNotFound)
}
