package autouser_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/autouser"
	"github.com/daoboard/notifier/pkg/dao"
	"github.com/daoboard/notifier/pkg/directory"
	"github.com/daoboard/notifier/pkg/logger"
	"github.com/daoboard/notifier/pkg/notifications"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Add(ctx context.Context, p notifications.Payload, r notifications.Recipients) (notifications.Notification, error) {
	args := m.Called(ctx, p, r)
	return notifications.Notification{}, args.Error(1)
}

func TestSyncer_Sync(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	users := directory.NewMemoryUsers(
		directory.User{ID: "active", Email: "active@example.com", Active: true},
		directory.User{ID: "idle", Email: "idle@example.com"},
	)
	notifier := &mockNotifier{}
	notifier.On("Add", mock.Anything,
		mock.MatchedBy(func(p notifications.Payload) bool {
			// A record id would mirror the welcome email to the whole team.
			_, teamWide := p.Data[notifications.DataRecordID]
			return p.Type == notifications.TypeUserCreated && !teamWide &&
				p.Data[notifications.DataRecordNumber] == "DAO-2025-001"
		}),
		mock.AnythingOfType("notifications.Recipients"),
	).Return(notifications.Notification{}, nil).Once()

	log := autouser.NewLog()
	s := autouser.NewSyncer(users, log, autouser.WithLogger(logger.Discard()), autouser.WithNotifier(notifier))

	record := dao.Record{
		ID:     "r1",
		Number: "DAO-2025-001",
		Team: []dao.Member{
			{UserID: "a", DisplayName: "Active", Email: "Active@Example.com"},
			{UserID: "b", DisplayName: "Idle", Email: "idle@example.com"},
			{UserID: "c", DisplayName: "New", Email: "new@example.com"},
			{UserID: "d", DisplayName: "Broken", Email: "broken"},
			{UserID: "e", DisplayName: "No email"},
		},
	}
	entries, err := s.Sync(ctx, record)
	require.ErrorIs(t, err, autouser.ErrInvalidEmail)
	require.Len(t, entries, 4)

	actions := make([]autouser.Action, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
		assert.Equal(t, "r1", e.RecordID)
		assert.Contains(t, e.Email, "***")
	}
	assert.Equal(t, []autouser.Action{
		autouser.ActionAlreadyActive,
		autouser.ActionReactivated,
		autouser.ActionCreated,
		autouser.ActionError,
	}, actions)

	u, err := users.ByEmail(ctx, "idle@example.com")
	require.NoError(t, err)
	assert.True(t, u.Active)

	created, err := users.ByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.Equal(t, dao.RoleUser, created.Role)

	assert.Equal(t, 4, log.Len())
	notifier.AssertExpectations(t)

	again, err := s.Sync(ctx, dao.Record{ID: "r1", Team: record.Team[:3]})
	require.NoError(t, err)
	for _, e := range again {
		assert.Equal(t, autouser.ActionAlreadyActive, e.Action)
	}
}
