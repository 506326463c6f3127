package autouser_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/autouser"
)

func TestLog_MasksEmail(t *testing.T) {
	t.Parallel()

	l := autouser.NewLog()
	stored := l.Append(autouser.Entry{Action: autouser.ActionCreated, Email: "awa.diop@example.com"})

	assert.Equal(t, "a***@example.com", stored.Email)
	assert.False(t, stored.Time.IsZero())

	list := l.List()
	require.Len(t, list, 1)
	assert.NotContains(t, list[0].Email, "awa.diop")
}

func TestLog_Ring(t *testing.T) {
	t.Parallel()

	l := autouser.NewLog()
	for i := range autouser.Capacity + 5 {
		l.Append(autouser.Entry{Action: autouser.ActionCreated, Message: fmt.Sprint(i)})
	}

	list := l.List()
	require.Len(t, list, autouser.Capacity)
	assert.Equal(t, fmt.Sprint(autouser.Capacity+4), list[0].Message)
	assert.Equal(t, "5", list[len(list)-1].Message)

	assert.Equal(t, autouser.Capacity, l.Clear())
	assert.Empty(t, l.List())
	assert.Zero(t, l.Len())

	l.Append(autouser.Entry{Action: autouser.ActionError})
	assert.Equal(t, 1, l.Len())
}

func TestLog_ConcurrentAppend(t *testing.T) {
	t.Parallel()

	l := autouser.NewLog()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(autouser.Entry{Action: autouser.ActionAlreadyActive, Email: "x@example.com"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, l.Len())
}
