package campus_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-campus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func createEvent(t *testing.T, repo campus.RepositoryManager, creator *campus.User, capacity *int) *campus.Event {
	t.Helper()
	event, err := campus.NewEventService(repo).Create(context.Background(), creator, campus.CreateEventInput{
		Title:     "Hackathon",
		Venue:     "Main hall",
		StartTime: time.Now().Add(24 * time.Hour).Truncate(time.Second),
		Capacity:  capacity,
	})
	require.NoError(t, err)
	return event
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	admin := seedUser(t, repo, "admin", true)
	asha := seedUser(t, repo, "asha", false)
	ravi := seedUser(t, repo, "ravi", false)
	meera := seedUser(t, repo, "meera", false)

	sink := &recordingSink{}
	manager := campus.NewRegistrationManager(repo).WithActivity(sink, nopLogger{})
	event := createEvent(t, repo, admin, intPtr(2))

	t.Run("first registration", func(t *testing.T) {
		reg, err := manager.Register(ctx, asha.ID, event.ID)
		require.NoError(t, err)
		assert.Equal(t, asha.ID, reg.UserID)
		assert.Equal(t, event.ID, reg.EventID)
		assert.False(t, reg.RegisteredAt.IsZero())
	})

	t.Run("duplicate registration", func(t *testing.T) {
		_, err := manager.Register(ctx, asha.ID, event.ID)
		require.Error(t, err)
		assert.True(t, campus.HasTextCode(err, campus.TextCodeAlreadyRegistered))
	})

	t.Run("fills the event", func(t *testing.T) {
		_, err := manager.Register(ctx, ravi.ID, event.ID)
		require.NoError(t, err)

		stored, err := repo.Events().GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.RegisteredCount)
		assert.True(t, stored.IsFull())
		assert.Equal(t, 0, stored.SpotsLeft())
	})

	t.Run("event full", func(t *testing.T) {
		_, err := manager.Register(ctx, meera.ID, event.ID)
		require.Error(t, err)
		assert.True(t, campus.HasTextCode(err, campus.TextCodeEventFull))
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := manager.Register(ctx, meera.ID, uuid.New())
		require.Error(t, err)
		assert.True(t, campus.HasTextCode(err, campus.TextCodeEventNotFound))
	})

	t.Run("unregister frees a spot", func(t *testing.T) {
		require.NoError(t, manager.Unregister(ctx, ravi.ID, event.ID))

		_, err := manager.Register(ctx, meera.ID, event.ID)
		assert.NoError(t, err)
	})

	t.Run("unregister twice", func(t *testing.T) {
		err := manager.Unregister(ctx, ravi.ID, event.ID)
		require.Error(t, err)
		assert.True(t, campus.HasTextCode(err, campus.TextCodeRegistrationNotFound))
	})

	assert.Contains(t, sink.types(), campus.ActivityEventRegistered)
	assert.Contains(t, sink.types(), campus.ActivityEventRegistrationBlocked)
	assert.Contains(t, sink.types(), campus.ActivityEventUnregistered)
}

func TestRegister_UnlimitedCapacity(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	admin := seedUser(t, repo, "admin", true)
	event := createEvent(t, repo, admin, nil)
	manager := campus.NewRegistrationManager(repo)

	for i := 0; i < 5; i++ {
		user := seedUser(t, repo, fmt.Sprintf("student%d", i), false)
		_, err := manager.Register(ctx, user.ID, event.ID)
		require.NoError(t, err)
	}

	stored, err := repo.Events().GetByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.RegisteredCount)
	assert.False(t, stored.IsFull())
	assert.Equal(t, -1, stored.SpotsLeft())
}

func TestRegister_ConcurrentAttemptsRespectCapacity(t *testing.T) {
	ignore := goleak.IgnoreCurrent()
	t.Cleanup(func() { goleak.VerifyNone(t, ignore) })

	ctx := context.Background()
	repo := newTestRepo(t)
	admin := seedUser(t, repo, "admin", true)
	event := createEvent(t, repo, admin, intPtr(1))
	manager := campus.NewRegistrationManager(repo)

	const contenders = 8
	users := make([]*campus.User, contenders)
	for i := range users {
		users[i] = seedUser(t, repo, fmt.Sprintf("contender%d", i), false)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		full      int
		other     []error
	)

	for _, user := range users {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := manager.Register(ctx, id, event.ID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case campus.HasTextCode(err, campus.TextCodeEventFull):
				full++
			default:
				other = append(other, err)
			}
		}(user.ID)
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, contenders-1, full)

	registrants, err := repo.Registrations().ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, registrants, 1)
}

func TestListRegistrants(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	creator := seedUser(t, repo, "creator", true)
	otherAdmin := seedUser(t, repo, "other", true)
	asha := seedUser(t, repo, "asha", false)

	event := createEvent(t, repo, creator, nil)
	manager := campus.NewRegistrationManager(repo)
	_, err := manager.Register(ctx, asha.ID, event.ID)
	require.NoError(t, err)

	t.Run("creator", func(t *testing.T) {
		regs, err := manager.ListRegistrants(ctx, creator, event.ID)
		require.NoError(t, err)
		require.Len(t, regs, 1)
		assert.Equal(t, asha.ID, regs[0].UserID)
	})

	t.Run("other admin", func(t *testing.T) {
		regs, err := manager.ListRegistrants(ctx, otherAdmin, event.ID)
		require.NoError(t, err)
		assert.Len(t, regs, 1)
	})

	t.Run("plain user", func(t *testing.T) {
		_, err := manager.ListRegistrants(ctx, asha, event.ID)
		assert.True(t, campus.IsForbidden(err))
	})

	t.Run("missing event", func(t *testing.T) {
		_, err := manager.ListRegistrants(ctx, creator, uuid.New())
		assert.True(t, campus.HasTextCode(err, campus.TextCodeEventNotFound))
	})

	t.Run("for user", func(t *testing.T) {
		regs, err := manager.ListForUser(ctx, asha.ID)
		require.NoError(t, err)
		require.Len(t, regs, 1)
		assert.Equal(t, event.ID, regs[0].EventID)
	})
}
