package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/chauffer-be/shared/logger"
)

func TestStore_SignInIsIdempotent(t *testing.T) {
	store := NewStore(logger.NewNop())

	var events []Event
	store.OnTransition(func(ev Event) { events = append(events, ev) })

	first := store.SignIn(Identity{UserID: testUserID, Email: "a@example.com"})
	second := store.SignIn(Identity{UserID: testUserID, Email: "b@example.com"})

	assert.Same(t, first, second)
	assert.Equal(t, "b@example.com", second.Identity.Email)
	require.Len(t, events, 1)
	assert.Equal(t, SignedIn, events[0].Transition)
	assert.Equal(t, testUserID, events[0].Session.UserID())
}

func TestStore_SignOut(t *testing.T) {
	store := NewStore(logger.NewNop())

	var transitions []Transition
	store.OnTransition(func(ev Event) { transitions = append(transitions, ev.Transition) })

	assert.False(t, store.SignOut(testUserID), "nothing to sign out")

	first := store.SignIn(Identity{UserID: testUserID})
	assert.True(t, store.SignOut(testUserID))

	_, ok := store.Current(testUserID)
	assert.False(t, ok)

	again := store.SignIn(Identity{UserID: testUserID})
	assert.NotEqual(t, first.ID, again.ID, "a new sign-in starts a new session")

	assert.Equal(t, []Transition{SignedIn, SignedOut, SignedIn}, transitions)
}

func TestStore_ObserverMaySignIn(t *testing.T) {
	store := NewStore(logger.NewNop())

	store.OnTransition(func(ev Event) {
		if ev.Transition == SignedOut {
			_, ok := store.Current(ev.Session.UserID())
			assert.False(t, ok)
		}
	})

	store.SignIn(Identity{UserID: testUserID})
	store.SignOut(testUserID)
}

func TestStore_ConcurrentSignIn(t *testing.T) {
	store := NewStore(logger.NewNop())

	var mu sync.Mutex
	signIns := 0
	store.OnTransition(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Transition == SignedIn {
			signIns++
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.SignIn(Identity{UserID: testUserID})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, signIns)
}

func TestTransition_String(t *testing.T) {
	assert.Equal(t, "signed_in", SignedIn.String())
	assert.Equal(t, "signed_out", SignedOut.String())
	assert.Equal(t, "unknown", Transition(0).String())
}
