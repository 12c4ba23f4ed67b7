package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"careguide/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFixture struct {
	provider *fakeProvider
	storage  *memoryStorage
	profiles *fakeProfiles
	client   *AuthClient
	store    *Store
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	f := &storeFixture{
		provider: newFakeProvider(),
		storage:  newMemoryStorage(),
		profiles: &fakeProfiles{profiles: make(map[uuid.UUID]*entity.Profile)},
	}
	name := "Jane Doe"
	f.profiles.profiles[f.provider.userID] = &entity.Profile{
		ID:       uuid.New(),
		UserID:   f.provider.userID,
		FullName: &name,
		Email:    f.provider.email,
		Role:     entity.RoleDoctor,
	}
	f.client = NewAuthClient("tab-1", f.provider, f.storage, newTestLogger(), "http://localhost:8080/")
	f.store = NewStore(f.client, f.profiles, newTestLogger())
	return f
}

func TestStoreStartsLoading(t *testing.T) {
	f := newStoreFixture(t)

	assert.True(t, f.store.Snapshot().Loading)

	require.NoError(t, f.store.Init(context.Background()))
	snap := f.store.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.User)
	assert.Nil(t, snap.Profile)
}

func TestSignInLoadsProfile(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))

	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))

	snap := f.store.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, f.provider.userID, snap.User.ID)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, entity.RoleDoctor, snap.Role())
	assert.NotEmpty(t, snap.Session.AccessToken)
}

func TestSignInFailureAddsFlash(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))

	err := f.store.SignInWithEmail(ctx, "jane@example.com", "wrong")
	require.Error(t, err)

	flashes := f.store.DrainFlashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, "Login Failed", flashes[0].Title)
	assert.Equal(t, "Invalid login credentials", flashes[0].Description)
	assert.Equal(t, FlashDestructive, flashes[0].Variant)
	assert.Empty(t, f.store.DrainFlashes())
	assert.Nil(t, f.store.Snapshot().User)
}

func TestSignInWithoutProfile(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	delete(f.profiles.profiles, f.provider.userID)
	require.NoError(t, f.store.Init(ctx))

	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))

	snap := f.store.Snapshot()
	assert.NotNil(t, snap.User)
	assert.Nil(t, snap.Profile)
	assert.False(t, snap.Loading)
}

func TestProfileFetchErrorDoesNotBlockSignIn(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	f.profiles.err = errNetwork
	require.NoError(t, f.store.Init(ctx))

	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))

	snap := f.store.Snapshot()
	assert.NotNil(t, snap.User)
	assert.Nil(t, snap.Profile)
}

func TestSignOutClearsStateWhenProviderFails(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))
	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))

	f.provider.signOutErr = errNetwork
	f.store.SignOut(ctx)

	snap := f.store.Snapshot()
	assert.Nil(t, snap.User)
	assert.Nil(t, snap.Session)
	assert.Nil(t, snap.Profile)

	stored, err := f.storage.Load(ctx, "tab-1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSessionRestoredFromStorage(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))
	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))

	// A fresh client for the same tab, as after a restart.
	client := NewAuthClient("tab-1", f.provider, f.storage, newTestLogger(), "")
	store := NewStore(client, f.profiles, newTestLogger())
	require.NoError(t, store.Init(ctx))

	snap := store.Snapshot()
	require.NotNil(t, snap.User)
	assert.Equal(t, f.provider.userID, snap.User.ID)
	assert.NotNil(t, snap.Profile)
}

func TestExpiredSessionIsRefreshedOnRestore(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))
	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))
	old := f.store.Snapshot().Session
	f.provider.expired[old.AccessToken] = true

	client := NewAuthClient("tab-1", f.provider, f.storage, newTestLogger(), "")
	var events []Event
	client.OnAuthStateChange(func(ctx context.Context, e Event, s *Session) { events = append(events, e) })

	session, err := client.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.NotEqual(t, old.AccessToken, session.AccessToken)
	assert.Equal(t, []Event{EventTokenRefreshed}, events)
}

func TestRevokedSessionIsDropped(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.storage.Save(ctx, "tab-1", &Session{AccessToken: "stale", RefreshToken: "stale", ExpiresAt: time.Now().Add(time.Hour)}))

	require.NoError(t, f.store.Init(ctx))

	assert.Nil(t, f.store.Snapshot().User)
	stored, err := f.storage.Load(ctx, "tab-1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))

	var mu sync.Mutex
	var seen []Snapshot
	unsubscribe := f.store.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))
	unsubscribe()
	unsubscribe()
	f.store.SignOut(ctx)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.NotNil(t, seen[0].User)
	assert.NotNil(t, seen[0].Profile)
}

func TestSnapshotIsACopy(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))
	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))

	snap := f.store.Snapshot()
	snap.Profile.Role = entity.RoleAdmin
	snap.User.Email = "changed@example.com"

	again := f.store.Snapshot()
	assert.Equal(t, entity.RoleDoctor, again.Profile.Role)
	assert.Equal(t, "jane@example.com", again.User.Email)
}

func TestStaleProfileFetchIsDiscarded(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))

	f.profiles.block = make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.store.SignInWithEmail(ctx, "jane@example.com", "secret1")
	}()

	// Let the sign-in reach the profile fetch, then sign out underneath it.
	require.Eventually(t, func() bool {
		f.store.mu.RLock()
		defer f.store.mu.RUnlock()
		return f.store.generation >= 2
	}, time.Second, time.Millisecond)

	f.provider.signOutErr = errNetwork
	f.store.SignOut(ctx)
	close(f.profiles.block)
	<-done

	snap := f.store.Snapshot()
	assert.Nil(t, snap.User)
	assert.Nil(t, snap.Profile)
}

func TestSignUpWithEmail(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	err := f.store.SignUpWithEmail(ctx, "new@example.com", "secret1", SignUpData{FullName: "Dr. New", Role: entity.RoleDoctor})
	require.NoError(t, err)

	require.Len(t, f.provider.signUps, 1)
	req := f.provider.signUps[0]
	assert.Equal(t, "doctor", req.Role)
	assert.Equal(t, "Dr. New", req.FullName)
	assert.Equal(t, "http://localhost:8080/", req.RedirectTo)

	flashes := f.store.DrainFlashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, "Registration Successful", flashes[0].Title)
	assert.Equal(t, "Please check your email to verify your account.", flashes[0].Description)

	// no session until the address is confirmed
	assert.Nil(t, f.store.Snapshot().User)
}

func TestSignUpDuplicate(t *testing.T) {
	f := newStoreFixture(t)

	err := f.store.SignUpWithEmail(context.Background(), "jane@example.com", "secret1", SignUpData{Role: entity.RoleDoctor})
	require.Error(t, err)

	flashes := f.store.DrainFlashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, "Registration Failed", flashes[0].Title)
	assert.Equal(t, "User already registered", flashes[0].Description)
}

func TestUpdatePassword(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))

	err := f.store.UpdatePassword(ctx, "newsecret", "newsecret")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))
	f.store.DrainFlashes()

	require.NoError(t, f.store.UpdatePassword(ctx, "newsecret", "newsecret"))
	assert.Equal(t, []string{"newsecret"}, f.provider.passwords)

	flashes := f.store.DrainFlashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, "Password Updated", flashes[0].Title)

	err = f.store.UpdatePassword(ctx, "newsecret", "other")
	require.Error(t, err)
	flashes = f.store.DrainFlashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, "Passwords do not match", flashes[0].Description)
}

func TestRefreshProfile(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))
	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))

	city := "Austin"
	f.profiles.profiles[f.provider.userID].City = &city
	f.store.RefreshProfile(ctx)

	snap := f.store.Snapshot()
	require.NotNil(t, snap.Profile.City)
	assert.Equal(t, "Austin", *snap.Profile.City)
}

func TestSubscriptionUnsubscribe(t *testing.T) {
	client := NewAuthClient("tab", newFakeProvider(), newMemoryStorage(), newTestLogger(), "")
	calls := 0
	sub := client.OnAuthStateChange(func(ctx context.Context, e Event, s *Session) { calls++ })

	require.NoError(t, client.Initialize(context.Background()))
	sub.Unsubscribe()
	sub.Unsubscribe()
	require.NoError(t, client.Initialize(context.Background()))

	assert.Equal(t, 1, calls)
}

func TestAccessToken(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Init(ctx))

	_, err := f.store.AccessToken(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, f.store.SignInWithEmail(ctx, "jane@example.com", "secret1"))
	token, err := f.store.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, f.store.Snapshot().Session.AccessToken, token)
}
