package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"careguide/internal/domain/entity"
	"careguide/internal/usecase"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProfileReader is the ordinary profile read path.
type ProfileReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
}

// Snapshot is an immutable view of the store. Pointers in it are private
// copies and may be kept by the receiver.
type Snapshot struct {
	User    *User
	Session *Session
	Profile *entity.Profile
	Loading bool
}

// Role of the signed-in user, empty while no profile is loaded.
func (s Snapshot) Role() entity.Role {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}

type FlashVariant string

const (
	FlashDefault     FlashVariant = "default"
	FlashDestructive FlashVariant = "destructive"
)

// Flash is a transient notification shown once on the next page.
type Flash struct {
	Title       string
	Description string
	Variant     FlashVariant
}

// SignUpData is attached to a new identity and copied into its profile.
type SignUpData struct {
	FullName string
	Role     entity.Role
}

// Store is the session context of one tab. Pages read snapshots and call
// the actions; all state changes go through the auth client events.
type Store struct {
	client   *AuthClient
	profiles ProfileReader
	log      *logrus.Logger

	initOnce sync.Once
	initErr  error
	sub      *Subscription

	mu         sync.RWMutex
	state      Snapshot
	generation uint64

	subsMu sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int

	flashMu sync.Mutex
	flashes []Flash

	lastUsed atomic.Int64
}

func NewStore(client *AuthClient, profiles ProfileReader, log *logrus.Logger) *Store {
	s := &Store{
		client:   client,
		profiles: profiles,
		log:      log,
		state:    Snapshot{Loading: true},
		subs:     make(map[int]func(Snapshot)),
	}
	s.touch()
	return s
}

// Init subscribes to auth events and restores the existing session. It runs
// once; later calls return the first result.
func (s *Store) Init(ctx context.Context) error {
	s.initOnce.Do(func() {
		s.sub = s.client.OnAuthStateChange(s.handleAuthEvent)
		s.initErr = s.client.Initialize(ctx)
		if s.initErr != nil {
			s.mu.Lock()
			s.state.Loading = false
			snap := s.snapshotLocked()
			s.mu.Unlock()
			s.publish(snap)
		}
	})
	return s.initErr
}

func (s *Store) Snapshot() Snapshot {
	s.touch()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Loading: s.state.Loading}
	if s.state.User != nil {
		u := *s.state.User
		snap.User = &u
	}
	snap.Session = copySession(s.state.Session)
	snap.Profile = copyProfile(s.state.Profile)
	return snap
}

// Subscribe registers fn for every state change and returns the function
// that removes it.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) publish(snap Snapshot) {
	s.subsMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// handleAuthEvent applies a session change. The profile is fetched before
// the new state is published; a result that arrives after a newer event
// has been handled is dropped.
func (s *Store) handleAuthEvent(ctx context.Context, event Event, session *Session) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	keepProfile := event == EventTokenRefreshed && session != nil &&
		s.state.Profile != nil && s.state.Profile.UserID == session.User.ID
	s.mu.Unlock()

	var profile *entity.Profile
	if session != nil && !keepProfile {
		profile = s.fetchProfile(ctx, session.User.ID)
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.log.WithField("event", event).Debug("Discarding superseded session update")
		return
	}
	s.state.Session = copySession(session)
	if session != nil {
		u := session.User
		s.state.User = &u
		if !keepProfile {
			s.state.Profile = profile
		}
	} else {
		s.state.User = nil
		s.state.Profile = nil
	}
	s.state.Loading = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
}

// fetchProfile never fails the session change: a missing profile is
// expected for new accounts and other errors leave the profile empty.
func (s *Store) fetchProfile(ctx context.Context, userID uuid.UUID) *entity.Profile {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, usecase.ErrProfileNotFound) {
			s.log.WithField("user_id", userID).Debug("No profile for user yet")
		} else {
			s.log.WithField("user_id", userID).Warnf("Failed to fetch profile: %+v", err)
		}
		return nil
	}
	return copyProfile(profile)
}

// RefreshProfile reloads the profile of the signed-in user, for example
// after it was edited.
func (s *Store) RefreshProfile(ctx context.Context) {
	snap := s.Snapshot()
	if snap.User == nil {
		return
	}
	s.handleAuthEvent(ctx, EventUserUpdated, snap.Session)
}

// AccessToken returns a usable access token for the current session,
// refreshing it first when it has expired.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	s.touch()
	session, err := s.client.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrNoSession
	}
	return session.AccessToken, nil
}

func (s *Store) SignInWithEmail(ctx context.Context, email, password string) error {
	s.touch()
	if err := s.client.SignInWithPassword(ctx, email, password); err != nil {
		s.AddFlash(Flash{Title: "Login Failed", Description: providerMessage(err), Variant: FlashDestructive})
		return err
	}
	return nil
}

func (s *Store) SignUpWithEmail(ctx context.Context, email, password string, data SignUpData) error {
	s.touch()
	resp, err := s.client.SignUp(ctx, email, password, data.FullName, data.Role)
	if err != nil {
		s.AddFlash(Flash{Title: "Registration Failed", Description: providerMessage(err), Variant: FlashDestructive})
		return err
	}

	description := "Please check your email to verify your account."
	if !resp.ConfirmationRequired {
		description = "Your account is ready. You can sign in now."
	}
	s.AddFlash(Flash{Title: "Registration Successful", Description: description, Variant: FlashDefault})
	return nil
}

// SignOut always ends the local session, whatever the provider answers.
func (s *Store) SignOut(ctx context.Context) {
	s.touch()
	err := s.client.SignOut(ctx)
	if err != nil {
		s.log.Warnf("Failed to revoke session with provider: %+v", err)
	}

	// The client already emitted SIGNED_OUT; this covers a client that had
	// no session of its own.
	s.mu.Lock()
	s.generation++
	cleared := s.state.User != nil || s.state.Profile != nil || s.state.Session != nil
	s.state = Snapshot{}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if cleared {
		s.publish(snap)
	}
}

func (s *Store) UpdatePassword(ctx context.Context, password, confirm string) error {
	s.touch()
	err := s.client.UpdatePassword(ctx, password, confirm)
	if err != nil {
		s.AddFlash(Flash{Title: "Update Failed", Description: providerMessage(err), Variant: FlashDestructive})
		return err
	}
	s.AddFlash(Flash{Title: "Password Updated", Description: "Your password has been changed.", Variant: FlashDefault})
	return nil
}

func (s *Store) AddFlash(f Flash) {
	s.flashMu.Lock()
	s.flashes = append(s.flashes, f)
	s.flashMu.Unlock()
}

// DrainFlashes returns the queued notifications and empties the queue.
func (s *Store) DrainFlashes() []Flash {
	s.flashMu.Lock()
	defer s.flashMu.Unlock()
	out := s.flashes
	s.flashes = nil
	return out
}

// Close detaches the store from its auth client.
func (s *Store) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	s.subsMu.Lock()
	s.subs = make(map[int]func(Snapshot))
	s.subsMu.Unlock()
}

func (s *Store) touch() {
	s.lastUsed.Store(time.Now().UnixNano())
}

func (s *Store) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

func copyProfile(p *entity.Profile) *entity.Profile {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

// providerMessage maps provider errors to the text shown to the user.
func providerMessage(err error) string {
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return "Invalid login credentials"
	case errors.Is(err, usecase.ErrEmailNotConfirmed):
		return "Email not confirmed"
	case errors.Is(err, usecase.ErrEmailAlreadyExists):
		return "User already registered"
	case errors.Is(err, usecase.ErrPasswordTooShort), errors.Is(err, usecase.ErrPasswordMismatch):
		return capitalize(err.Error())
	case errors.Is(err, entity.ErrInvalidRole):
		return capitalize(err.Error())
	case errors.Is(err, ErrNoSession):
		return "You are not signed in"
	}
	return "Something went wrong. Please try again."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
