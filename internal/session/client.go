// Package session keeps the signed-in state of one browser tab: the auth
// client that talks to the provider, the store pages read from, and the
// registry that owns a store per tab.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"careguide/internal/delivery/dto"
	"careguide/internal/domain/entity"
	"careguide/internal/usecase"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"
)

type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

func (s *Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Provider is the auth provider as seen by a tab.
type Provider interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error)
	SignInWithPassword(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	SignOut(ctx context.Context, accessToken, refreshToken string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetUser(ctx context.Context, accessToken string) (*entity.Principal, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, req *dto.UpdatePasswordRequest) error
}

// Storage persists the session of a tab across requests and restarts.
type Storage interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, id string, session *Session) error
	Delete(ctx context.Context, id string) error
}

// Listener is called with every auth state change. Listeners run in the
// goroutine that caused the change and are awaited.
type Listener func(ctx context.Context, event Event, session *Session)

type Subscription struct {
	once        sync.Once
	unsubscribe func()
}

func (s *Subscription) Unsubscribe() {
	s.once.Do(s.unsubscribe)
}

var ErrNoSession = errors.New("no active session")

// AuthClient is the provider client of a single tab.
type AuthClient struct {
	id         string
	provider   Provider
	storage    Storage
	log        *logrus.Logger
	redirectTo string
	now        func() time.Time

	mu      sync.Mutex
	session *Session

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

func NewAuthClient(id string, provider Provider, storage Storage, log *logrus.Logger, redirectTo string) *AuthClient {
	return &AuthClient{
		id:         id,
		provider:   provider,
		storage:    storage,
		log:        log,
		redirectTo: redirectTo,
		now:        time.Now,
		listeners:  make(map[int]Listener),
	}
}

func (c *AuthClient) ID() string {
	return c.id
}

func (c *AuthClient) OnAuthStateChange(listener Listener) *Subscription {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	c.listenersMu.Unlock()

	return &Subscription{unsubscribe: func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}}
}

func (c *AuthClient) emit(ctx context.Context, event Event, session *Session) {
	c.listenersMu.Lock()
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.listenersMu.Unlock()

	var copied *Session
	if session != nil {
		s := *session
		copied = &s
	}
	for _, l := range listeners {
		l(ctx, event, copied)
	}
}

// Initialize restores the persisted session and announces it with
// INITIAL_SESSION, also when there is none.
func (c *AuthClient) Initialize(ctx context.Context) error {
	session, err := c.GetSession(ctx)
	c.emit(ctx, EventInitialSession, session)
	return err
}

// GetSession returns the current session, refreshing it when the access
// token has expired. A session the provider no longer accepts is dropped.
func (c *AuthClient) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	current := copySession(c.session)
	c.mu.Unlock()

	if current == nil {
		stored, err := c.storage.Load(ctx, c.id)
		if err != nil {
			c.log.Warnf("Failed to load session: %+v", err)
			return nil, err
		}
		if stored == nil {
			return nil, nil
		}
		current = stored
	}

	if current.expired(c.now()) {
		return c.refresh(ctx, current)
	}

	principal, err := c.provider.GetUser(ctx, current.AccessToken)
	switch {
	case err == nil:
		current.User = User{ID: principal.UserID, Email: principal.Email}
		c.setSession(current)
		return copySession(current), nil
	case errors.Is(err, usecase.ErrTokenExpired):
		return c.refresh(ctx, current)
	case errors.Is(err, usecase.ErrInvalidToken), errors.Is(err, usecase.ErrTokenRevoked):
		c.clear(ctx)
		return nil, nil
	default:
		return nil, err
	}
}

func (c *AuthClient) refresh(ctx context.Context, current *Session) (*Session, error) {
	tokens, err := c.provider.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: current.RefreshToken})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidToken) || errors.Is(err, usecase.ErrTokenRevoked) {
			c.clear(ctx)
			return nil, nil
		}
		c.log.Warnf("Failed to refresh session: %+v", err)
		return nil, err
	}

	session := sessionFromTokens(tokens)
	if session.User.ID == uuid.Nil {
		session.User = current.User
	}
	if err := c.persist(ctx, session); err != nil {
		return nil, err
	}
	c.emit(ctx, EventTokenRefreshed, session)
	return copySession(session), nil
}

func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) error {
	tokens, err := c.provider.SignInWithPassword(ctx, &dto.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}

	session := sessionFromTokens(tokens)
	if err := c.persist(ctx, session); err != nil {
		return err
	}
	c.emit(ctx, EventSignedIn, session)
	return nil
}

// SignUp registers an identity. No session is created; the user signs in
// after confirming the e-mail address.
func (c *AuthClient) SignUp(ctx context.Context, email, password, fullName string, role entity.Role) (*dto.SignUpResponse, error) {
	return c.provider.SignUp(ctx, &dto.SignUpRequest{
		Email:      email,
		Password:   password,
		FullName:   fullName,
		Role:       role.String(),
		RedirectTo: c.redirectTo,
	})
}

// SignOut revokes the session with the provider. Local state is cleared and
// SIGNED_OUT emitted even when revocation fails; the provider error is
// still returned.
func (c *AuthClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	current := c.session
	c.mu.Unlock()

	var err error
	if current != nil {
		err = c.provider.SignOut(ctx, current.AccessToken, current.RefreshToken)
	}

	c.clear(ctx)
	return err
}

func (c *AuthClient) UpdatePassword(ctx context.Context, password, confirm string) error {
	session, err := c.GetSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNoSession
	}

	err = c.provider.UpdatePassword(ctx, session.User.ID, &dto.UpdatePasswordRequest{
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}
	c.emit(ctx, EventUserUpdated, session)
	return nil
}

func (c *AuthClient) persist(ctx context.Context, session *Session) error {
	if err := c.storage.Save(ctx, c.id, session); err != nil {
		c.log.Warnf("Failed to save session: %+v", err)
		return err
	}
	c.setSession(session)
	return nil
}

func (c *AuthClient) setSession(session *Session) {
	c.mu.Lock()
	c.session = copySession(session)
	c.mu.Unlock()
}

func (c *AuthClient) clear(ctx context.Context) {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	if err := c.storage.Delete(ctx, c.id); err != nil {
		c.log.Warnf("Failed to delete session: %+v", err)
	}
	c.emit(ctx, EventSignedOut, nil)
}

func sessionFromTokens(tokens *dto.TokenResponse) *Session {
	session := &Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
	}
	if tokens.User != nil {
		session.User = User{ID: tokens.User.ID, Email: tokens.User.Email}
	}
	return session
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}
