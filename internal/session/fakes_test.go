package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"careguide/internal/delivery/dto"
	"careguide/internal/domain/entity"
	"careguide/internal/usecase"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type memoryStorage struct {
	mu       sync.Mutex
	sessions map[string]Session
	saveErr  error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{sessions: make(map[string]Session)}
}

func (m *memoryStorage) Load(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memoryStorage) Save(ctx context.Context, id string, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[id] = *session
	return nil
}

func (m *memoryStorage) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// fakeProvider accepts one account and issues opaque tokens.
type fakeProvider struct {
	mu         sync.Mutex
	userID     uuid.UUID
	email      string
	password   string
	valid      map[string]bool
	expired    map[string]bool
	signOutErr error
	signUps    []*dto.SignUpRequest
	passwords  []string
	counter    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		userID:   uuid.New(),
		email:    "jane@example.com",
		password: "secret1",
		valid:    make(map[string]bool),
		expired:  make(map[string]bool),
	}
}

func (p *fakeProvider) issue() *dto.TokenResponse {
	p.counter++
	access := "access-" + string(rune('a'+p.counter))
	refresh := "refresh-" + string(rune('a'+p.counter))
	p.valid[access] = true
	p.valid[refresh] = true
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         &dto.UserResponse{ID: p.userID, Email: p.email},
	}
}

func (p *fakeProvider) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if req.Email == p.email {
		return nil, usecase.ErrEmailAlreadyExists
	}
	p.signUps = append(p.signUps, req)
	return &dto.SignUpResponse{User: dto.UserResponse{ID: uuid.New(), Email: req.Email}, ConfirmationRequired: true}, nil
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if req.Email != p.email || req.Password != p.password {
		return nil, usecase.ErrInvalidCredentials
	}
	return p.issue(), nil
}

func (p *fakeProvider) SignOut(ctx context.Context, accessToken, refreshToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signOutErr != nil {
		return p.signOutErr
	}
	delete(p.valid, accessToken)
	delete(p.valid, refreshToken)
	return nil
}

func (p *fakeProvider) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.valid[req.RefreshToken] {
		return nil, usecase.ErrTokenRevoked
	}
	delete(p.valid, req.RefreshToken)
	return p.issue(), nil
}

func (p *fakeProvider) GetUser(ctx context.Context, accessToken string) (*entity.Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.expired[accessToken] {
		return nil, usecase.ErrTokenExpired
	}
	if !p.valid[accessToken] {
		return nil, usecase.ErrTokenRevoked
	}
	return &entity.Principal{UserID: p.userID, Email: p.email}, nil
}

func (p *fakeProvider) UpdatePassword(ctx context.Context, userID uuid.UUID, req *dto.UpdatePasswordRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if req.Password != req.ConfirmPassword {
		return usecase.ErrPasswordMismatch
	}
	p.passwords = append(p.passwords, req.Password)
	return nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*entity.Profile
	err      error
	calls    int
	// block, when set, is waited on before answering
	block chan struct{}
}

func (f *fakeProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, usecase.ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

var errNetwork = errors.New("network unreachable")
