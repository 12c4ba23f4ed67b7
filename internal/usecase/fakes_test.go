package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"careguide/internal/domain/entity"
	"careguide/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func strPtr(s string) *string { return &s }

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUserRepo struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*entity.User
	createErr error
	deleteErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == strings.ToLower(email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}

type fakeProfileRepo struct {
	mu        sync.Mutex
	profiles  []*entity.Profile
	findErr   error
	updateErr error
	deleteErr error
	lastQuery entity.ProfileFilter
}

func (r *fakeProfileRepo) add(p entity.Profile) *entity.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.profiles = append(r.profiles, &p)
	return &p
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *entity.Profile) error {
	r.add(*profile)
	return nil
}

func (r *fakeProfileRepo) find(match func(*entity.Profile) bool) (*entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, p := range r.profiles {
		if match(p) {
			copied := *p
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	return r.find(func(p *entity.Profile) bool { return p.ID == id })
}

func (r *fakeProfileRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	return r.find(func(p *entity.Profile) bool { return p.UserID == userID })
}

func (r *fakeProfileRepo) FindAll(ctx context.Context, filter entity.ProfileFilter) ([]entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = filter
	var out []entity.Profile
	for _, p := range r.profiles {
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		if filter.PublicOnly && p.FullName == nil {
			continue
		}
		if filter.City != "" && (p.City == nil || !strings.EqualFold(*p.City, filter.City)) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *fakeProfileRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return 0, r.updateErr
	}
	for _, p := range r.profiles {
		if p.ID != id {
			continue
		}
		for column, value := range fields {
			switch column {
			case "full_name":
				p.FullName = value.(*string)
			case "city":
				p.City = value.(*string)
			case "hospital":
				p.Hospital = value.(*string)
			case "speciality":
				p.Speciality = value.(*string)
			case "phone_number":
				p.PhoneNumber = value.(*string)
			case "opd":
				p.OPD = value.(*string)
			case "notes":
				p.Notes = value.(*string)
			case "years_of_experience":
				p.YearsOfExperience = value.(*int)
			case "profile_photo_url":
				url := value.(string)
				p.ProfilePhotoURL = &url
			case "availability":
				if value == nil {
					p.Availability = nil
				} else {
					a := value.(entity.Availability)
					p.Availability = &a
				}
			default:
				return 0, errors.New("unexpected column " + column)
			}
		}
		return 1, nil
	}
	return 0, nil
}

func (r *fakeProfileRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	for i, p := range r.profiles {
		if p.ID == id {
			r.profiles = append(r.profiles[:i], r.profiles[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type fakeTokenRepo struct {
	mu            sync.Mutex
	tokens        map[string]uuid.UUID
	verifications map[string]uuid.UUID
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		tokens:        make(map[string]uuid.UUID),
		verifications: make(map[string]uuid.UUID),
	}
}

func (r *fakeTokenRepo) key(kind repository.TokenKind, tokenID string) string {
	return string(kind) + ":" + tokenID
}

func (r *fakeTokenRepo) Save(ctx context.Context, kind repository.TokenKind, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[r.key(kind, tokenID)] = userID
	return nil
}

func (r *fakeTokenRepo) Exists(ctx context.Context, kind repository.TokenKind, userID uuid.UUID, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.tokens[r.key(kind, tokenID)]
	return ok && owner == userID, nil
}

func (r *fakeTokenRepo) Revoke(ctx context.Context, kind repository.TokenKind, tokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, r.key(kind, tokenID))
	return nil
}

func (r *fakeTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, owner := range r.tokens {
		if owner == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *fakeTokenRepo) SaveVerification(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifications[token] = userID
	return nil
}

func (r *fakeTokenRepo) ConsumeVerification(ctx context.Context, token string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	userID, ok := r.verifications[token]
	if !ok {
		return uuid.Nil, repository.ErrVerificationNotFound
	}
	delete(r.verifications, token)
	return userID, nil
}

type fakeMailer struct {
	mu    sync.Mutex
	links map[string]string
}

func (m *fakeMailer) SendVerification(ctx context.Context, email, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.links == nil {
		m.links = make(map[string]string)
	}
	m.links[email] = link
	return nil
}

type fakeStorage struct {
	uploaded  map[string][]byte
	uploadErr error
}

func (s *fakeStorage) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if s.uploaded == nil {
		s.uploaded = make(map[string][]byte)
	}
	s.uploaded[key] = data
	return nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return "https://cdn.example.com/avatars/" + key
}

func (s *fakeStorage) Remove(ctx context.Context, key string) error {
	delete(s.uploaded, key)
	return nil
}

func (s *fakeStorage) Ping(ctx context.Context) error { return nil }

type fakeAvatar struct {
	err error
}

func (a fakeAvatar) Normalize(r io.Reader) ([]byte, error) {
	if a.err != nil {
		return nil, a.err
	}
	return io.ReadAll(r)
}
