// Package privileged holds the operations that run with the service-role
// key. They bypass the profile row policy and may delete auth accounts, so
// they are only reachable from server-side routines that verify the caller
// themselves.
package privileged

import (
	"context"
	"crypto/subtle"
	"errors"

	"careguide/internal/domain/entity"
	"careguide/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidServiceRoleKey = errors.New("invalid service role key")
	ErrNotFound              = errors.New("record not found")
)

type Client struct {
	log         *logrus.Logger
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
}

// NewClient returns a client only when key matches the configured
// service-role key.
func NewClient(key, serviceRoleKey string, log *logrus.Logger, profileRepo repository.ProfileRepository, userRepo repository.UserRepository) (*Client, error) {
	if serviceRoleKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(serviceRoleKey)) != 1 {
		return nil, ErrInvalidServiceRoleKey
	}
	return &Client{
		log:         log,
		profileRepo: profileRepo,
		userRepo:    userRepo,
	}, nil
}

func (c *Client) GetProfileByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	profile, err := c.profileRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrNotFound
	}
	return profile, nil
}

func (c *Client) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	affected, err := c.profileRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes an auth account.
func (c *Client) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	affected, err := c.userRepo.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	c.log.WithField("user_id", userID).Info("Auth account deleted")
	return nil
}
