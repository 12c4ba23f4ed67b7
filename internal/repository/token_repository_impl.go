package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainRepo "careguide/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const verificationKeyPrefix = "email_verification:"

type tokenRepository struct {
	redisClient *redis.Client
}

func NewTokenRepository(redisClient *redis.Client) domainRepo.TokenRepository {
	return &tokenRepository{redisClient: redisClient}
}

func tokenKey(kind domainRepo.TokenKind, userID, tokenID string) string {
	return fmt.Sprintf("%s:%s:%s", kind, userID, tokenID)
}

func (r *tokenRepository) Save(ctx context.Context, kind domainRepo.TokenKind, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	return r.redisClient.Set(ctx, tokenKey(kind, userID.String(), tokenID), "valid", ttl).Err()
}

func (r *tokenRepository) Exists(ctx context.Context, kind domainRepo.TokenKind, userID uuid.UUID, tokenID string) (bool, error) {
	n, err := r.redisClient.Exists(ctx, tokenKey(kind, userID.String(), tokenID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *tokenRepository) Revoke(ctx context.Context, kind domainRepo.TokenKind, tokenID string) error {
	if tokenID == "" {
		return nil
	}
	return r.deleteMatching(ctx, tokenKey(kind, "*", tokenID))
}

func (r *tokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	for _, kind := range []domainRepo.TokenKind{domainRepo.AccessTokenKind, domainRepo.RefreshTokenKind} {
		if err := r.deleteMatching(ctx, tokenKey(kind, userID.String(), "*")); err != nil {
			return err
		}
	}
	return nil
}

func (r *tokenRepository) deleteMatching(ctx context.Context, pattern string) error {
	iter := r.redisClient.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.redisClient.Del(ctx, keys...).Err()
}

func (r *tokenRepository) SaveVerification(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	return r.redisClient.Set(ctx, verificationKeyPrefix+token, userID.String(), ttl).Err()
}

func (r *tokenRepository) ConsumeVerification(ctx context.Context, token string) (uuid.UUID, error) {
	value, err := r.redisClient.GetDel(ctx, verificationKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, domainRepo.ErrVerificationNotFound
		}
		return uuid.Nil, err
	}
	return uuid.Parse(value)
}
