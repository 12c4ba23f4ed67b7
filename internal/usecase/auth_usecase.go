package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"careguide/config"
	"careguide/internal/converter"
	"careguide/internal/delivery/dto"
	"careguide/internal/domain/entity"
	"careguide/internal/domain/repository"
	"careguide/internal/service"
	"careguide/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrPasswordMismatch   = errors.New("passwords do not match")
)

// AuthUsecase is the auth provider: it issues, refreshes and revokes
// sessions. Deleting accounts is not part of it.
type AuthUsecase interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	SignInWithPassword(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	SignOut(ctx context.Context, accessToken, refreshToken string) error
	Logout(ctx context.Context, accessTokenID, refreshTokenID string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetUser(ctx context.Context, accessToken string) (*entity.Principal, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, req *dto.UpdatePasswordRequest) error
}

type authUsecase struct {
	log         *logrus.Logger
	cfg         config.AuthConfig
	baseURL     string
	transactor  repository.Transactor
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	tokenRepo   repository.TokenRepository
	jwtService  *jwt.JWTService
	mailer      service.Mailer
}

func NewAuthUsecase(
	log *logrus.Logger,
	cfg config.AuthConfig,
	baseURL string,
	transactor repository.Transactor,
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	tokenRepo repository.TokenRepository,
	jwtService *jwt.JWTService,
	mailer service.Mailer,
) AuthUsecase {
	return &authUsecase{
		log:         log,
		cfg:         cfg,
		baseURL:     strings.TrimRight(baseURL, "/"),
		transactor:  transactor,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tokenRepo:   tokenRepo,
		jwtService:  jwtService,
		mailer:      mailer,
	}
}

func (u *authUsecase) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.SignUpResponse, error) {
	role, err := entity.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user := &entity.User{
		Email:    email,
		Password: string(hashedPassword),
	}
	if !u.cfg.RequireEmailConfirmation {
		now := time.Now().UTC()
		user.EmailConfirmedAt = &now
	}

	// The name stays null until it is provided; unnamed doctors are not listed.
	var fullName *string
	if name := strings.TrimSpace(req.FullName); name != "" {
		fullName = &name
	}

	err = u.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := u.userRepo.Create(ctx, user); err != nil {
			if isDuplicateKeyError(err, "email") {
				return ErrEmailAlreadyExists
			}
			u.log.Warnf("Failed to create user: %+v", err)
			return err
		}

		profile := &entity.Profile{
			UserID:   user.ID,
			FullName: fullName,
			Email:    email,
			Role:     role,
		}
		if err := u.profileRepo.Create(ctx, profile); err != nil {
			u.log.Warnf("Failed to create profile: %+v", err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if u.cfg.RequireEmailConfirmation {
		if err := u.sendVerification(ctx, user, req.RedirectTo); err != nil {
			// The account exists; the user can ask for a new link later.
			u.log.Warnf("Failed to send verification e-mail: %+v", err)
		}
	}

	return &dto.SignUpResponse{
		User:                 *converter.UserToResponse(user),
		ConfirmationRequired: !user.IsConfirmed(),
	}, nil
}

func (u *authUsecase) sendVerification(ctx context.Context, user *entity.User, redirectTo string) error {
	token, err := randomToken()
	if err != nil {
		return err
	}
	if err := u.tokenRepo.SaveVerification(ctx, token, user.ID, u.cfg.VerificationExpiry); err != nil {
		return err
	}

	link := u.baseURL + "/auth/verify?token=" + url.QueryEscape(token)
	if redirectTo != "" {
		link += "&redirect_to=" + url.QueryEscape(redirectTo)
	}
	return u.mailer.SendVerification(ctx, user.Email, link)
}

func (u *authUsecase) VerifyEmail(ctx context.Context, token string) error {
	userID, err := u.tokenRepo.ConsumeVerification(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			return ErrInvalidToken
		}
		u.log.Warnf("Failed to consume verification token: %+v", err)
		return err
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsConfirmed() {
		return nil
	}

	now := time.Now().UTC()
	user.EmailConfirmedAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		u.log.Warnf("Failed to confirm user: %+v", err)
		return err
	}
	return nil
}

func (u *authUsecase) SignInWithPassword(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if u.cfg.RequireEmailConfirmation && !user.IsConfirmed() {
		return nil, ErrEmailNotConfirmed
	}

	tokens, err := u.issueTokens(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	tokens.User = converter.UserToResponse(user)
	return tokens, nil
}

func (u *authUsecase) issueTokens(ctx context.Context, userID uuid.UUID, email string) (*dto.TokenResponse, error) {
	access, err := u.jwtService.GenerateAccessToken(userID, email)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refresh, err := u.jwtService.GenerateRefreshToken(userID, email)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.tokenRepo.Save(ctx, repository.AccessTokenKind, userID, access.ID, u.jwtService.GetAccessExpiry()); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}

	if err := u.tokenRepo.Save(ctx, repository.RefreshTokenKind, userID, refresh.ID, u.jwtService.GetRefreshExpiry()); err != nil {
		u.log.Warnf("Failed to store refresh token in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
		ExpiresAt:    access.ExpiresAt,
	}, nil
}

// SignOut revokes the tokens of a session. Expired tokens are still
// accepted so a stale session can always be ended.
func (u *authUsecase) SignOut(ctx context.Context, accessToken, refreshToken string) error {
	var accessID, refreshID string
	if claims, err := u.jwtService.Inspect(accessToken); err == nil {
		accessID = claims.TokenID
	}
	if claims, err := u.jwtService.Inspect(refreshToken); err == nil {
		refreshID = claims.TokenID
	}
	if accessID == "" && refreshID == "" {
		return ErrInvalidToken
	}
	return u.Logout(ctx, accessID, refreshID)
}

func (u *authUsecase) Logout(ctx context.Context, accessTokenID, refreshTokenID string) error {
	if err := u.tokenRepo.Revoke(ctx, repository.AccessTokenKind, accessTokenID); err != nil {
		u.log.Warnf("Failed to delete access token: %+v", err)
		return err
	}
	if err := u.tokenRepo.Revoke(ctx, repository.RefreshTokenKind, refreshTokenID); err != nil {
		u.log.Warnf("Failed to delete refresh token: %+v", err)
		return err
	}
	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken, jwt.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	exists, err := u.tokenRepo.Exists(ctx, repository.RefreshTokenKind, claims.UserID, claims.TokenID)
	if err != nil {
		u.log.Warnf("Failed to check refresh token in Redis: %+v", err)
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	if err := u.tokenRepo.Revoke(ctx, repository.RefreshTokenKind, claims.TokenID); err != nil {
		u.log.Warnf("Failed to delete old refresh token: %+v", err)
		return nil, err
	}

	tokens, err := u.issueTokens(ctx, claims.UserID, claims.Email)
	if err != nil {
		return nil, err
	}
	tokens.User = &dto.UserResponse{ID: claims.UserID, Email: claims.Email}
	return tokens, nil
}

func (u *authUsecase) GetUser(ctx context.Context, accessToken string) (*entity.Principal, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	claims, err := u.jwtService.ValidateToken(accessToken, jwt.AccessToken)
	if err != nil {
		if jwt.IsExpired(err) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	exists, err := u.tokenRepo.Exists(ctx, repository.AccessTokenKind, claims.UserID, claims.TokenID)
	if err != nil {
		u.log.Warnf("Failed to check token validity: %+v", err)
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	return &entity.Principal{UserID: claims.UserID, Email: claims.Email}, nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return converter.UserToResponse(user), nil
}

func (u *authUsecase) UpdatePassword(ctx context.Context, userID uuid.UUID, req *dto.UpdatePasswordRequest) error {
	if len(req.Password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return err
	}

	user.Password = string(hashedPassword)
	if err := u.userRepo.Update(ctx, user); err != nil {
		u.log.Warnf("Failed to update password: %+v", err)
		return err
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
