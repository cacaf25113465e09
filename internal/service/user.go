package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fairytaleapp/fairytale-server/internal/auth"
	"github.com/fairytaleapp/fairytale-server/internal/domain"
	apperrors "github.com/fairytaleapp/fairytale-server/internal/errors"
	"github.com/fairytaleapp/fairytale-server/internal/id"
	"github.com/fairytaleapp/fairytale-server/internal/storage"
	"github.com/fairytaleapp/fairytale-server/internal/store"
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// UserService handles device and Google authentication plus voice
// registration.
type UserService struct {
	store    store.Store
	files    storage.Client
	tokens   TokenIssuer
	verifier auth.GoogleVerifier
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(s store.Store, files storage.Client, tokens TokenIssuer, verifier auth.GoogleVerifier, logger *slog.Logger) *UserService {
	return &UserService{
		store:    s,
		files:    files,
		tokens:   tokens,
		verifier: verifier,
		logger:   logger,
	}
}

// GetOrCreateByDevice logs a device in, creating the user on first sight.
// Returns the user and a signed access token.
func (s *UserService) GetOrCreateByDevice(ctx context.Context, deviceID, name string) (*domain.User, string, error) {
	if deviceID == "" {
		return nil, "", apperrors.Validation("device id is required")
	}

	user, err := s.store.GetUserByDevice(ctx, deviceID)
	switch {
	case err == nil:
		user.TouchLogin()
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return nil, "", fmt.Errorf("update last login: %w", err)
		}

	case apperrors.Is(err, store.ErrNotFound):
		user, err = s.createUser(ctx, deviceID, "", name)
		if err != nil {
			return nil, "", err
		}

	default:
		return nil, "", fmt.Errorf("lookup device: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// AuthenticateGoogle verifies a Google ID token, creating the user on first
// login. Returns the user and a signed access token.
func (s *UserService) AuthenticateGoogle(ctx context.Context, idToken string) (*domain.User, string, error) {
	if idToken == "" {
		return nil, "", apperrors.Validation("id token is required")
	}

	identity, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, "", err
	}
	if identity.Email == "" {
		return nil, "", apperrors.Unauthorized("google token has no email")
	}

	user, err := s.store.GetUserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		user.TouchLogin()
		if user.Name == "" && identity.Name != "" {
			user.Name = identity.Name
		}
		if err := s.store.UpdateUser(ctx, user); err != nil {
			return nil, "", fmt.Errorf("update last login: %w", err)
		}

	case apperrors.Is(err, store.ErrNotFound):
		user, err = s.createUser(ctx, "", identity.Email, identity.Name)
		if err != nil {
			return nil, "", err
		}

	default:
		return nil, "", fmt.Errorf("lookup email: %w", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) createUser(ctx context.Context, deviceID, email, name string) (*domain.User, error) {
	userID, err := id.Generate("user")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:          userID,
		DeviceID:    deviceID,
		Email:       email,
		Name:        name,
		CreatedAt:   now,
		LastLoginAt: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", "user_id", userID, "via_google", email != "")
	return user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if apperrors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, err
	}
	return user, nil
}

// RegisterReferenceVoice stores a voice sample and marks it as the user's
// reference voice for audio narration. A previously registered sample is
// deleted best-effort after the swap.
func (s *UserService) RegisterReferenceVoice(ctx context.Context, userID string, sample []byte) (*domain.User, error) {
	if len(sample) == 0 {
		return nil, apperrors.Validation("voice sample is empty")
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.ReferenceVoiceFileID

	name := fmt.Sprintf("voice_%s.wav", userID)
	fileID, err := s.files.Upload(ctx, sample, name)
	if err != nil {
		return nil, err
	}

	user.ReferenceVoiceFileID = fileID
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update reference voice: %w", err)
	}

	if previous != "" {
		if err := s.files.Delete(ctx, previous); err != nil {
			s.logger.Warn("failed to delete previous reference voice",
				"user_id", userID,
				"file_id", previous,
				"error", err,
			)
		}
	}

	s.logger.Info("reference voice registered", "user_id", userID, "file_id", fileID)
	return user, nil
}
