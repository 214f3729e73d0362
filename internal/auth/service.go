package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/pizzanet/pizza-service/internal/errs"
	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/pizzanet/pizza-service/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service owns registration, login, logout, and token verification.
type Service struct {
	users    storage.UserStore
	tokens   *TokenManager
	sessions SessionStore
	log      *zap.Logger
}

// NewService constructs the auth service.
func NewService(users storage.UserStore, tokens *TokenManager, sessions SessionStore, log *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, sessions: sessions, log: log}
}

// Register creates a diner account and issues its first session token.
func (s *Service) Register(ctx context.Context, name, email, password string) (models.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return models.User{}, "", errs.Validation("name, email, and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", errs.Internal("failed to hash password", err)
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []models.RoleGrant{{Role: models.RoleDiner}},
	}
	created, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, "", errs.Validation("email already registered")
		}
		return models.User{}, "", errs.Internal("failed to create user", err)
	}

	token, err := s.Issue(ctx, created)
	if err != nil {
		return models.User{}, "", err
	}
	s.log.Info("user registered", zap.Int64("userId", created.ID))
	return created, token, nil
}

// Login authenticates by email and password and issues a session token.
// Unknown users and wrong passwords both surface as NotFound; bad login is
// a 404 in this API, never a 401.
func (s *Service) Login(ctx context.Context, email, password string) (models.User, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return models.User{}, "", errs.Validation("email and password are required")
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.Info("login rejected", zap.String("reason", "unknown email"))
			return models.User{}, "", errs.NotFound("unknown user")
		}
		return models.User{}, "", errs.Internal("failed to fetch user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Info("login rejected", zap.Int64("userId", user.ID), zap.String("reason", "bad password"))
		return models.User{}, "", errs.NotFound("unknown user")
	}

	token, err := s.Issue(ctx, user)
	if err != nil {
		return models.User{}, "", err
	}
	s.log.Info("user logged in", zap.Int64("userId", user.ID))
	return user, token, nil
}

// Issue creates a new session token bound to the user. Other sessions are
// untouched; a user may hold any number of live tokens.
func (s *Service) Issue(ctx context.Context, user models.User) (string, error) {
	token, jti, err := s.tokens.Generate(user)
	if err != nil {
		return "", errs.Internal("failed to generate token", err)
	}
	if err := s.sessions.Add(ctx, jti, user.ID); err != nil {
		return "", errs.Internal("failed to record session", err)
	}
	return token, nil
}

// Verify resolves a bearer token to its user, re-reading role grants so
// grant changes apply from the next request onward.
func (s *Service) Verify(ctx context.Context, rawToken string) (models.User, error) {
	if strings.TrimSpace(rawToken) == "" {
		return models.User{}, errs.Unauthenticated("unauthorized")
	}
	userID, jti, err := s.tokens.Parse(rawToken)
	if err != nil {
		return models.User{}, errs.Unauthenticated("unauthorized")
	}
	boundID, err := s.sessions.UserID(ctx, jti)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, errs.Unauthenticated("unauthorized")
		}
		return models.User{}, errs.Internal("failed to check session", err)
	}
	if boundID != userID {
		return models.User{}, errs.Unauthenticated("unauthorized")
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, errs.Unauthenticated("unauthorized")
		}
		return models.User{}, errs.Internal("failed to fetch user", err)
	}
	return user, nil
}

// Logout revokes exactly the presented token. Revoking an already-dead
// token is an authentication error, not a no-op success.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	_, jti, err := s.tokens.Parse(rawToken)
	if err != nil {
		return errs.Unauthenticated("unauthorized")
	}
	if err := s.sessions.Revoke(ctx, jti); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.Unauthenticated("unauthorized")
		}
		return errs.Internal("failed to revoke session", err)
	}
	s.log.Info("session revoked", zap.String("jti", jti))
	return nil
}

// UpdateUser changes a user's profile on behalf of the actor. Only the
// target user or an admin may update a record; the returned token is a
// freshly issued session for the updated identity.
func (s *Service) UpdateUser(ctx context.Context, actor models.User, targetID int64, name, email, password string) (models.User, string, error) {
	if !Authorize(actor, ActionUpdateUser, Resource{UserID: targetID}) {
		s.log.Warn("user update denied",
			zap.Int64("actorId", actor.ID),
			zap.Int64("targetId", targetID))
		return models.User{}, "", errs.Forbidden("unauthorized")
	}

	update := models.User{ID: targetID, Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, "", errs.Internal("failed to hash password", err)
		}
		update.PasswordHash = string(hash)
	}
	updated, err := s.users.UpdateUser(ctx, update)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return models.User{}, "", errs.NotFound("unknown user")
		case errors.Is(err, storage.ErrAlreadyExists):
			return models.User{}, "", errs.Validation("email already registered")
		default:
			return models.User{}, "", errs.Internal("failed to update user", err)
		}
	}

	token, err := s.Issue(ctx, updated)
	if err != nil {
		return models.User{}, "", err
	}
	s.log.Info("user updated", zap.Int64("actorId", actor.ID), zap.Int64("userId", updated.ID))
	return updated, token, nil
}

// Bootstrap ensures the configured admin account exists. It runs at
// process start and is idempotent.
func (s *Service) Bootstrap(ctx context.Context, name, email, password string) error {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []models.RoleGrant{{Role: models.RoleAdmin}, {Role: models.RoleDiner}},
	}
	if _, err := s.users.CreateUser(ctx, admin); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
		return err
	}
	s.log.Info("bootstrap admin ready", zap.String("email", email))
	return nil
}
