// Package franchises implements the franchise/store directory.
package franchises

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pizzanet/pizza-service/internal/errs"
	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/pizzanet/pizza-service/internal/models/dto"
	"github.com/pizzanet/pizza-service/internal/storage"
	"go.uber.org/zap"
)

// Service owns franchise and store lifecycle.
type Service struct {
	store storage.FranchiseStore
	users storage.UserStore
	log   *zap.Logger
}

// NewService constructs the directory service.
func NewService(store storage.FranchiseStore, users storage.UserStore, log *zap.Logger) *Service {
	return &Service{store: store, users: users, log: log}
}

// Create records a new franchise. Every admin email must resolve to an
// existing user; an unknown email fails the whole creation.
func (s *Service) Create(ctx context.Context, req dto.CreateFranchiseRequest) (models.Franchise, error) {
	if strings.TrimSpace(req.Name) == "" {
		return models.Franchise{}, errs.Validation("franchise name is required")
	}
	if len(req.Admins) == 0 {
		return models.Franchise{}, errs.Validation("franchise requires at least one admin")
	}

	admins := make([]models.User, 0, len(req.Admins))
	for _, ref := range req.Admins {
		user, err := s.users.GetUserByEmail(ctx, ref.Email)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return models.Franchise{}, errs.NotFound(fmt.Sprintf("unknown user for franchise admin %s", ref.Email))
			}
			return models.Franchise{}, errs.Internal("failed to resolve franchise admin", err)
		}
		admins = append(admins, user)
	}

	created, err := s.store.CreateFranchise(ctx, strings.TrimSpace(req.Name), admins)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Franchise{}, errs.Validation("franchise name already taken")
		}
		return models.Franchise{}, errs.Internal("failed to create franchise", err)
	}
	s.log.Info("franchise created", zap.Int64("franchiseId", created.ID), zap.String("name", created.Name))
	return created, nil
}

// List returns every franchise; this read is public.
func (s *Service) List(ctx context.Context) ([]models.Franchise, error) {
	list, err := s.store.ListFranchises(ctx)
	if err != nil {
		return nil, errs.Internal("failed to list franchises", err)
	}
	return list, nil
}

// ListForUser returns franchises the user administers.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]models.Franchise, error) {
	list, err := s.store.ListFranchisesForUser(ctx, userID)
	if err != nil {
		return nil, errs.Internal("failed to list franchises", err)
	}
	return list, nil
}

// Delete removes a franchise and all of its stores.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteFranchise(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("unknown franchise")
		}
		return errs.Internal("failed to delete franchise", err)
	}
	s.log.Info("franchise deleted", zap.Int64("franchiseId", id))
	return nil
}

// CreateStore adds a store under a franchise.
func (s *Service) CreateStore(ctx context.Context, franchiseID int64, name string) (models.Store, error) {
	if strings.TrimSpace(name) == "" {
		return models.Store{}, errs.Validation("store name is required")
	}
	st, err := s.store.CreateStore(ctx, franchiseID, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Store{}, errs.NotFound("unknown franchise")
		}
		return models.Store{}, errs.Internal("failed to create store", err)
	}
	s.log.Info("store created", zap.Int64("franchiseId", franchiseID), zap.Int64("storeId", st.ID))
	return st, nil
}

// DeleteStore removes a store from a franchise.
func (s *Service) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	if err := s.store.DeleteStore(ctx, franchiseID, storeID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errs.NotFound("unknown store")
		}
		return errs.Internal("failed to delete store", err)
	}
	s.log.Info("store deleted", zap.Int64("franchiseId", franchiseID), zap.Int64("storeId", storeID))
	return nil
}
