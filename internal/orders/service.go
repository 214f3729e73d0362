// Package orders implements the order-fulfillment workflow: validate the
// order's references, persist it, submit it to the factory, then attach the
// receipt or record the failure. The order record survives factory
// failures; nothing is rolled back and nothing is retried.
package orders

import (
	"context"
	"errors"

	"github.com/pizzanet/pizza-service/internal/errs"
	"github.com/pizzanet/pizza-service/internal/factory"
	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/pizzanet/pizza-service/internal/models/dto"
	"github.com/pizzanet/pizza-service/internal/storage"
	"go.uber.org/zap"
)

// FactoryClient is the external fulfillment collaborator.
type FactoryClient interface {
	Submit(ctx context.Context, diner models.User, order models.Order) (factory.Confirmation, error)
}

// Service runs order creation and menu reads/appends.
type Service struct {
	store      storage.OrderStore
	franchises storage.FranchiseStore
	factory    FactoryClient
	log        *zap.Logger
}

// NewService constructs the order service.
func NewService(store storage.OrderStore, franchises storage.FranchiseStore, fc FactoryClient, log *zap.Logger) *Service {
	return &Service{store: store, franchises: franchises, factory: fc, log: log}
}

// Create runs the fulfillment workflow for one order on behalf of the
// authenticated diner. The diner id always comes from the caller's
// verified identity, never the request body.
func (s *Service) Create(ctx context.Context, diner models.User, req dto.CreateOrderRequest) (models.Order, error) {
	if len(req.Items) == 0 {
		return models.Order{}, errs.Validation("order requires at least one item")
	}

	// Priced: validate references before anything is persisted.
	if _, err := s.franchises.GetFranchise(ctx, req.FranchiseID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Order{}, errs.NotFound("unknown franchise")
		}
		return models.Order{}, errs.Internal("failed to check franchise", err)
	}
	if _, err := s.franchises.GetStore(ctx, req.FranchiseID, req.StoreID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Order{}, errs.NotFound("unknown store")
		}
		return models.Order{}, errs.Internal("failed to check store", err)
	}

	// Persisted: record the order before the factory call so a factory
	// failure never loses it.
	order := models.Order{
		DinerID:     diner.ID,
		FranchiseID: req.FranchiseID,
		StoreID:     req.StoreID,
		Items:       req.Items,
		State:       models.FulfillmentPersisted,
	}
	order, err := s.store.CreateOrder(ctx, order)
	if err != nil {
		return models.Order{}, errs.Internal("failed to create order", err)
	}

	// Submitted: one attempt only; a retry here could double-submit one
	// logical order to the factory.
	confirmation, err := s.factory.Submit(ctx, diner, order)
	if err != nil {
		var submitErr *factory.SubmitError
		reportURL := ""
		if errors.As(err, &submitErr) {
			reportURL = submitErr.ReportURL
		}
		if ferr := s.store.SetFulfillment(ctx, order.ID, models.FulfillmentFailed, ""); ferr != nil {
			s.log.Error("failed to record fulfillment failure", zap.Int64("orderId", order.ID), zap.Error(ferr))
		}
		s.log.Warn("order fulfillment failed",
			zap.Int64("orderId", order.ID),
			zap.Int64("dinerId", diner.ID),
			zap.Error(err))
		return models.Order{}, errs.Fulfillment("Failed to fulfill order at factory", reportURL, err)
	}

	// Confirmed: attach the factory receipt.
	if err := s.store.SetFulfillment(ctx, order.ID, models.FulfillmentConfirmed, confirmation.Receipt); err != nil {
		return models.Order{}, errs.Internal("failed to record confirmation", err)
	}
	order.State = models.FulfillmentConfirmed
	order.FactoryReceipt = confirmation.Receipt
	s.log.Info("order confirmed", zap.Int64("orderId", order.ID), zap.Int64("dinerId", diner.ID))
	return order, nil
}

// ListForDiner returns the diner's own orders.
func (s *Service) ListForDiner(ctx context.Context, dinerID int64) ([]models.Order, error) {
	list, err := s.store.ListOrdersForDiner(ctx, dinerID)
	if err != nil {
		return nil, errs.Internal("failed to list orders", err)
	}
	return list, nil
}

// Menu returns the public menu.
func (s *Service) Menu(ctx context.Context) ([]models.MenuItem, error) {
	menu, err := s.store.ListMenu(ctx)
	if err != nil {
		return nil, errs.Internal("failed to list menu", err)
	}
	return menu, nil
}

// AddMenuItem appends a menu item and returns the whole updated menu.
// Authorization (admin only) happens at the boundary before this call.
func (s *Service) AddMenuItem(ctx context.Context, item models.MenuItem) ([]models.MenuItem, error) {
	if item.Title == "" {
		return nil, errs.Validation("menu item requires a title")
	}
	if item.Price < 0 {
		return nil, errs.Validation("menu item price must not be negative")
	}
	if _, err := s.store.AddMenuItem(ctx, item); err != nil {
		return nil, errs.Internal("failed to add menu item", err)
	}
	return s.Menu(ctx)
}
