package postgres

import (
	"context"

	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/pizzanet/pizza-service/internal/storage"
)

// CreateOrder records the order and its line items in one transaction.
func (s *Store) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Order{}, err
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
		INSERT INTO orders (diner_id, franchise_id, store_id, state)
		VALUES ($1, $2, $3, $4)
		RETURNING id;`
	if err := tx.QueryRow(ctx, insertOrder, order.DinerID, order.FranchiseID, order.StoreID, string(order.State)).Scan(&order.ID); err != nil {
		return models.Order{}, err
	}

	const insertItem = `
		INSERT INTO order_items (order_id, position, menu_id, description, price)
		VALUES ($1, $2, $3, $4, $5);`
	for i, item := range order.Items {
		if _, err := tx.Exec(ctx, insertItem, order.ID, i, item.MenuID, item.Description, item.Price); err != nil {
			return models.Order{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// ListOrdersForDiner returns the diner's orders with their line items.
func (s *Store) ListOrdersForDiner(ctx context.Context, dinerID int64) ([]models.Order, error) {
	const query = `
		SELECT id, diner_id, franchise_id, store_id, state, receipt
		FROM orders
		WHERE diner_id = $1
		ORDER BY id;`
	rows, err := s.pool.Query(ctx, query, dinerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Order{}
	for rows.Next() {
		var order models.Order
		var state string
		if err := rows.Scan(&order.ID, &order.DinerID, &order.FranchiseID, &order.StoreID, &state, &order.FactoryReceipt); err != nil {
			return nil, err
		}
		order.State = models.FulfillmentState(state)
		out = append(out, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		items, err := s.orderItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// SetFulfillment attaches the terminal state and receipt to an order.
func (s *Store) SetFulfillment(ctx context.Context, orderID int64, state models.FulfillmentState, receipt string) error {
	const query = `UPDATE orders SET state = $2, receipt = $3 WHERE id = $1;`
	tag, err := s.pool.Exec(ctx, query, orderID, string(state), receipt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListMenu returns all menu items ordered by id.
func (s *Store) ListMenu(ctx context.Context) ([]models.MenuItem, error) {
	const query = `SELECT id, title, description, image, price FROM menu ORDER BY id;`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.MenuItem{}
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Image, &item.Price); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// AddMenuItem appends a menu item and returns it with its assigned id.
func (s *Store) AddMenuItem(ctx context.Context, item models.MenuItem) (models.MenuItem, error) {
	const query = `
		INSERT INTO menu (title, description, image, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id;`
	if err := s.pool.QueryRow(ctx, query, item.Title, item.Description, item.Image, item.Price).Scan(&item.ID); err != nil {
		return models.MenuItem{}, err
	}
	return item, nil
}

func (s *Store) orderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	const query = `
		SELECT menu_id, description, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position;`
	rows, err := s.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.MenuID, &item.Description, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
