// Package memory provides a mutex-guarded in-memory implementation of the
// storage interfaces. It backs tests and local runs without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/pizzanet/pizza-service/internal/storage"
)

// Ensure Store satisfies the full storage surface at compile time.
var _ storage.Store = (*Store)(nil)

// Store keeps all records behind a single lock. The lock also serializes
// franchise deletion against store creation, so an orphaned store is never
// observable.
type Store struct {
	mu sync.RWMutex

	users  map[int64]models.User
	emails map[string]int64

	franchises map[int64]franchiseRec
	stores     map[int64]models.Store

	menu   []models.MenuItem
	orders map[int64]models.Order

	nextUserID      int64
	nextFranchiseID int64
	nextStoreID     int64
	nextMenuID      int64
	nextOrderID     int64
}

type franchiseRec struct {
	id       int64
	name     string
	adminIDs []int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:      make(map[int64]models.User),
		emails:     make(map[string]int64),
		franchises: make(map[int64]franchiseRec),
		stores:     make(map[int64]models.Store),
		orders:     make(map[int64]models.Order),
	}
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.NormalizeEmail(user.Email)
	if _, taken := s.emails[key]; taken {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.Roles = append([]models.RoleGrant(nil), user.Roles...)
	s.users[user.ID] = user
	s.emails[key] = user.ID
	return user, nil
}

// GetUser fetches a user by id.
func (s *Store) GetUser(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return cloneUser(user), nil
}

// GetUserByEmail fetches a user by case-insensitive email match.
func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[models.NormalizeEmail(email)]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return cloneUser(s.users[id]), nil
}

// UpdateUser replaces name, email, and password hash where set.
func (s *Store) UpdateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	if user.Name != "" {
		current.Name = user.Name
	}
	if user.Email != "" {
		newKey := models.NormalizeEmail(user.Email)
		oldKey := models.NormalizeEmail(current.Email)
		if newKey != oldKey {
			if _, taken := s.emails[newKey]; taken {
				return models.User{}, storage.ErrAlreadyExists
			}
			delete(s.emails, oldKey)
			s.emails[newKey] = current.ID
		}
		current.Email = user.Email
	}
	if user.PasswordHash != "" {
		current.PasswordHash = user.PasswordHash
	}
	s.users[current.ID] = current
	return cloneUser(current), nil
}

// CreateFranchise records the franchise and grants each admin a franchisee
// role scoped to it.
func (s *Store) CreateFranchise(_ context.Context, name string, admins []models.User) (models.Franchise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.franchises {
		if rec.name == name {
			return models.Franchise{}, storage.ErrAlreadyExists
		}
	}
	s.nextFranchiseID++
	rec := franchiseRec{id: s.nextFranchiseID, name: name}
	for _, admin := range admins {
		stored, ok := s.users[admin.ID]
		if !ok {
			return models.Franchise{}, storage.ErrNotFound
		}
		rec.adminIDs = append(rec.adminIDs, admin.ID)
		stored.Roles = append(stored.Roles, models.RoleGrant{Role: models.RoleFranchisee, ObjectID: rec.id})
		s.users[admin.ID] = stored
	}
	s.franchises[rec.id] = rec
	return s.buildFranchise(rec), nil
}

// GetFranchise fetches a franchise with its admins and stores.
func (s *Store) GetFranchise(_ context.Context, id int64) (models.Franchise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.franchises[id]
	if !ok {
		return models.Franchise{}, storage.ErrNotFound
	}
	return s.buildFranchise(rec), nil
}

// ListFranchises returns all franchises ordered by id.
func (s *Store) ListFranchises(_ context.Context) ([]models.Franchise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Franchise, 0, len(s.franchises))
	for _, rec := range s.franchises {
		out = append(out, s.buildFranchise(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListFranchisesForUser returns franchises the user administers.
func (s *Store) ListFranchisesForUser(_ context.Context, userID int64) ([]models.Franchise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Franchise{}
	for _, rec := range s.franchises {
		for _, adminID := range rec.adminIDs {
			if adminID == userID {
				out = append(out, s.buildFranchise(rec))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteFranchise removes the franchise, its stores, and the franchisee
// grants scoped to it.
func (s *Store) DeleteFranchise(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.franchises[id]; !ok {
		return storage.ErrNotFound
	}
	for storeID, st := range s.stores {
		if st.FranchiseID == id {
			delete(s.stores, storeID)
		}
	}
	for userID, user := range s.users {
		kept := user.Roles[:0]
		for _, g := range user.Roles {
			if g.Role == models.RoleFranchisee && g.ObjectID == id {
				continue
			}
			kept = append(kept, g)
		}
		user.Roles = kept
		s.users[userID] = user
	}
	delete(s.franchises, id)
	return nil
}

// CreateStore inserts a store under an existing franchise.
func (s *Store) CreateStore(_ context.Context, franchiseID int64, name string) (models.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.franchises[franchiseID]; !ok {
		return models.Store{}, storage.ErrNotFound
	}
	s.nextStoreID++
	st := models.Store{ID: s.nextStoreID, FranchiseID: franchiseID, Name: name}
	s.stores[st.ID] = st
	return st, nil
}

// GetStore fetches a store scoped to its franchise.
func (s *Store) GetStore(_ context.Context, franchiseID, storeID int64) (models.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stores[storeID]
	if !ok || st.FranchiseID != franchiseID {
		return models.Store{}, storage.ErrNotFound
	}
	return st, nil
}

// DeleteStore removes a store scoped to its franchise.
func (s *Store) DeleteStore(_ context.Context, franchiseID, storeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.stores[storeID]
	if !ok || st.FranchiseID != franchiseID {
		return storage.ErrNotFound
	}
	delete(s.stores, storeID)
	return nil
}

// CreateOrder records the order with a fresh id.
func (s *Store) CreateOrder(_ context.Context, order models.Order) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextOrderID++
	order.ID = s.nextOrderID
	order.Items = append([]models.OrderItem(nil), order.Items...)
	s.orders[order.ID] = order
	return order, nil
}

// ListOrdersForDiner returns the diner's orders ordered by id.
func (s *Store) ListOrdersForDiner(_ context.Context, dinerID int64) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Order{}
	for _, order := range s.orders {
		if order.DinerID == dinerID {
			out = append(out, order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetFulfillment attaches the terminal state and receipt to an order.
func (s *Store) SetFulfillment(_ context.Context, orderID int64, state models.FulfillmentState, receipt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[orderID]
	if !ok {
		return storage.ErrNotFound
	}
	order.State = state
	order.FactoryReceipt = receipt
	s.orders[orderID] = order
	return nil
}

// ListMenu returns the menu in insertion order.
func (s *Store) ListMenu(_ context.Context) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.MenuItem{}, s.menu...), nil
}

// AddMenuItem appends a menu item and assigns its id.
func (s *Store) AddMenuItem(_ context.Context, item models.MenuItem) (models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMenuID++
	item.ID = s.nextMenuID
	s.menu = append(s.menu, item)
	return item, nil
}

func (s *Store) buildFranchise(rec franchiseRec) models.Franchise {
	f := models.Franchise{ID: rec.id, Name: rec.name, Admins: []models.AdminRef{}, Stores: []models.Store{}}
	for _, adminID := range rec.adminIDs {
		if user, ok := s.users[adminID]; ok {
			f.Admins = append(f.Admins, models.AdminRef{ID: user.ID, Name: user.Name, Email: user.Email})
		}
	}
	for _, st := range s.stores {
		if st.FranchiseID == rec.id {
			f.Stores = append(f.Stores, st)
		}
	}
	sort.Slice(f.Stores, func(i, j int) bool { return f.Stores[i].ID < f.Stores[j].ID })
	return f
}

func cloneUser(user models.User) models.User {
	user.Roles = append([]models.RoleGrant(nil), user.Roles...)
	return user
}
