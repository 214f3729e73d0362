package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pizzanet/pizza-service/internal/models"
	"github.com/pizzanet/pizza-service/internal/storage"
)

// CreateFranchise records the franchise, its admin list, and the franchisee
// grants in one transaction.
func (s *Store) CreateFranchise(ctx context.Context, name string, admins []models.User) (models.Franchise, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Franchise{}, err
	}
	defer tx.Rollback(ctx)

	var franchiseID int64
	const insertFranchise = `INSERT INTO franchises (name) VALUES ($1) RETURNING id;`
	if err := tx.QueryRow(ctx, insertFranchise, name).Scan(&franchiseID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Franchise{}, storage.ErrAlreadyExists
		}
		return models.Franchise{}, err
	}

	const insertAdmin = `INSERT INTO franchise_admins (franchise_id, user_id, position) VALUES ($1, $2, $3);`
	const insertGrant = `
		INSERT INTO user_roles (user_id, role, object_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING;`
	f := models.Franchise{ID: franchiseID, Name: name, Admins: []models.AdminRef{}, Stores: []models.Store{}}
	for i, admin := range admins {
		if _, err := tx.Exec(ctx, insertAdmin, franchiseID, admin.ID, i); err != nil {
			return models.Franchise{}, err
		}
		if _, err := tx.Exec(ctx, insertGrant, admin.ID, models.RoleFranchisee, franchiseID); err != nil {
			return models.Franchise{}, err
		}
		f.Admins = append(f.Admins, models.AdminRef{ID: admin.ID, Name: admin.Name, Email: admin.Email})
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Franchise{}, err
	}
	return f, nil
}

// GetFranchise fetches a franchise with its admins and stores.
func (s *Store) GetFranchise(ctx context.Context, id int64) (models.Franchise, error) {
	const query = `SELECT id, name FROM franchises WHERE id = $1;`

	var f models.Franchise
	if err := s.pool.QueryRow(ctx, query, id).Scan(&f.ID, &f.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Franchise{}, storage.ErrNotFound
		}
		return models.Franchise{}, err
	}
	if err := s.fillFranchise(ctx, &f); err != nil {
		return models.Franchise{}, err
	}
	return f, nil
}

// ListFranchises returns all franchises ordered by id.
func (s *Store) ListFranchises(ctx context.Context) ([]models.Franchise, error) {
	const query = `SELECT id, name FROM franchises ORDER BY id;`
	return s.listFranchises(ctx, query)
}

// ListFranchisesForUser returns franchises the user administers, ordered by id.
func (s *Store) ListFranchisesForUser(ctx context.Context, userID int64) ([]models.Franchise, error) {
	const query = `
		SELECT f.id, f.name
		FROM franchises f
		JOIN franchise_admins fa ON fa.franchise_id = f.id
		WHERE fa.user_id = $1
		ORDER BY f.id;`
	return s.listFranchises(ctx, query, userID)
}

// DeleteFranchise removes the franchise, its stores, and the franchisee
// grants scoped to it. The row lock taken here serializes the delete
// against concurrent CreateStore calls on the same franchise.
func (s *Store) DeleteFranchise(ctx context.Context, id int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM franchises WHERE id = $1 FOR UPDATE;`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return err
	}

	stmts := []string{
		`DELETE FROM stores WHERE franchise_id = $1;`,
		`DELETE FROM franchise_admins WHERE franchise_id = $1;`,
		`DELETE FROM user_roles WHERE role = 'franchisee' AND object_id = $1;`,
		`DELETE FROM franchises WHERE id = $1;`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// CreateStore inserts a store under an existing franchise. The shared lock
// on the franchise row blocks against a concurrent cascading delete.
func (s *Store) CreateStore(ctx context.Context, franchiseID int64, name string) (models.Store, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Store{}, err
	}
	defer tx.Rollback(ctx)

	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM franchises WHERE id = $1 FOR SHARE;`, franchiseID).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Store{}, storage.ErrNotFound
		}
		return models.Store{}, err
	}

	st := models.Store{FranchiseID: franchiseID, Name: name}
	const insert = `INSERT INTO stores (franchise_id, name) VALUES ($1, $2) RETURNING id;`
	if err := tx.QueryRow(ctx, insert, franchiseID, name).Scan(&st.ID); err != nil {
		return models.Store{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Store{}, err
	}
	return st, nil
}

// GetStore fetches a store scoped to its franchise.
func (s *Store) GetStore(ctx context.Context, franchiseID, storeID int64) (models.Store, error) {
	const query = `SELECT id, franchise_id, name FROM stores WHERE id = $1 AND franchise_id = $2;`

	var st models.Store
	if err := s.pool.QueryRow(ctx, query, storeID, franchiseID).Scan(&st.ID, &st.FranchiseID, &st.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Store{}, storage.ErrNotFound
		}
		return models.Store{}, err
	}
	return st, nil
}

// DeleteStore removes a store scoped to its franchise.
func (s *Store) DeleteStore(ctx context.Context, franchiseID, storeID int64) error {
	const query = `DELETE FROM stores WHERE id = $1 AND franchise_id = $2;`
	tag, err := s.pool.Exec(ctx, query, storeID, franchiseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) listFranchises(ctx context.Context, query string, args ...any) ([]models.Franchise, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Franchise{}
	for rows.Next() {
		var f models.Franchise
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.fillFranchise(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) fillFranchise(ctx context.Context, f *models.Franchise) error {
	const adminQuery = `
		SELECT u.id, u.name, u.email
		FROM franchise_admins fa
		JOIN users u ON u.id = fa.user_id
		WHERE fa.franchise_id = $1
		ORDER BY fa.position;`
	rows, err := s.pool.Query(ctx, adminQuery, f.ID)
	if err != nil {
		return err
	}
	f.Admins = []models.AdminRef{}
	for rows.Next() {
		var a models.AdminRef
		if err := rows.Scan(&a.ID, &a.Name, &a.Email); err != nil {
			rows.Close()
			return err
		}
		f.Admins = append(f.Admins, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	const storeQuery = `SELECT id, franchise_id, name FROM stores WHERE franchise_id = $1 ORDER BY id;`
	rows, err = s.pool.Query(ctx, storeQuery, f.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	f.Stores = []models.Store{}
	for rows.Next() {
		var st models.Store
		if err := rows.Scan(&st.ID, &st.FranchiseID, &st.Name); err != nil {
			return err
		}
		f.Stores = append(f.Stores, st)
	}
	return rows.Err()
}
