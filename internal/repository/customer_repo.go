package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/SohamSachinDhore/bet-v2/internal/domain"
)

type CustomerRepo struct {
	db *sql.DB
}

func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

// GetOrCreate resolves a customer by name, creating the row on first use.
// Matching is case-insensitive; the stored spelling is whichever arrived
// first.
func (r *CustomerRepo) GetOrCreate(name string) (*domain.Customer, error) {
	c, err := r.GetByName(name)
	if err == nil {
		return c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}

	now := time.Now().UTC()
	res, err := r.db.Exec(
		`INSERT INTO customers (name, created_at) VALUES (?, ?)`,
		name, now.Format(time.RFC3339),
	)
	if err != nil {
		// A concurrent insert may have won the unique constraint.
		if c, lookupErr := r.GetByName(name); lookupErr == nil {
			return c, nil
		}
		return nil, fmt.Errorf("insert customer: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("customer id: %w", err)
	}
	return &domain.Customer{ID: id, Name: name, CreatedAt: now}, nil
}

func (r *CustomerRepo) GetByName(name string) (*domain.Customer, error) {
	row := r.db.QueryRow(
		`SELECT id, name, created_at FROM customers WHERE name = ? COLLATE NOCASE`,
		name,
	)

	var c domain.Customer
	var createdAt string
	if err := row.Scan(&c.ID, &c.Name, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &c, nil
}

func (r *CustomerRepo) List() ([]domain.Customer, error) {
	rows, err := r.db.Query(`SELECT id, name, created_at FROM customers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var out []domain.Customer
	for rows.Next() {
		var c domain.Customer
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

type BazarRepo struct {
	db *sql.DB
}

func NewBazarRepo(db *sql.DB) *BazarRepo {
	return &BazarRepo{db: db}
}

func (r *BazarRepo) List() ([]domain.Bazar, error) {
	rows, err := r.db.Query(`SELECT name, display_name, sort_order FROM bazars ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("query bazars: %w", err)
	}
	defer rows.Close()

	var out []domain.Bazar
	for rows.Next() {
		var b domain.Bazar
		if err := rows.Scan(&b.Name, &b.DisplayName, &b.SortOrder); err != nil {
			return nil, fmt.Errorf("scan bazar: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Exists reports whether a bazar short name is known.
func (r *BazarRepo) Exists(name string) (bool, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM bazars WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count bazars: %w", err)
	}
	return n > 0, nil
}
