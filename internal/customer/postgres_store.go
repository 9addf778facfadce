package customer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// PostgresStore implements Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed customer store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Create(ctx context.Context, c *Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.Active = true

	const q = `
		INSERT INTO customers (name, segment, seats, active, health_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := p.db.QueryRowContext(ctx, q,
		c.Name, string(c.Segment), c.Seats, c.Active, c.HealthScore, c.CreatedAt,
	).Scan(&c.ID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
		return ErrExists
	}
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id int64) (*Customer, error) {
	const q = `
		SELECT id, name, segment, seats, active, health_score, created_at
		FROM customers
		WHERE id = $1`

	c := &Customer{}
	var segment string
	err := p.db.QueryRowContext(ctx, q, id).Scan(
		&c.ID, &c.Name, &segment, &c.Seats, &c.Active, &c.HealthScore, &c.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Segment = Segment(segment)
	return c, nil
}

func (p *PostgresStore) List(ctx context.Context, segment Segment) ([]*Customer, error) {
	q := `
		SELECT id, name, segment, seats, active, health_score, created_at
		FROM customers`
	args := []interface{}{}
	if segment != "" {
		q += ` WHERE segment = $1`
		args = append(args, string(segment))
	}
	q += ` ORDER BY id ASC`

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*Customer
	for rows.Next() {
		c := &Customer{}
		var seg string
		if err := rows.Scan(&c.ID, &c.Name, &seg, &c.Seats, &c.Active, &c.HealthScore, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Segment = Segment(seg)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *PostgresStore) UpdateHealthScore(ctx context.Context, id int64, score float64) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE customers SET health_score = $2 WHERE id = $1`, id, score)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
