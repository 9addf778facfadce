package event

import (
	"context"
	"database/sql"
	"time"
)

// PostgresStore implements Store backed by PostgreSQL.
// Schema lives in migrations/ (events table, indexed on customer_id + ts).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a PostgreSQL-backed event store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Insert(ctx context.Context, ev *Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	var featureKey sql.NullString
	if ev.FeatureKey != "" {
		featureKey = sql.NullString{String: ev.FeatureKey, Valid: true}
	}
	var value sql.NullFloat64
	if ev.Value != nil {
		value = sql.NullFloat64{Float64: *ev.Value, Valid: true}
	}

	const q = `
		INSERT INTO events (customer_id, type, feature_key, value, ts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	return p.db.QueryRowContext(ctx, q,
		ev.CustomerID, string(ev.Type), featureKey, value, ev.Timestamp,
	).Scan(&ev.ID)
}

func (p *PostgresStore) ListByCustomer(ctx context.Context, customerID int64, from, to time.Time) ([]*Event, error) {
	const q = `
		SELECT id, customer_id, type, feature_key, value, ts
		FROM events
		WHERE customer_id = $1 AND ts >= $2 AND ts <= $3
		ORDER BY ts ASC, id ASC`

	rows, err := p.db.QueryContext(ctx, q, customerID, from, to)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*Event
	for rows.Next() {
		ev := &Event{}
		var typ string
		var featureKey sql.NullString
		var value sql.NullFloat64
		if err := rows.Scan(&ev.ID, &ev.CustomerID, &typ, &featureKey, &value, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.Type = Type(typ)
		if featureKey.Valid {
			ev.FeatureKey = featureKey.String
		}
		if value.Valid {
			v := value.Float64
			ev.Value = &v
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (p *PostgresStore) CountByCustomer(ctx context.Context, customerID int64) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM events WHERE customer_id = $1`, customerID,
	).Scan(&n)
	return n, err
}
