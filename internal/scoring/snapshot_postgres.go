package scoring

import (
	"context"
	"database/sql"
	"strconv"
)

// PostgresSnapshotStore implements SnapshotStore backed by PostgreSQL.
type PostgresSnapshotStore struct {
	db *sql.DB
}

// NewPostgresSnapshotStore creates a PostgreSQL-backed snapshot store.
func NewPostgresSnapshotStore(db *sql.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

func (p *PostgresSnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	const q = `
		INSERT INTO score_snapshots
			(customer_id, score, risk, login_frequency, feature_adoption,
			 support_ticket_volume, invoice_timeliness, api_usage_trend)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at`

	return p.db.QueryRowContext(ctx, q,
		snap.CustomerID,
		snap.Score,
		string(snap.Risk),
		snap.LoginFrequency,
		snap.FeatureAdoption,
		snap.SupportTicketVolume,
		snap.InvoiceTimeliness,
		snap.APIUsageTrend,
	).Scan(&snap.ID, &snap.CreatedAt)
}

func (p *PostgresSnapshotStore) SaveBatch(ctx context.Context, snaps []*Snapshot) error {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO score_snapshots
			(customer_id, score, risk, login_frequency, feature_adoption,
			 support_ticket_volume, invoice_timeliness, api_usage_trend)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, s := range snaps {
		_, err := stmt.ExecContext(ctx, s.CustomerID, s.Score, string(s.Risk),
			s.LoginFrequency, s.FeatureAdoption, s.SupportTicketVolume,
			s.InvoiceTimeliness, s.APIUsageTrend)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgresSnapshotStore) Query(ctx context.Context, q HistoryQuery) ([]*Snapshot, error) {
	query := `
		SELECT id, customer_id, score, risk,
			   login_frequency, feature_adoption, support_ticket_volume,
			   invoice_timeliness, api_usage_trend, created_at
		FROM score_snapshots
		WHERE customer_id = $1`

	args := []interface{}{q.CustomerID}
	argIdx := 2

	if !q.From.IsZero() {
		query += " AND created_at >= $" + strconv.Itoa(argIdx)
		args = append(args, q.From)
		argIdx++
	}
	if !q.To.IsZero() {
		query += " AND created_at <= $" + strconv.Itoa(argIdx)
		args = append(args, q.To)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT $" + strconv.Itoa(argIdx)
	args = append(args, limit)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanSnapshots(rows)
}

func (p *PostgresSnapshotStore) Latest(ctx context.Context, customerID int64) (*Snapshot, error) {
	const q = `
		SELECT id, customer_id, score, risk,
			   login_frequency, feature_adoption, support_ticket_volume,
			   invoice_timeliness, api_usage_trend, created_at
		FROM score_snapshots
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	row := p.db.QueryRowContext(ctx, q, customerID)
	s := &Snapshot{}
	var risk string
	err := row.Scan(&s.ID, &s.CustomerID, &s.Score, &risk,
		&s.LoginFrequency, &s.FeatureAdoption, &s.SupportTicketVolume,
		&s.InvoiceTimeliness, &s.APIUsageTrend, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Risk = Risk(risk)
	return s, nil
}

func scanSnapshots(rows *sql.Rows) ([]*Snapshot, error) {
	var out []*Snapshot
	for rows.Next() {
		s := &Snapshot{}
		var risk string
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.Score, &risk,
			&s.LoginFrequency, &s.FeatureAdoption, &s.SupportTicketVolume,
			&s.InvoiceTimeliness, &s.APIUsageTrend, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Risk = Risk(risk)
		out = append(out, s)
	}
	return out, rows.Err()
}
