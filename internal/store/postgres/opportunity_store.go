package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelory/steamflipper/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const opportunityCols = `id, item_name, buy_price, sell_price, net_profit,
	profit_pct, volume, spread_pct, risk_level, profitable, reject_reason,
	detected_at`

// Insert appends one evaluated flip to the audit log and returns the
// assigned id. One insert is one transaction; rows are never updated.
func (s *OpportunityStore) Insert(ctx context.Context, rec domain.Record) (int64, error) {
	const query = `
		INSERT INTO opportunities (
			item_name, buy_price, sell_price, net_profit, profit_pct,
			volume, spread_pct, risk_level, profitable, reject_reason,
			detected_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		rec.ItemName, rec.BuyPrice, rec.SellPrice, rec.NetProfit,
		rec.ProfitPct, rec.Volume, rec.SpreadPct, string(rec.RiskLevel),
		rec.Profitable, string(rec.RejectReason), rec.DetectedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert opportunity: %w", err)
	}
	return id, nil
}

// List returns audit records matching the filter, newest first by default or
// by profit percentage when requested.
func (s *OpportunityStore) List(ctx context.Context, f domain.OpportunityFilter) ([]domain.Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var args []any
	argIdx := 1

	where := ""
	if f.Profitable != nil {
		where = fmt.Sprintf(" WHERE profitable = $%d", argIdx)
		args = append(args, *f.Profitable)
		argIdx++
	}

	order := " ORDER BY detected_at DESC, id DESC"
	if f.OrderByProfit {
		order = " ORDER BY profit_pct DESC, detected_at DESC"
	}

	var query string
	if f.BestPerItem {
		// One row per item: the highest net profit, most recent on ties.
		query = `SELECT ` + opportunityCols + ` FROM (
			SELECT ` + opportunityCols + `, ROW_NUMBER() OVER (
				PARTITION BY item_name
				ORDER BY net_profit DESC, detected_at DESC
			) AS rn
			FROM opportunities` + where + `
		) ranked WHERE rn = 1` + order
	} else {
		query = `SELECT ` + opportunityCols + ` FROM opportunities` + where + order
	}

	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecordRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan opportunities: %w", err)
	}
	return recs, nil
}

// ListRange returns all records detected in [since, until), oldest first.
// Used by the cold-storage exporter.
func (s *OpportunityStore) ListRange(ctx context.Context, since, until time.Time) ([]domain.Record, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities
		WHERE detected_at >= $1 AND detected_at < $2
		ORDER BY detected_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, since, until)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunity range: %w", err)
	}
	defer rows.Close()

	recs, err := scanRecordRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan opportunity range: %w", err)
	}
	return recs, nil
}

func scanRecordRows(rows pgx.Rows) ([]domain.Record, error) {
	var recs []domain.Record
	for rows.Next() {
		var (
			r      domain.Record
			risk   string
			reason *string
		)
		if err := rows.Scan(
			&r.ID, &r.ItemName, &r.BuyPrice, &r.SellPrice, &r.NetProfit,
			&r.ProfitPct, &r.Volume, &r.SpreadPct, &risk, &r.Profitable,
			&reason, &r.DetectedAt,
		); err != nil {
			return nil, err
		}
		r.RiskLevel = domain.RiskLevel(risk)
		if reason != nil {
			r.RejectReason = domain.RejectReason(*reason)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
