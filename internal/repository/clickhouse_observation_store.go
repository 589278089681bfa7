package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	"StockCast/pkg/util"
)

// ClickHouseObservationStore implements ObservationStore for ClickHouse.
type ClickHouseObservationStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseObservationStore creates ClickHouse-backed observation storage.
func NewClickHouseObservationStore(db *sql.DB, table string) domrepo.ObservationStore {
	return &ClickHouseObservationStore{db: db, table: table}
}

func (s *ClickHouseObservationStore) Store(ctx context.Context, o *models.Observation) error {
	q := fmt.Sprintf("INSERT INTO %s (date, product_id, category, quantity_sold, price, stock_level, on_promotion) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		o.Date,
		o.ProductID,
		string(o.Category),
		o.QuantitySold,
		o.Price,
		o.StockLevel,
		boolToUInt8(o.OnPromotion),
	)
	return err
}

func (s *ClickHouseObservationStore) StoreBatch(ctx context.Context, obs []models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	// Multi-row VALUES, chunked to keep single statements bounded.
	const chunkSize = 2000
	for start := 0; start < len(obs); start += chunkSize {
		end := start + chunkSize
		if end > len(obs) {
			end = len(obs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*7)
		for _, o := range obs[start:end] {
			if o.ProductID == "" || o.Date.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				o.Date,
				o.ProductID,
				string(o.Category),
				o.QuantitySold,
				o.Price,
				o.StockLevel,
				boolToUInt8(o.OnPromotion),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (date, product_id, category, quantity_sold, price, stock_level, on_promotion) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseObservationStore) Query(ctx context.Context, productID string, from, to time.Time, limit int) ([]models.Observation, error) {
	if limit <= 0 {
		limit = 1<<31 - 1
	}
	from, to = util.AlignDayRange(from, to)
	q := fmt.Sprintf("SELECT date, product_id, category, quantity_sold, price, stock_level, on_promotion FROM %s WHERE product_id = ? AND date >= ? AND date <= ? ORDER BY date ASC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, productID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()
	return scanObservations(rows)
}

func (s *ClickHouseObservationStore) LatestN(ctx context.Context, productID string, n int) ([]models.Observation, error) {
	q := fmt.Sprintf("SELECT date, product_id, category, quantity_sold, price, stock_level, on_promotion FROM %s WHERE product_id = ? ORDER BY date DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, productID, n)
	if err != nil {
		return nil, fmt.Errorf("query latest observations: %w", err)
	}
	defer rows.Close()

	out, err := scanObservations(rows)
	if err != nil {
		return nil, err
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *ClickHouseObservationStore) ListProducts(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT product_id FROM %s ORDER BY product_id ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *ClickHouseObservationStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseObservationStore) Close() error {
	return nil // connection owned by pkg/clickhouse
}

func scanObservations(rows *sql.Rows) ([]models.Observation, error) {
	var out []models.Observation
	for rows.Next() {
		var o models.Observation
		var cat string
		var promo uint8
		if err := rows.Scan(&o.Date, &o.ProductID, &cat, &o.QuantitySold, &o.Price, &o.StockLevel, &promo); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Category = models.Category(cat)
		o.OnPromotion = promo != 0
		out = append(out, o)
	}
	return out, rows.Err()
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
