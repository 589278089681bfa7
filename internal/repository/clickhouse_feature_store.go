package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockCast/internal/domain/models"
	pkgch "StockCast/pkg/clickhouse"
	applogger "StockCast/pkg/logger"
)

// CHFeatureStore implements FeatureStore backed by ClickHouse. Feature rows
// are derived data: Replace truncates and re-inserts rather than merging.
type CHFeatureStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHFeatureStore(ch *pkgch.Client, table string) *CHFeatureStore {
	return &CHFeatureStore{db: ch.DB(), table: table}
}

// SetLogger injects a structured logger.
func (s *CHFeatureStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHFeatureStore) Replace(ctx context.Context, rows []models.FeatureRow) error {
	start := time.Now()
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", s.table)); err != nil {
		return fmt.Errorf("truncate features: %w", err)
	}

	const chunkSize = 2000
	for lo := 0; lo < len(rows); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(rows) {
			hi = len(rows)
		}
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*12)
		for _, r := range rows[lo:hi] {
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.Date,
				r.ProductID,
				string(r.Category),
				r.QuantitySold,
				r.Price,
				r.StockLevel,
				boolToUInt8(r.OnPromotion),
				r.DayOfWeek,
				r.Month,
				boolToUInt8(r.IsWeekend),
				r.QtyAvg7,
				r.QtyAvg30,
			)
		}
		q := fmt.Sprintf("INSERT INTO %s (date, product_id, category, quantity_sold, price, stock_level, on_promotion, day_of_week, month, is_weekend, qty_avg_7, qty_avg_30) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse feature insert error",
					applogger.String("table", s.table),
					applogger.Int("rows", hi-lo),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert features: %w", err)
		}
	}
	if s.l != nil {
		s.l.Info("feature store replaced",
			applogger.String("table", s.table),
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHFeatureStore) Query(ctx context.Context, productID string, from, to time.Time) ([]models.FeatureRow, error) {
	const qtpl = `
        SELECT date, product_id, category, quantity_sold, price, stock_level,
               on_promotion, day_of_week, month, is_weekend, qty_avg_7, qty_avg_30
        FROM %s
        WHERE product_id = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, productID, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse feature query error",
				applogger.String("table", s.table),
				applogger.String("product", productID),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	out := make([]models.FeatureRow, 0, 1024)
	for rows.Next() {
		var r models.FeatureRow
		var cat string
		var promo, weekend uint8
		if err := rows.Scan(&r.Date, &r.ProductID, &cat, &r.QuantitySold, &r.Price, &r.StockLevel,
			&promo, &r.DayOfWeek, &r.Month, &weekend, &r.QtyAvg7, &r.QtyAvg30); err != nil {
			return nil, fmt.Errorf("scan feature row: %w", err)
		}
		r.Category = models.Category(cat)
		r.OnPromotion = promo != 0
		r.IsWeekend = weekend != 0
		r.IsHolidaySeason = r.Month == 11 || r.Month == 12
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CHFeatureStore) Close() error {
	return nil // connection owned by pkg/clickhouse
}
