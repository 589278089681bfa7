package automl

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"

	"StockCast/internal/domain/models"
	domsvc "StockCast/internal/domain/service"
)

// foldOf assigns a row to a fold by hashing (product, date, seed). Folds are
// stable across runs and across candidates without storing a permutation,
// and a (product, date) pair can never straddle two folds.
func foldOf(productID string, dateUnix int64, k int, seed int64) int {
	h := fnv.New64a()
	h.Write([]byte(productID))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatInt(dateUnix, 10)))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.FormatInt(seed, 10)))
	return int(h.Sum64() % uint64(k))
}

// crossValidate trains the candidate k times, holding out one fold each
// round, and returns the mean validation score across folds.
func crossValidate(ctx context.Context, t domsvc.Trainer, rows []models.FeatureRow, k int, seed int64, metric string) (float64, error) {
	if k < 2 {
		k = 2
	}
	folds := make([]int, len(rows))
	counts := make([]int, k)
	for i, r := range rows {
		folds[i] = foldOf(r.ProductID, r.Date.Unix(), k, seed)
		counts[folds[i]]++
	}

	var total float64
	var used int
	for f := 0; f < k; f++ {
		if counts[f] == 0 || counts[f] == len(rows) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		train := make([]models.FeatureRow, 0, len(rows)-counts[f])
		valid := make([]models.FeatureRow, 0, counts[f])
		for i, r := range rows {
			if folds[i] == f {
				valid = append(valid, r)
			} else {
				train = append(train, r)
			}
		}
		m, err := t.Train(ctx, train)
		if err != nil {
			return 0, err
		}
		total += score(m, valid, metric)
		used++
	}
	if used == 0 {
		return 0, fmt.Errorf("cross validation: no usable folds")
	}
	return total / float64(used), nil
}

// score computes the validation metric over a hold-out fold.
func score(m domsvc.Model, rows []models.FeatureRow, metric string) float64 {
	var sum float64
	for _, r := range rows {
		diff := m.Predict(r) - float64(r.QuantitySold)
		if metric == MetricMAE {
			sum += math.Abs(diff)
		} else {
			sum += diff * diff
		}
	}
	n := float64(len(rows))
	if metric == MetricMAE {
		return sum / n
	}
	return math.Sqrt(sum / n)
}

// Supported validation metrics. Lower is better for both.
const (
	MetricRMSE = "rmse"
	MetricMAE  = "mae"
)
