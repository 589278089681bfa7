package automl

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"StockCast/internal/domain/models"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/services/features"
)

// Model family identifiers. These tag serialized artifacts, so renaming one
// invalidates previously saved models.
const (
	FamilySeasonalNaive = "seasonal_naive"
	FamilyMovingAvg     = "moving_avg"
	FamilyExpSmoothing  = "exp_smoothing"
	FamilyRidge         = "ridge"
)

// --- seasonal naive ---

// seasonalNaiveTrainer predicts the historical mean for the same product and
// weekday, falling back to the product mean, then the global mean.
type seasonalNaiveTrainer struct{}

type seasonalNaiveState struct {
	ByProductDay map[string][7]float64 `json:"by_product_day"`
	ByProduct    map[string]float64    `json:"by_product"`
	GlobalMean   float64               `json:"global_mean"`
}

type seasonalNaiveModel struct{ s seasonalNaiveState }

func (t seasonalNaiveTrainer) Family() string { return FamilySeasonalNaive }
func (t seasonalNaiveTrainer) Params() string { return "period=weekly" }

func (t seasonalNaiveTrainer) Train(ctx context.Context, rows []models.FeatureRow) (domsvc.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	type acc struct {
		sum [7]float64
		n   [7]int
	}
	perProduct := make(map[string]*acc)
	var gSum float64
	for i, r := range rows {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		a := perProduct[r.ProductID]
		if a == nil {
			a = &acc{}
			perProduct[r.ProductID] = a
		}
		a.sum[r.DayOfWeek] += float64(r.QuantitySold)
		a.n[r.DayOfWeek]++
		gSum += float64(r.QuantitySold)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("seasonal naive: no training rows")
	}

	s := seasonalNaiveState{
		ByProductDay: make(map[string][7]float64, len(perProduct)),
		ByProduct:    make(map[string]float64, len(perProduct)),
		GlobalMean:   gSum / float64(len(rows)),
	}
	for pid, a := range perProduct {
		var days [7]float64
		var pSum float64
		var pN int
		for d := 0; d < 7; d++ {
			if a.n[d] > 0 {
				days[d] = a.sum[d] / float64(a.n[d])
			}
			pSum += a.sum[d]
			pN += a.n[d]
		}
		s.ByProductDay[pid] = days
		s.ByProduct[pid] = pSum / float64(pN)
	}
	return &seasonalNaiveModel{s: s}, nil
}

func (t seasonalNaiveTrainer) Restore(state []byte) (domsvc.Model, error) {
	var s seasonalNaiveState
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("restore seasonal naive: %w", err)
	}
	return &seasonalNaiveModel{s: s}, nil
}

func (m *seasonalNaiveModel) Predict(r models.FeatureRow) float64 {
	if days, ok := m.s.ByProductDay[r.ProductID]; ok {
		if v := days[r.DayOfWeek%7]; v > 0 {
			return v
		}
		return m.s.ByProduct[r.ProductID]
	}
	return m.s.GlobalMean
}

func (m *seasonalNaiveModel) State() ([]byte, error) { return json.Marshal(m.s) }

// --- calibrated moving average ---

// movingAvgTrainer scales the precomputed trailing mean by a global
// calibration ratio learned from the training rows.
type movingAvgTrainer struct {
	window int // 7 or 30
}

type movingAvgState struct {
	Window      int     `json:"window"`
	Calibration float64 `json:"calibration"`
	Fallback    float64 `json:"fallback"`
}

type movingAvgModel struct{ s movingAvgState }

func (t movingAvgTrainer) Family() string { return FamilyMovingAvg }
func (t movingAvgTrainer) Params() string { return fmt.Sprintf("window=%d", t.window) }

func (t movingAvgTrainer) Train(ctx context.Context, rows []models.FeatureRow) (domsvc.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var sumActual, sumAvg, sumAll float64
	var nAll int
	for i, r := range rows {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		avg := t.pick(r)
		if avg > 0 {
			sumActual += float64(r.QuantitySold)
			sumAvg += avg
		}
		sumAll += float64(r.QuantitySold)
		nAll++
	}
	if nAll == 0 {
		return nil, fmt.Errorf("moving avg: no training rows")
	}
	calib := 1.0
	if sumAvg > 0 {
		calib = sumActual / sumAvg
	}
	return &movingAvgModel{s: movingAvgState{
		Window:      t.window,
		Calibration: calib,
		Fallback:    sumAll / float64(nAll),
	}}, nil
}

func (t movingAvgTrainer) Restore(state []byte) (domsvc.Model, error) {
	var s movingAvgState
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("restore moving avg: %w", err)
	}
	return &movingAvgModel{s: s}, nil
}

func (t movingAvgTrainer) pick(r models.FeatureRow) float64 {
	if t.window >= 30 {
		return r.QtyAvg30
	}
	return r.QtyAvg7
}

func (m *movingAvgModel) Predict(r models.FeatureRow) float64 {
	avg := r.QtyAvg7
	if m.s.Window >= 30 {
		avg = r.QtyAvg30
	}
	if avg <= 0 {
		return m.s.Fallback
	}
	return m.s.Calibration * avg
}

func (m *movingAvgModel) State() ([]byte, error) { return json.Marshal(m.s) }

// --- exponential smoothing ---

// expSmoothingTrainer maintains a per-product exponentially weighted level
// over the product's history in date order.
type expSmoothingTrainer struct {
	alpha float64
}

type expSmoothingState struct {
	Alpha      float64            `json:"alpha"`
	Levels     map[string]float64 `json:"levels"`
	GlobalMean float64            `json:"global_mean"`
}

type expSmoothingModel struct{ s expSmoothingState }

func (t expSmoothingTrainer) Family() string { return FamilyExpSmoothing }
func (t expSmoothingTrainer) Params() string { return fmt.Sprintf("alpha=%.2f", t.alpha) }

func (t expSmoothingTrainer) Train(ctx context.Context, rows []models.FeatureRow) (domsvc.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byProduct := make(map[string][]models.FeatureRow)
	var gSum float64
	for _, r := range rows {
		byProduct[r.ProductID] = append(byProduct[r.ProductID], r)
		gSum += float64(r.QuantitySold)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("exp smoothing: no training rows")
	}

	levels := make(map[string]float64, len(byProduct))
	for pid, g := range byProduct {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sort.Slice(g, func(i, j int) bool { return g[i].Date.Before(g[j].Date) })
		level := float64(g[0].QuantitySold)
		for _, r := range g[1:] {
			level = t.alpha*float64(r.QuantitySold) + (1-t.alpha)*level
		}
		levels[pid] = level
	}
	return &expSmoothingModel{s: expSmoothingState{
		Alpha:      t.alpha,
		Levels:     levels,
		GlobalMean: gSum / float64(len(rows)),
	}}, nil
}

func (t expSmoothingTrainer) Restore(state []byte) (domsvc.Model, error) {
	var s expSmoothingState
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("restore exp smoothing: %w", err)
	}
	return &expSmoothingModel{s: s}, nil
}

func (m *expSmoothingModel) Predict(r models.FeatureRow) float64 {
	if level, ok := m.s.Levels[r.ProductID]; ok {
		return level
	}
	return m.s.GlobalMean
}

func (m *expSmoothingModel) State() ([]byte, error) { return json.Marshal(m.s) }

// --- ridge regression ---

// ridgeTrainer fits a linear model on the standardized feature vector using
// the closed-form normal equations with L2 regularization.
type ridgeTrainer struct {
	lambda float64
}

type ridgeState struct {
	Lambda    float64   `json:"lambda"`
	Weights   []float64 `json:"weights"` // len VectorDim
	Intercept float64   `json:"intercept"`
	Means     []float64 `json:"means"`
	Stds      []float64 `json:"stds"`
}

type ridgeModel struct{ s ridgeState }

func (t ridgeTrainer) Family() string { return FamilyRidge }
func (t ridgeTrainer) Params() string { return fmt.Sprintf("lambda=%.2f", t.lambda) }

func (t ridgeTrainer) Train(ctx context.Context, rows []models.FeatureRow) (domsvc.Model, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("ridge: no training rows")
	}
	dim := features.VectorDim

	// column means/stds for standardization
	means := make([]float64, dim)
	stds := make([]float64, dim)
	vecs := make([][]float64, len(rows))
	for i, r := range rows {
		if i%2048 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v := features.Vector(r)
		vecs[i] = v
		for j, x := range v {
			means[j] += x
		}
	}
	n := float64(len(rows))
	for j := range means {
		means[j] /= n
	}
	for _, v := range vecs {
		for j, x := range v {
			d := x - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	// accumulate XtX and Xty on standardized columns
	xtx := make([][]float64, dim)
	for j := range xtx {
		xtx[j] = make([]float64, dim)
	}
	xty := make([]float64, dim)
	var ySum float64
	for i, v := range vecs {
		if i%2048 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		y := float64(rows[i].QuantitySold)
		ySum += y
		for j := 0; j < dim; j++ {
			xj := (v[j] - means[j]) / stds[j]
			xty[j] += xj * y
			for k := j; k < dim; k++ {
				xk := (v[k] - means[k]) / stds[k]
				xtx[j][k] += xj * xk
			}
		}
	}
	yMean := ySum / n
	for j := 0; j < dim; j++ {
		xtx[j][j] += t.lambda
		for k := 0; k < j; k++ {
			xtx[j][k] = xtx[k][j]
		}
	}

	w, err := solveSym(xtx, xty)
	if err != nil {
		return nil, fmt.Errorf("ridge: %w", err)
	}
	// set the intercept so the mean prediction matches the mean target
	var meanPred float64
	for _, v := range vecs {
		var p float64
		for j := 0; j < dim; j++ {
			p += w[j] * (v[j] - means[j]) / stds[j]
		}
		meanPred += p
	}
	meanPred /= n

	return &ridgeModel{s: ridgeState{
		Lambda:    t.lambda,
		Weights:   w,
		Intercept: yMean - meanPred,
		Means:     means,
		Stds:      stds,
	}}, nil
}

func (t ridgeTrainer) Restore(state []byte) (domsvc.Model, error) {
	var s ridgeState
	if err := json.Unmarshal(state, &s); err != nil {
		return nil, fmt.Errorf("restore ridge: %w", err)
	}
	if len(s.Weights) != features.VectorDim {
		return nil, fmt.Errorf("restore ridge: weight dim %d, want %d", len(s.Weights), features.VectorDim)
	}
	return &ridgeModel{s: s}, nil
}

func (m *ridgeModel) Predict(r models.FeatureRow) float64 {
	v := features.Vector(r)
	p := m.s.Intercept
	for j, w := range m.s.Weights {
		p += w * (v[j] - m.s.Means[j]) / m.s.Stds[j]
	}
	if p < 0 {
		p = 0
	}
	return p
}

func (m *ridgeModel) State() ([]byte, error) { return json.Marshal(m.s) }

// solveSym solves Ax = b for a symmetric positive-definite A using Gaussian
// elimination with partial pivoting. A and b are modified in place.
func solveSym(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		// pivot
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular system at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c < n; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}
	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < n; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, nil
}
