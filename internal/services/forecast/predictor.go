package forecast

import (
	"sort"
	"time"

	"StockCast/internal/domain/models"
	"StockCast/internal/services/automl"
	"StockCast/internal/services/features"
)

// interval width multiplier for the ~90% band around the point forecast
const intervalZ = 1.645

// Predictor rolls a trained model forward over future dates, feeding each
// prediction back into the rolling-window features of the next day.
type Predictor struct{}

// NewPredictor creates a Predictor.
func NewPredictor() *Predictor { return &Predictor{} }

// Predict produces a forecast for the given horizon, one point per day
// starting the day after the last observation. History must contain the
// product's recent observations; they seed the rolling features. Returns
// StaleModelError if the model was trained on a different feature schema.
func (p *Predictor) Predict(m *automl.TrainedModel, history []models.Observation, horizon int) ([]models.ForecastPoint, error) {
	if m.SchemaVersion != features.SchemaVersion {
		return nil, &models.StaleModelError{
			ModelSchema:   m.SchemaVersion,
			CurrentSchema: features.SchemaVersion,
		}
	}
	if len(history) == 0 {
		return nil, &models.InsufficientDataError{}
	}
	if horizon <= 0 {
		return []models.ForecastPoint{}, nil
	}

	h := make([]models.Observation, len(history))
	copy(h, history)
	sort.Slice(h, func(i, j int) bool { return h[i].Date.Before(h[j].Date) })

	last := h[len(h)-1]
	productID := last.ProductID
	category := last.Category

	// trailing quantities, oldest first, capped at the long window
	quantities := make([]float64, 0, len(h))
	for _, o := range h {
		quantities = append(quantities, float64(o.QuantitySold))
	}

	width := intervalZ * m.Score
	out := make([]models.ForecastPoint, 0, horizon)
	for d := 1; d <= horizon; d++ {
		date := last.Date.AddDate(0, 0, d)
		row := features.CalendarRow(productID, category, date)
		row.Price = last.Price
		row.StockLevel = last.StockLevel
		row.QtyAvg7 = trailingMean(quantities, 7)
		row.QtyAvg30 = trailingMean(quantities, 30)

		pred := m.Predict(row)
		if pred < 0 {
			pred = 0
		}
		low := pred - width
		if low < 0 {
			low = 0
		}
		out = append(out, models.ForecastPoint{
			ProductID:         productID,
			Date:              date,
			PredictedQuantity: pred,
			IntervalLow:       low,
			IntervalHigh:      pred + width,
		})
		quantities = append(quantities, pred)
	}
	return out, nil
}

// trailingMean averages the last window values, or all of them if fewer.
func trailingMean(vals []float64, window int) float64 {
	if len(vals) == 0 {
		return 0
	}
	lo := len(vals) - window
	if lo < 0 {
		lo = 0
	}
	var sum float64
	for _, v := range vals[lo:] {
		sum += v
	}
	return sum / float64(len(vals)-lo)
}

// LastObservationDate returns the most recent date in a history slice.
func LastObservationDate(history []models.Observation) time.Time {
	var last time.Time
	for _, o := range history {
		if o.Date.After(last) {
			last = o.Date
		}
	}
	return last
}
