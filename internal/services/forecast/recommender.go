package forecast

import (
	"math"
	"time"

	"StockCast/internal/domain/models"
)

// Urgency thresholds in days of cover.
const (
	coverCritical = 1.0
	coverHigh     = 3.0
	coverMedium   = 7.0
)

// Recommender turns a forecast plus current stock into a reorder decision.
type Recommender struct{}

// NewRecommender creates a Recommender.
func NewRecommender() *Recommender { return &Recommender{} }

// Recommend sizes a reorder for one product. Demand over the lead time comes
// from the forecast; safety stock scales with the forecast's interval width
// and the service-level z-value. The reorder quantity is never negative.
func (r *Recommender) Recommend(forecast []models.ForecastPoint, currentStock int, leadTimeDays int, serviceLevel float64) (*models.Recommendation, error) {
	if len(forecast) == 0 {
		return nil, &models.InsufficientDataError{}
	}
	if leadTimeDays <= 0 {
		leadTimeDays = 1
	}
	if leadTimeDays > len(forecast) {
		leadTimeDays = len(forecast)
	}

	var leadDemand, widthSum float64
	for _, p := range forecast[:leadTimeDays] {
		leadDemand += p.PredictedQuantity
		widthSum += (p.IntervalHigh - p.IntervalLow) / 2
	}
	avgWidth := widthSum / float64(leadTimeDays)

	// daily uncertainty compounds over the lead time
	safety := zValue(serviceLevel) * avgWidth * math.Sqrt(float64(leadTimeDays))

	reorder := leadDemand - float64(currentStock) + safety
	if reorder < 0 {
		reorder = 0
	}

	var dailyDemand float64
	for _, p := range forecast {
		dailyDemand += p.PredictedQuantity
	}
	dailyDemand /= float64(len(forecast))

	daysOfCover := math.Inf(1)
	if dailyDemand > 0 {
		daysOfCover = float64(currentStock) / dailyDemand
	}

	return &models.Recommendation{
		ProductID:       forecast[0].ProductID,
		ReorderQuantity: int(math.Ceil(reorder)),
		Urgency:         urgencyFor(daysOfCover),
		DaysOfCover:     daysOfCover,
		GeneratedAt:     time.Now().UTC(),
	}, nil
}

func urgencyFor(daysOfCover float64) models.Urgency {
	switch {
	case daysOfCover < coverCritical:
		return models.UrgencyCritical
	case daysOfCover < coverHigh:
		return models.UrgencyHigh
	case daysOfCover < coverMedium:
		return models.UrgencyMedium
	default:
		return models.UrgencyLow
	}
}

// zTable maps service-level targets to one-sided normal quantiles.
var zTable = []struct {
	level float64
	z     float64
}{
	{0.50, 0.0},
	{0.80, 0.8416},
	{0.90, 1.2816},
	{0.95, 1.6449},
	{0.99, 2.3263},
}

// zValue interpolates the z quantile for the target service level. Targets
// outside [0.50, 0.99] clamp to the table edges.
func zValue(level float64) float64 {
	if level <= zTable[0].level {
		return zTable[0].z
	}
	last := zTable[len(zTable)-1]
	if level >= last.level {
		return last.z
	}
	for i := 1; i < len(zTable); i++ {
		if level <= zTable[i].level {
			lo, hi := zTable[i-1], zTable[i]
			frac := (level - lo.level) / (hi.level - lo.level)
			return lo.z + frac*(hi.z-lo.z)
		}
	}
	return last.z
}
