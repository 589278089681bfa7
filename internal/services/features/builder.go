package features

import (
	"sort"
	"time"

	"StockCast/internal/domain/models"
)

// SchemaVersion identifies the feature layout produced by this package.
// Model artifacts carry this tag; predictions on a mismatched tag are
// rejected rather than silently producing garbage.
const SchemaVersion = "v2-calendar-rolling7-30"

const (
	windowShort = 7
	windowLong  = 30
)

// Builder derives calendar and rolling-window features from observations.
type Builder struct {
	// WarmupDefault is used for the rolling means of a product's first day,
	// where no prior observations exist.
	WarmupDefault float64
}

// NewBuilder creates a Builder with a zero warm-up default.
func NewBuilder() *Builder { return &Builder{} }

// Build derives one FeatureRow per Observation. Observations are grouped by
// product (first-seen order preserved) and sorted by date within each group.
// Rolling means at date d use only observations strictly before d within the
// same product group; the first (window-1) days use however many prior
// observations exist rather than zero-padding.
func (b *Builder) Build(obs []models.Observation) ([]models.FeatureRow, error) {
	if len(obs) == 0 {
		return nil, &models.InsufficientDataError{}
	}

	groups := make(map[string][]models.Observation)
	order := make([]string, 0)
	for _, o := range obs {
		if _, ok := groups[o.ProductID]; !ok {
			order = append(order, o.ProductID)
		}
		groups[o.ProductID] = append(groups[o.ProductID], o)
	}

	out := make([]models.FeatureRow, 0, len(obs))
	for _, pid := range order {
		g := groups[pid]
		sort.Slice(g, func(i, j int) bool { return g[i].Date.Before(g[j].Date) })
		out = append(out, b.buildGroup(g)...)
	}
	return out, nil
}

func (b *Builder) buildGroup(g []models.Observation) []models.FeatureRow {
	// prefix[i] = sum of quantities for indices [0, i)
	prefix := make([]float64, len(g)+1)
	for i, o := range g {
		prefix[i+1] = prefix[i] + float64(o.QuantitySold)
	}

	rows := make([]models.FeatureRow, 0, len(g))
	for i, o := range g {
		rows = append(rows, models.FeatureRow{
			Date:            o.Date,
			ProductID:       o.ProductID,
			Category:        o.Category,
			QuantitySold:    o.QuantitySold,
			Price:           o.Price,
			StockLevel:      o.StockLevel,
			OnPromotion:     o.OnPromotion,
			DayOfWeek:       int(o.Date.Weekday()),
			Month:           int(o.Date.Month()),
			IsWeekend:       IsWeekend(o.Date),
			IsHolidaySeason: IsHolidaySeason(o.Date),
			QtyAvg7:         b.trailingMean(prefix, i, windowShort),
			QtyAvg30:        b.trailingMean(prefix, i, windowLong),
		})
	}
	return rows
}

// trailingMean averages up to window observations strictly before index i.
func (b *Builder) trailingMean(prefix []float64, i, window int) float64 {
	if i == 0 {
		return b.WarmupDefault
	}
	lo := i - window
	if lo < 0 {
		lo = 0
	}
	return (prefix[i] - prefix[lo]) / float64(i-lo)
}

// Vector flattens a FeatureRow into the numeric layout shared by trainers
// and the predictor. Order is part of SchemaVersion.
func Vector(r models.FeatureRow) []float64 {
	return []float64{
		r.Price,
		float64(r.DayOfWeek),
		float64(r.Month),
		boolToF(r.IsWeekend),
		boolToF(r.IsHolidaySeason),
		boolToF(r.OnPromotion),
		r.QtyAvg7,
		r.QtyAvg30,
		float64(r.StockLevel),
	}
}

// VectorDim is the length of the slices returned by Vector.
const VectorDim = 9

func boolToF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// CalendarRow builds a FeatureRow skeleton for a future date, used when
// constructing prediction inputs where no Observation exists yet.
func CalendarRow(productID string, cat models.Category, date time.Time) models.FeatureRow {
	return models.FeatureRow{
		Date:            date,
		ProductID:       productID,
		Category:        cat,
		DayOfWeek:       int(date.Weekday()),
		Month:           int(date.Month()),
		IsWeekend:       IsWeekend(date),
		IsHolidaySeason: IsHolidaySeason(date),
	}
}
