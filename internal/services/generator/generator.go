package generator

import (
	"math"
	"math/rand"
	"time"

	"StockCast/internal/domain/models"
)

// Params controls the demand structure embedded in the synthetic data.
// Every field is taken as given, zero included; start from DefaultParams
// and override to get the reference behavior with adjustments.
type Params struct {
	SeasonalAmplitude float64      // sinusoid amplitude around 1.0, period 365 days
	WeekendFactor     float64      // multiplier on Saturday/Sunday, > 1
	HolidayFactor     float64      // multiplier during holiday months, > 1
	HolidayMonths     []time.Month // months treated as holiday season
	PromotionRate     float64      // probability a product-day is on promotion
	PromotionUplift   float64      // demand multiplier on promotion days; 1.0 = record-only
	NoiseLow          float64      // uniform noise bounds applied to demand
	NoiseHigh         float64
	PromoDiscount     float64 // price multiplier on promotion days
	StockMin          int     // uniform stock level bounds
	StockMax          int
}

// DefaultParams mirrors the demand structure of the reference dataset:
// ±30% annual seasonality, 1.3x weekends, 2x November/December, 10%
// promotion rate. PromotionUplift defaults to 1.0 so the stored flag does
// not inflate generated demand unless explicitly configured.
func DefaultParams() Params {
	return Params{
		SeasonalAmplitude: 0.3,
		WeekendFactor:     1.3,
		HolidayFactor:     2.0,
		HolidayMonths:     []time.Month{time.November, time.December},
		PromotionRate:     0.1,
		PromotionUplift:   1.0,
		NoiseLow:          0.7,
		NoiseHigh:         1.3,
		PromoDiscount:     0.8,
		StockMin:          20,
		StockMax:          300,
	}
}

// Generator produces synthetic per-product daily observations.
type Generator struct {
	params Params
}

// New creates a Generator. Params are used as given; only structurally
// impossible combinations are repaired.
func New(params Params) *Generator {
	if params.PromotionRate < 0 {
		params.PromotionRate = 0
	}
	if params.PromotionRate > 1 {
		params.PromotionRate = 1
	}
	if params.NoiseHigh < params.NoiseLow {
		params.NoiseLow, params.NoiseHigh = params.NoiseHigh, params.NoiseLow
	}
	if params.StockMax < params.StockMin {
		params.StockMin, params.StockMax = params.StockMax, params.StockMin
	}
	return &Generator{params: params}
}

// Generate produces one Observation per product per day in [from, to],
// inclusive. Output is a pure function of the inputs: identical products,
// range, and seed reproduce an identical sequence. Rows are ordered by
// product (input order) then date ascending.
func (g *Generator) Generate(products []models.ProductSpec, from, to time.Time, seed int64) ([]models.Observation, error) {
	if len(products) == 0 {
		return nil, &models.InvalidSpecError{Reason: "empty product set"}
	}
	from = from.Truncate(24 * time.Hour)
	to = to.Truncate(24 * time.Hour)
	if to.Before(from) {
		return nil, &models.InvalidSpecError{Reason: "empty date range"}
	}
	for _, p := range products {
		if p.ID == "" {
			return nil, &models.InvalidSpecError{Reason: "product with empty id"}
		}
		if p.BasePrice <= 0 {
			return nil, &models.InvalidSpecError{Reason: "product " + p.ID + " has non-positive base price"}
		}
	}

	days := int(to.Sub(from).Hours()/24) + 1
	rng := rand.New(rand.NewSource(seed))
	out := make([]models.Observation, 0, len(products)*days)

	for _, p := range products {
		base := p.BaseDemand
		if base <= 0 {
			// deterministic per-product base in the reference range 5..50
			base = 5 + rng.Float64()*45
		}
		for d := 0; d < days; d++ {
			date := from.AddDate(0, 0, d)
			onPromo := rng.Float64() < g.params.PromotionRate

			demand := base *
				g.seasonalFactor(date.YearDay()) *
				g.weekendFactor(date.Weekday()) *
				g.holidayFactor(date.Month())
			if onPromo {
				demand *= g.params.PromotionUplift
			}
			demand *= g.params.NoiseLow + rng.Float64()*(g.params.NoiseHigh-g.params.NoiseLow)

			qty := int(demand)
			if qty < 1 {
				qty = 1
			}

			price := p.BasePrice
			if onPromo {
				price *= g.params.PromoDiscount
			}
			price *= 0.95 + rng.Float64()*0.1
			price = math.Round(price*100) / 100

			stock := g.params.StockMin
			if g.params.StockMax > g.params.StockMin {
				stock += rng.Intn(g.params.StockMax - g.params.StockMin)
			}

			out = append(out, models.Observation{
				Date:         date,
				ProductID:    p.ID,
				Category:     p.Category,
				QuantitySold: qty,
				Price:        price,
				StockLevel:   stock,
				OnPromotion:  onPromo,
			})
		}
	}
	return out, nil
}

func (g *Generator) seasonalFactor(yearDay int) float64 {
	return 1 + g.params.SeasonalAmplitude*math.Sin(2*math.Pi*float64(yearDay)/365)
}

func (g *Generator) weekendFactor(wd time.Weekday) float64 {
	if wd == time.Saturday || wd == time.Sunday {
		return g.params.WeekendFactor
	}
	return 1
}

func (g *Generator) holidayFactor(m time.Month) float64 {
	for _, hm := range g.params.HolidayMonths {
		if m == hm {
			return g.params.HolidayFactor
		}
	}
	return 1
}

// DefaultProducts builds n product specs cycling through the category set,
// with deterministic base prices. Useful for demo datasets.
func DefaultProducts(n int) []models.ProductSpec {
	cats := models.Categories()
	out := make([]models.ProductSpec, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.ProductSpec{
			ID:        productID(i),
			Category:  cats[i%len(cats)],
			BasePrice: 5 + float64(i%40)*4.75,
		})
	}
	return out
}

func productID(i int) string {
	const digits = "0123456789"
	return "PROD_" + string([]byte{
		digits[(i/100)%10],
		digits[(i/10)%10],
		digits[i%10],
	})
}
