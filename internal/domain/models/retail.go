package models

import "time"

// Category is a fixed product grouping used across generation and training.
type Category string

const (
	CategoryGrocery     Category = "grocery"
	CategoryBeverages   Category = "beverages"
	CategoryHousehold   Category = "household"
	CategoryElectronics Category = "electronics"
	CategoryApparel     Category = "apparel"
	CategoryPersonal    Category = "personal_care"
	CategoryToys        Category = "toys"
	CategorySeasonal    Category = "seasonal"
)

// Categories lists every valid category.
func Categories() []Category {
	return []Category{
		CategoryGrocery, CategoryBeverages, CategoryHousehold, CategoryElectronics,
		CategoryApparel, CategoryPersonal, CategoryToys, CategorySeasonal,
	}
}

// IsValidCategory returns true if c is a known category.
func IsValidCategory(c Category) bool {
	for _, v := range Categories() {
		if v == c {
			return true
		}
	}
	return false
}

// ProductSpec describes a product handed to the data generator.
// It is a grouping key plus generation parameters, not a stateful entity.
type ProductSpec struct {
	ID         string
	Category   Category
	BasePrice  float64
	BaseDemand float64
}

// Observation is one product-day sales/stock record. Immutable once
// generated or ingested.
type Observation struct {
	Date         time.Time `json:"date"`
	ProductID    string    `json:"product_id"`
	Category     Category  `json:"category"`
	QuantitySold int       `json:"quantity_sold"`
	Price        float64   `json:"price"`
	StockLevel   int       `json:"stock_level"`
	OnPromotion  bool      `json:"on_promotion"`
}

// FeatureRow is an Observation enriched with calendar and trailing
// rolling-window statistics. Rolling means at date d are computed strictly
// from observations with date < d for the same product.
type FeatureRow struct {
	Date         time.Time `json:"date"`
	ProductID    string    `json:"product_id"`
	Category     Category  `json:"category"`
	QuantitySold int       `json:"quantity_sold"`
	Price        float64   `json:"price"`
	StockLevel   int       `json:"stock_level"`
	OnPromotion  bool      `json:"on_promotion"`

	DayOfWeek       int     `json:"day_of_week"`
	Month           int     `json:"month"`
	IsWeekend       bool    `json:"is_weekend"`
	IsHolidaySeason bool    `json:"is_holiday_season"`
	QtyAvg7         float64 `json:"quantity_sold_7d_avg"`
	QtyAvg30        float64 `json:"quantity_sold_30d_avg"`
}

// ForecastPoint is a single predicted product-day demand. Never mutated
// after creation.
type ForecastPoint struct {
	ProductID         string    `json:"product_id"`
	Date              time.Time `json:"date"`
	PredictedQuantity float64   `json:"predicted_quantity"`
	IntervalLow       float64   `json:"interval_low,omitempty"`
	IntervalHigh      float64   `json:"interval_high,omitempty"`
}

// Urgency classifies how soon a reorder is needed.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Recommendation is a derived, stateless reorder suggestion for a product.
type Recommendation struct {
	ProductID       string    `json:"product_id"`
	ReorderQuantity int       `json:"reorder_quantity"`
	Urgency         Urgency   `json:"urgency_level"`
	DaysOfCover     float64   `json:"days_of_cover"`
	GeneratedAt     time.Time `json:"generated_at"`
}
