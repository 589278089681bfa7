package models

// Requests for the forecasting HTTP endpoints. Defined in domain for
// consistency and reuse.

type GenerateRequest struct {
	Products int    `json:"products" default:"20" validate:"gte=1,lte=500"`
	Days     int    `json:"days" default:"365" validate:"gte=1,lte=3650"`
	Seed     int64  `json:"seed" default:"42"`
	Start    string `json:"start" default:"2024-01-01"`
}

type SearchRequest struct {
	MaxDurationSecs int    `json:"max_duration_secs" default:"120" validate:"gte=0,lte=3600"`
	MaxCandidates   int    `json:"max_candidates" default:"8" validate:"gte=1,lte=64"`
	Folds           int    `json:"folds" default:"5" validate:"gte=2,lte=10"`
	Seed            int64  `json:"seed" default:"42"`
	Metric          string `json:"metric" default:"rmse" validate:"oneof=rmse mae"`
}

type PipelineRequest struct {
	Generate GenerateRequest `json:"generate"`
	Search   SearchRequest   `json:"search"`
}

type ForecastRequest struct {
	ProductID string `query:"product_id" json:"product_id" validate:"required"`
	Days      int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=90"`
}

type RecommendRequest struct {
	ProductID    string  `query:"product_id" json:"product_id" validate:"required"`
	Stock        int     `query:"stock" json:"stock" validate:"gte=0"`
	LeadTimeDays int     `query:"lead_time_days" json:"lead_time_days" default:"7" validate:"gte=1,lte=90"`
	ServiceLevel float64 `query:"service_level" json:"service_level" default:"0.95" validate:"gte=0.5,lt=1"`
}
