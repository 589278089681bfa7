package service

import (
	"context"

	"StockCast/internal/domain/models"
)

// Model is a trained demand model able to score a single feature row.
// State returns the serializable model parameters so the artifact can be
// reloaded without the training environment.
type Model interface {
	Predict(r models.FeatureRow) float64
	State() ([]byte, error)
}

// Trainer fits one model family / hyperparameter setting on a feature table.
// Train must honor ctx cancellation between units of work so the search
// budget can abandon in-flight candidates.
type Trainer interface {
	Family() string
	Params() string
	Train(ctx context.Context, rows []models.FeatureRow) (Model, error)
	Restore(state []byte) (Model, error)
}
