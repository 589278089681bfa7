package automl

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"StockCast/internal/domain/models"
	domrepo "StockCast/internal/domain/repository"
	domsvc "StockCast/internal/domain/service"
	"StockCast/internal/services/features"
	"StockCast/pkg/logger"
)

// Budget bounds one search: wall-clock duration and candidate count.
type Budget struct {
	MaxDuration   time.Duration
	MaxCandidates int
}

// TrainedModel is the single selected candidate, opaque and immutable after
// selection. SchemaVersion pins the feature layout it was trained on.
type TrainedModel struct {
	CandidateID   string
	Family        string
	Params        string
	Score         float64
	Metric        string
	SchemaVersion string
	TrainedAt     time.Time

	model domsvc.Model
}

// Predict scores a single feature row with the selected model.
func (m *TrainedModel) Predict(r models.FeatureRow) float64 { return m.model.Predict(r) }

// Artifact is the serialized form of a TrainedModel: self-contained,
// loadable for prediction without the training environment.
type Artifact struct {
	SchemaVersion string          `json:"schema_version"`
	CandidateID   string          `json:"candidate_id"`
	Family        string          `json:"family"`
	Params        string          `json:"params"`
	Score         float64         `json:"score"`
	Metric        string          `json:"metric"`
	TrainedAt     time.Time       `json:"trained_at"`
	State         json.RawMessage `json:"state"`
}

// Marshal serializes the trained model into an artifact blob.
func (m *TrainedModel) Marshal() ([]byte, error) {
	state, err := m.model.State()
	if err != nil {
		return nil, fmt.Errorf("model state: %w", err)
	}
	return json.Marshal(Artifact{
		SchemaVersion: m.SchemaVersion,
		CandidateID:   m.CandidateID,
		Family:        m.Family,
		Params:        m.Params,
		Score:         m.Score,
		Metric:        m.Metric,
		TrainedAt:     m.TrainedAt,
		State:         state,
	})
}

// Unmarshal rebuilds a TrainedModel from an artifact blob using the
// registry's restore functions.
func (r *Registry) Unmarshal(blob []byte) (*TrainedModel, error) {
	var a Artifact
	if err := json.Unmarshal(blob, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	m, err := r.Restore(a.Family, a.State)
	if err != nil {
		return nil, err
	}
	return &TrainedModel{
		CandidateID:   a.CandidateID,
		Family:        a.Family,
		Params:        a.Params,
		Score:         a.Score,
		Metric:        a.Metric,
		SchemaVersion: a.SchemaVersion,
		TrainedAt:     a.TrainedAt,
		model:         m,
	}, nil
}

// Result carries the full ranked candidate list plus the winner.
type Result struct {
	Leaderboard models.Leaderboard
	Selected    *TrainedModel
}

// Orchestrator runs budgeted model searches over a candidate registry.
type Orchestrator struct {
	reg           *Registry
	metrics       domrepo.Metrics
	logger        *logger.Logger
	workers       int
	folds         int
	maxCandidates int
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithWorkers bounds the number of concurrent candidate trainings.
func WithWorkers(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithFolds sets the cross-validation fold count.
func WithFolds(k int) OrchestratorOption {
	return func(o *Orchestrator) {
		if k >= 2 {
			o.folds = k
		}
	}
}

// WithMaxCandidates caps how many candidates any single search may attempt,
// regardless of the per-request budget. Zero means no cap.
func WithMaxCandidates(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxCandidates = n
		}
	}
}

// SearchOption adjusts a single search run without touching the
// orchestrator's configured defaults.
type SearchOption func(*searchSettings)

type searchSettings struct {
	folds int
}

// SearchFolds overrides the cross-validation fold count for one search.
func SearchFolds(k int) SearchOption {
	return func(s *searchSettings) {
		if k >= 2 {
			s.folds = k
		}
	}
}

// NewOrchestrator creates an Orchestrator over the given registry.
func NewOrchestrator(reg *Registry, metrics domrepo.Metrics, l *logger.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{reg: reg, metrics: metrics, logger: l, workers: 4, folds: 5}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// completed is one finished candidate with its fitted model. A candidate
// either fully completes and is recorded, or is discarded; partial results
// never reach the board.
type completed struct {
	candidate models.ModelCandidate
	model     domsvc.Model
}

// board is the only mutable shared state during a search. Appends happen
// one-at-a-time under the mutex; once closed, late results are dropped.
type board struct {
	mu     sync.Mutex
	rows   []completed
	failed int
	closed bool
}

func (b *board) add(c completed) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.rows = append(b.rows, c)
}

func (b *board) fail() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.failed++
	}
}

func (b *board) snapshot() ([]completed, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	rows := make([]completed, len(b.rows))
	copy(rows, b.rows)
	return rows, b.failed
}

// Search trains up to budget.MaxCandidates families concurrently, stopping
// when the wall-clock budget elapses. Whatever completed by then is ranked;
// unfinished candidates are cancelled and ignored. Selection is
// deterministic: best score, then shortest training time, then earliest
// submission order.
func (o *Orchestrator) Search(ctx context.Context, rows []models.FeatureRow, budget Budget, seed int64, metric string, opts ...SearchOption) (*Result, error) {
	if len(rows) == 0 {
		return nil, &models.InsufficientDataError{}
	}
	if metric != MetricMAE {
		metric = MetricRMSE
	}
	settings := searchSettings{folds: o.folds}
	for _, opt := range opts {
		opt(&settings)
	}

	trainers := o.reg.Trainers()
	if budget.MaxCandidates > 0 && len(trainers) > budget.MaxCandidates {
		trainers = trainers[:budget.MaxCandidates]
	}
	if o.maxCandidates > 0 && len(trainers) > o.maxCandidates {
		trainers = trainers[:o.maxCandidates]
	}

	start := time.Now()
	searchCtx := ctx
	var cancel context.CancelFunc
	if budget.MaxDuration > 0 {
		searchCtx, cancel = context.WithTimeout(ctx, budget.MaxDuration)
	} else {
		// zero budget: already expired
		searchCtx, cancel = context.WithDeadline(ctx, start)
	}
	defer cancel()

	b := &board{}
	sem := make(chan struct{}, o.workers)
	var wg sync.WaitGroup

	for i, t := range trainers {
		wg.Add(1)
		go func(sub int, t domsvc.Trainer) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-searchCtx.Done():
				return
			}

			tStart := time.Now()
			model, score, err := o.trainOne(searchCtx, t, rows, settings.folds, seed, metric)
			if err != nil {
				if searchCtx.Err() == nil {
					o.metrics.RecordCandidate(t.Family(), "failed")
					o.logger.Warn("candidate training failed",
						logger.String("family", t.Family()),
						logger.String("params", t.Params()),
						logger.Error(err))
					b.fail()
				}
				return
			}
			o.metrics.RecordCandidate(t.Family(), "completed")
			b.add(completed{
				candidate: models.ModelCandidate{
					ID:         fmt.Sprintf("%s[%s]", t.Family(), t.Params()),
					Family:     t.Family(),
					Params:     t.Params(),
					Score:      score,
					Metric:     metric,
					TrainTime:  time.Since(tStart),
					Submission: sub,
				},
				model: model,
			})
		}(i, t)
	}

	// trainers observe ctx and unwind shortly after the deadline, so this
	// join is bounded by the budget plus teardown
	wg.Wait()

	finished, failed := b.snapshot()
	elapsed := time.Since(start)
	o.metrics.RecordLatency("search", elapsed.Seconds())

	if len(finished) == 0 {
		return nil, &models.NoCandidatesCompletedError{
			Budget:    budget.MaxDuration,
			Attempted: len(trainers),
			Failed:    failed,
		}
	}

	sort.Slice(finished, func(i, j int) bool {
		a, b := finished[i].candidate, finished[j].candidate
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		if a.TrainTime != b.TrainTime {
			return a.TrainTime < b.TrainTime
		}
		return a.Submission < b.Submission
	})

	winner := finished[0]
	o.metrics.RecordSelectedScore(winner.candidate.Family, winner.candidate.Score)
	o.logger.Info("search complete",
		logger.String("selected", winner.candidate.ID),
		logger.Any("score", winner.candidate.Score),
		logger.Int("completed", len(finished)),
		logger.Int("failed", failed),
		logger.Duration("elapsed", elapsed))

	candidates := make([]models.ModelCandidate, len(finished))
	for i, c := range finished {
		candidates[i] = c.candidate
	}

	return &Result{
		Leaderboard: models.Leaderboard{
			Candidates: candidates,
			SelectedID: winner.candidate.ID,
			SearchTime: elapsed,
			Completed:  len(finished),
			Failed:     failed,
		},
		Selected: &TrainedModel{
			CandidateID:   winner.candidate.ID,
			Family:        winner.candidate.Family,
			Params:        winner.candidate.Params,
			Score:         winner.candidate.Score,
			Metric:        metric,
			SchemaVersion: features.SchemaVersion,
			TrainedAt:     time.Now(),
			model:         winner.model,
		},
	}, nil
}

// trainOne cross-validates for the score, then refits on the full table so
// the recorded model has seen every row.
func (o *Orchestrator) trainOne(ctx context.Context, t domsvc.Trainer, rows []models.FeatureRow, folds int, seed int64, metric string) (domsvc.Model, float64, error) {
	score, err := crossValidate(ctx, t, rows, folds, seed, metric)
	if err != nil {
		return nil, 0, err
	}
	model, err := t.Train(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return model, score, nil
}
