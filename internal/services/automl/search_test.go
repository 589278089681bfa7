package automl

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"StockCast/internal/domain/models"
	domsvc "StockCast/internal/domain/service"
	applogger "StockCast/pkg/logger"
)

type noopMetrics struct{}

func (noopMetrics) RecordObservation(string, string)  {}
func (noopMetrics) RecordCandidate(string, string)    {}
func (noopMetrics) RecordSelectedScore(string, float64) {}
func (noopMetrics) RecordError(string)                {}
func (noopMetrics) RecordLatency(string, float64)     {}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// stubTrainer always predicts a constant, so its CV score is deterministic.
type stubTrainer struct {
	family  string
	predict float64
	delay   time.Duration
	fail    bool
}

type stubModel struct{ v float64 }

func (m stubModel) Predict(models.FeatureRow) float64 { return m.v }
func (m stubModel) State() ([]byte, error)            { return []byte(fmt.Sprintf(`{"v":%g}`, m.v)), nil }

func (s stubTrainer) Family() string { return s.family }
func (s stubTrainer) Params() string { return "stub" }

func (s stubTrainer) Train(ctx context.Context, rows []models.FeatureRow) (domsvc.Model, error) {
	if s.fail {
		return nil, fmt.Errorf("stub failure")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return stubModel{v: s.predict}, nil
}

func (s stubTrainer) Restore(state []byte) (domsvc.Model, error) {
	return stubModel{v: s.predict}, nil
}

func trainingRows(n int) []models.FeatureRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.FeatureRow, n)
	for i := range out {
		out[i] = models.FeatureRow{
			Date:         start.AddDate(0, 0, i),
			ProductID:    fmt.Sprintf("P%d", i%3),
			QuantitySold: 10 + i%5,
		}
	}
	return out
}

func TestSearchSelectsBestScore(t *testing.T) {
	reg := NewEmptyRegistry()
	// target mean is ~12; predict=12 scores far better than predict=50
	reg.Register(func() domsvc.Trainer { return stubTrainer{family: "far", predict: 50} })
	reg.Register(func() domsvc.Trainer { return stubTrainer{family: "close", predict: 12} })

	o := NewOrchestrator(reg, noopMetrics{}, testLogger(t), WithWorkers(2), WithFolds(3))
	res, err := o.Search(context.Background(), trainingRows(60), Budget{MaxDuration: 5 * time.Second}, 42, MetricRMSE)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Selected.Family != "close" {
		t.Fatalf("selected %s, want close", res.Selected.Family)
	}
	if res.Leaderboard.Completed != 2 {
		t.Fatalf("completed = %d, want 2", res.Leaderboard.Completed)
	}
	// leaderboard sorted ascending by score
	if res.Leaderboard.Candidates[0].Score > res.Leaderboard.Candidates[1].Score {
		t.Fatalf("leaderboard not sorted by score")
	}
}

func TestSearchZeroBudget(t *testing.T) {
	reg := NewEmptyRegistry()
	reg.Register(func() domsvc.Trainer { return stubTrainer{family: "slow", predict: 10, delay: time.Second} })

	o := NewOrchestrator(reg, noopMetrics{}, testLogger(t), WithFolds(2))
	_, err := o.Search(context.Background(), trainingRows(20), Budget{}, 1, MetricRMSE)

	var noCand *models.NoCandidatesCompletedError
	if !errors.As(err, &noCand) {
		t.Fatalf("got %v, want NoCandidatesCompletedError", err)
	}
}

func TestSearchMaxCandidates(t *testing.T) {
	reg := NewEmptyRegistry()
	for i := 0; i < 6; i++ {
		fam := fmt.Sprintf("fam%d", i)
		reg.Register(func() domsvc.Trainer { return stubTrainer{family: fam, predict: 12} })
	}

	o := NewOrchestrator(reg, noopMetrics{}, testLogger(t), WithWorkers(4), WithFolds(2))
	res, err := o.Search(context.Background(), trainingRows(40), Budget{MaxDuration: 5 * time.Second, MaxCandidates: 3}, 1, MetricRMSE)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Leaderboard.Completed > 3 {
		t.Fatalf("completed %d candidates, budget allowed 3", res.Leaderboard.Completed)
	}
}

// countingTrainer records how many times Train runs, so fold counts are
// observable: one training per usable fold plus the final refit.
type countingTrainer struct {
	stubTrainer
	calls *int32
}

func (c countingTrainer) Train(ctx context.Context, rows []models.FeatureRow) (domsvc.Model, error) {
	atomic.AddInt32(c.calls, 1)
	return c.stubTrainer.Train(ctx, rows)
}

func TestSearchFoldsOverride(t *testing.T) {
	run := func(opts ...SearchOption) int32 {
		var calls int32
		reg := NewEmptyRegistry()
		reg.Register(func() domsvc.Trainer {
			return countingTrainer{stubTrainer{family: "counted", predict: 12}, &calls}
		})

		o := NewOrchestrator(reg, noopMetrics{}, testLogger(t), WithWorkers(1), WithFolds(2))
		if _, err := o.Search(context.Background(), trainingRows(60), Budget{MaxDuration: 5 * time.Second}, 1, MetricRMSE, opts...); err != nil {
			t.Fatalf("search: %v", err)
		}
		return atomic.LoadInt32(&calls)
	}

	base := run()
	more := run(SearchFolds(6))
	if more <= base {
		t.Fatalf("fold override ignored: %d trainings with override, %d without", more, base)
	}

	// sub-minimum override keeps the configured fold count
	same := run(SearchFolds(1))
	if same != base {
		t.Fatalf("invalid override changed fold count: %d trainings, want %d", same, base)
	}
}

func TestSearchConfiguredCandidateCap(t *testing.T) {
	reg := NewEmptyRegistry()
	for i := 0; i < 5; i++ {
		fam := fmt.Sprintf("fam%d", i)
		reg.Register(func() domsvc.Trainer { return stubTrainer{family: fam, predict: 12} })
	}

	// no per-request candidate budget: the orchestrator cap must still hold
	o := NewOrchestrator(reg, noopMetrics{}, testLogger(t), WithWorkers(4), WithFolds(2), WithMaxCandidates(2))
	res, err := o.Search(context.Background(), trainingRows(40), Budget{MaxDuration: 5 * time.Second}, 1, MetricRMSE)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Leaderboard.Completed > 2 {
		t.Fatalf("completed %d candidates, cap allowed 2", res.Leaderboard.Completed)
	}
}

func TestSearchToleratesFailingTrainer(t *testing.T) {
	reg := NewEmptyRegistry()
	reg.Register(func() domsvc.Trainer { return stubTrainer{family: "broken", fail: true} })
	reg.Register(func() domsvc.Trainer { return stubTrainer{family: "ok", predict: 12} })

	o := NewOrchestrator(reg, noopMetrics{}, testLogger(t), WithFolds(2))
	res, err := o.Search(context.Background(), trainingRows(40), Budget{MaxDuration: 5 * time.Second}, 1, MetricRMSE)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Selected.Family != "ok" {
		t.Fatalf("selected %s, want ok", res.Selected.Family)
	}
	if res.Leaderboard.Failed != 1 {
		t.Fatalf("failed = %d, want 1", res.Leaderboard.Failed)
	}
}

func TestSearchTieBreakBySubmission(t *testing.T) {
	// identical trainers: scores tie, train times are near-identical, so the
	// earlier submission must win on repeated runs
	for run := 0; run < 3; run++ {
		reg := NewEmptyRegistry()
		reg.Register(func() domsvc.Trainer { return stubTrainer{family: "first", predict: 12} })
		reg.Register(func() domsvc.Trainer { return stubTrainer{family: "second", predict: 12} })

		o := NewOrchestrator(reg, noopMetrics{}, testLogger(t), WithWorkers(1), WithFolds(2))
		res, err := o.Search(context.Background(), trainingRows(40), Budget{MaxDuration: 5 * time.Second}, 1, MetricRMSE)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		lb := res.Leaderboard.Candidates
		if lb[0].Score == lb[1].Score && lb[0].TrainTime == lb[1].TrainTime {
			if lb[0].Submission > lb[1].Submission {
				t.Fatalf("tie broken against submission order")
			}
		}
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	reg := NewRegistry()
	rows := trainingRows(80)

	o := NewOrchestrator(reg, noopMetrics{}, testLogger(t), WithFolds(3))
	res, err := o.Search(context.Background(), rows, Budget{MaxDuration: 30 * time.Second}, 42, MetricRMSE)
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	blob, err := res.Selected.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored, err := reg.Unmarshal(blob)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Family != res.Selected.Family || restored.SchemaVersion != res.Selected.SchemaVersion {
		t.Fatalf("restored metadata differs: %+v", restored)
	}

	want := res.Selected.Predict(rows[0])
	got := restored.Predict(rows[0])
	if want != got {
		t.Fatalf("restored model predicts %v, original %v", got, want)
	}
}

func TestUnmarshalUnknownFamily(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Unmarshal([]byte(`{"family":"nope","state":{}}`))
	if err == nil {
		t.Fatalf("expected error for unknown family")
	}
}
