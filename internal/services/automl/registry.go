package automl

import (
	"fmt"

	domsvc "StockCast/internal/domain/service"
)

// Registry holds the candidate-model factories available to a search.
// Families are polymorphic over the domain Trainer capability, so adding or
// removing a family never touches the orchestrator.
type Registry struct {
	factories []func() domsvc.Trainer
}

// NewRegistry returns a registry with the default model families.
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(func() domsvc.Trainer { return seasonalNaiveTrainer{} })
	r.Register(func() domsvc.Trainer { return movingAvgTrainer{window: 7} })
	r.Register(func() domsvc.Trainer { return movingAvgTrainer{window: 30} })
	r.Register(func() domsvc.Trainer { return expSmoothingTrainer{alpha: 0.3} })
	r.Register(func() domsvc.Trainer { return expSmoothingTrainer{alpha: 0.6} })
	r.Register(func() domsvc.Trainer { return ridgeTrainer{lambda: 0.1} })
	r.Register(func() domsvc.Trainer { return ridgeTrainer{lambda: 1.0} })
	r.Register(func() domsvc.Trainer { return ridgeTrainer{lambda: 10.0} })
	return r
}

// NewEmptyRegistry returns a registry with no factories. Useful for tests
// that register stub trainers.
func NewEmptyRegistry() *Registry { return &Registry{} }

// Register appends a trainer factory. Submission order is preserved and is
// the final tie-break during selection.
func (r *Registry) Register(f func() domsvc.Trainer) {
	r.factories = append(r.factories, f)
}

// Trainers instantiates every registered family in submission order.
func (r *Registry) Trainers() []domsvc.Trainer {
	out := make([]domsvc.Trainer, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f())
	}
	return out
}

// Len returns the number of registered factories.
func (r *Registry) Len() int { return len(r.factories) }

// Restore rebuilds a model from its family tag and serialized state.
func (r *Registry) Restore(family string, state []byte) (domsvc.Model, error) {
	for _, f := range r.factories {
		t := f()
		if t.Family() == family {
			return t.Restore(state)
		}
	}
	return nil, fmt.Errorf("unknown model family %q", family)
}
