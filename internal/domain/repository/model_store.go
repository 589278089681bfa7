package repository

import "context"

// ModelStore persists the selected model as an opaque serialized artifact.
// The artifact is replaced wholesale on retraining, never mutated in place.
type ModelStore interface {
	Save(ctx context.Context, name string, artifact []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}
