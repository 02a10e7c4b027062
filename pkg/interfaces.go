package shared

import (
	"context"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/ripixel/ironlog/pkg/domain/progression"
	"github.com/ripixel/ironlog/pkg/types"
)

// --- Persistence Interfaces ---

type Database interface {
	SetExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error

	// Catalog and history (read-only, written by the logging UI)
	// GetExercise returns nil, nil when the exercise does not exist.
	GetExercise(ctx context.Context, id string) (*progression.Exercise, error)
	ListSetsForExercise(ctx context.Context, exerciseID string) ([]*progression.Set, error)
	// GetWorkouts omits ids that do not exist.
	GetWorkouts(ctx context.Context, ids []string) (map[string]*progression.Workout, error)
	GetWeightJump(ctx context.Context) (float64, error)

	// Progression State (derived, replaced wholesale on recompute)
	// GetProgressionState returns nil, nil when no state has been computed.
	GetProgressionState(ctx context.Context, exerciseID string) (*progression.State, error)
	SetProgressionState(ctx context.Context, exerciseID string, state *progression.State) error
	DeleteProgressionState(ctx context.Context, exerciseID string) error
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}
