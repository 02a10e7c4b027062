package database

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ripixel/ironlog/pkg/domain/progression"
	storage "github.com/ripixel/ironlog/pkg/storage/firestore"
	"github.com/ripixel/ironlog/pkg/types"
)

// FirestoreAdapter provides database operations using Firestore
// It wraps our typed storage client
type FirestoreAdapter struct {
	Client    *firestore.Client
	storage   *storage.Client
	validator *validator.Validate
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{
		Client:    client,
		storage:   storage.NewClient(client),
		validator: validator.New(),
	}
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// --- Executions ---

func (a *FirestoreAdapter) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	return a.storage.Executions().Doc(record.ExecutionID).Set(ctx, record)
}

func (a *FirestoreAdapter) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	return a.storage.Executions().Doc(id).Update(ctx, data)
}

// --- Catalog ---

func (a *FirestoreAdapter) GetExercise(ctx context.Context, id string) (*progression.Exercise, error) {
	ex, err := a.storage.Exercises().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return ex, nil
}

// ListSetsForExercise returns every set logged against the exercise.
// Malformed documents are skipped so they can never reach the engine.
func (a *FirestoreAdapter) ListSetsForExercise(ctx context.Context, exerciseID string) ([]*progression.Set, error) {
	sets, err := a.storage.Sets().Where(ctx, "exercise_id", "==", exerciseID)
	if err != nil {
		return nil, err
	}

	valid := make([]*progression.Set, 0, len(sets))
	for _, s := range sets {
		if err := a.validator.Struct(s); err != nil {
			slog.Warn("Skipping malformed set", "set_id", s.ID, "exercise_id", exerciseID, "error", err)
			continue
		}
		valid = append(valid, s)
	}
	return valid, nil
}

func (a *FirestoreAdapter) GetWorkouts(ctx context.Context, ids []string) (map[string]*progression.Workout, error) {
	return a.storage.Workouts().GetAll(ctx, ids)
}

// GetWeightJump reads settings/app.weight_jump_lb, falling back to the
// default when the document or field is missing.
func (a *FirestoreAdapter) GetWeightJump(ctx context.Context) (float64, error) {
	snap, err := a.storage.Settings().Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return progression.DefaultWeightJumpLb, nil
		}
		return 0, err
	}

	v, err := snap.DataAt("weight_jump_lb")
	if err != nil {
		return progression.DefaultWeightJumpLb, nil
	}
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return n, nil
		}
	case int64:
		if n > 0 {
			return float64(n), nil
		}
	}
	return progression.DefaultWeightJumpLb, nil
}

// --- Progression State ---

func (a *FirestoreAdapter) GetProgressionState(ctx context.Context, exerciseID string) (*progression.State, error) {
	s, err := a.storage.ProgressionStates().Doc(exerciseID).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// SetProgressionState replaces the whole document in a single write so
// readers never see a partially updated state.
func (a *FirestoreAdapter) SetProgressionState(ctx context.Context, exerciseID string, state *progression.State) error {
	return a.storage.ProgressionStates().Doc(exerciseID).Set(ctx, state)
}

func (a *FirestoreAdapter) DeleteProgressionState(ctx context.Context, exerciseID string) error {
	return a.storage.ProgressionStates().Doc(exerciseID).Delete(ctx)
}
