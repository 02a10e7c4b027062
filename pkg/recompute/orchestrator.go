// Package recompute rebuilds persisted progression state from logged history.
//
// It is the only writer of progression_states. Every change to an exercise's
// sets or workouts triggers a full replay rather than an incremental patch, so
// redundant or reordered recomputes converge on the same state.
package recompute

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	shared "github.com/ripixel/ironlog/pkg"
	"github.com/ripixel/ironlog/pkg/domain/progression"
	ierrors "github.com/ripixel/ironlog/pkg/errors"
	infrapubsub "github.com/ripixel/ironlog/pkg/infrastructure/pubsub"
	"github.com/ripixel/ironlog/pkg/types"
)

// Orchestrator reads history, replays it and commits the resulting state.
type Orchestrator struct {
	database   shared.Database
	publisher  shared.Publisher
	storage    shared.BlobStore
	bucketName string
	policy     progression.Policy
	logger     *slog.Logger
	now        func() time.Time
}

// NewOrchestrator creates a new orchestrator. The publisher and storage may
// be nil, in which case the corresponding post-commit step is skipped.
func NewOrchestrator(db shared.Database, pub shared.Publisher, store shared.BlobStore, bucketName string, policy progression.Policy) *Orchestrator {
	return &Orchestrator{
		database:   db,
		publisher:  pub,
		storage:    store,
		bucketName: bucketName,
		policy:     policy,
		logger:     slog.Default().With("component", "recompute"),
		now:        time.Now,
	}
}

// WithLogger binds request-scoped attributes such as execution_id.
func (o *Orchestrator) WithLogger(logger *slog.Logger) *Orchestrator {
	c := *o
	c.logger = logger.With("component", "recompute")
	return &c
}

// Result describes a completed recompute.
type Result struct {
	ExerciseID    string                  `json:"exercise_id"`
	Deleted       bool                    `json:"deleted,omitempty"`
	ExposureCount int                     `json:"exposure_count"`
	State         *progression.State      `json:"state,omitempty"`
	Suggestion    *progression.Suggestion `json:"suggestion,omitempty"`
	TraceURI      string                  `json:"trace_uri,omitempty"`
	Steps         []progression.Step      `json:"-"`
}

// Trace is the archived replay of one exercise.
type Trace struct {
	ExerciseID   string                 `json:"exercise_id"`
	RepRangeMin  int                    `json:"rep_range_min"`
	RepRangeMax  int                    `json:"rep_range_max"`
	WeightJumpLb float64                `json:"weight_jump_lb"`
	Steps        []progression.Step     `json:"steps"`
	State        progression.State      `json:"state"`
	Suggestion   progression.Suggestion `json:"suggestion"`
}

// history is everything read from storage for one exercise.
type history struct {
	config    progression.Config
	exposures []progression.Exposure
}

func storageError(err error, op, exerciseID string) error {
	return ierrors.ErrStorageError.WithCause(fmt.Errorf("%s: %w", op, err)).WithMetadata("exercise_id", exerciseID)
}

// Recompute rebuilds and persists the state of one exercise.
func (o *Orchestrator) Recompute(ctx context.Context, exerciseID string) (*Result, error) {
	logger := o.logger.With("exercise_id", exerciseID)

	h, err := o.loadHistory(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	if h == nil {
		if err := o.database.DeleteProgressionState(ctx, exerciseID); err != nil {
			return nil, storageError(err, "delete progression state", exerciseID)
		}
		logger.Info("Exercise missing, progression state removed")
		res := &Result{ExerciseID: exerciseID, Deleted: true}
		o.publishUpdate(ctx, logger, res)
		return res, nil
	}

	state, steps := progression.Replay(o.policy, h.config, h.exposures)
	suggestion := progression.Suggest(o.policy, h.config, state)

	if err := o.database.SetProgressionState(ctx, exerciseID, &state); err != nil {
		return nil, storageError(err, "write progression state", exerciseID)
	}

	logger.Info("Progression state committed",
		"exposures", state.ExposureCount,
		"ceiling", state.CurrentRepCeiling,
		"non_success_streak", state.ConsecutiveNonSuccessExposures,
		"reason_code", suggestion.Reason)

	res := &Result{
		ExerciseID:    exerciseID,
		ExposureCount: state.ExposureCount,
		State:         &state,
		Suggestion:    &suggestion,
		Steps:         steps,
	}

	res.TraceURI = o.archiveTrace(ctx, logger, Trace{
		ExerciseID:   exerciseID,
		RepRangeMin:  h.config.RepRangeMin,
		RepRangeMax:  h.config.RepRangeMax,
		WeightJumpLb: h.config.WeightJumpLb,
		Steps:        steps,
		State:        state,
		Suggestion:   suggestion,
	})
	o.publishUpdate(ctx, logger, res)

	return res, nil
}

// GetSuggestion returns the next-session suggestion for an exercise, or nil
// when the exercise does not exist. A stored state folded under a different
// rep range or weight jump is replayed in memory first; nothing is written.
func (o *Orchestrator) GetSuggestion(ctx context.Context, exerciseID string) (*progression.Suggestion, error) {
	exercise, err := o.database.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, storageError(err, "read exercise", exerciseID)
	}
	if exercise == nil {
		return nil, nil
	}

	jump, err := o.database.GetWeightJump(ctx)
	if err != nil {
		return nil, storageError(err, "read weight jump setting", exerciseID)
	}
	cfg := progression.NewConfig(exercise, jump)

	state, err := o.database.GetProgressionState(ctx, exerciseID)
	if err != nil {
		return nil, storageError(err, "read progression state", exerciseID)
	}

	if state == nil || !state.ComputedFor(cfg) {
		exposures, err := o.loadExposures(ctx, exerciseID)
		if err != nil {
			return nil, err
		}

		replayed, _ := progression.Replay(o.policy, cfg, exposures)
		if state != nil {
			o.logger.Debug("Stored progression state is stale, replayed on read",
				"exercise_id", exerciseID,
				"stored_rep_range_max", state.RepRangeMax,
				"rep_range_max", cfg.RepRangeMax)
		}
		state = &replayed
	}

	s := progression.Suggest(o.policy, cfg, *state)
	return &s, nil
}

// loadHistory returns nil when the exercise no longer exists.
func (o *Orchestrator) loadHistory(ctx context.Context, exerciseID string) (*history, error) {
	exercise, err := o.database.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, storageError(err, "read exercise", exerciseID)
	}
	if exercise == nil {
		return nil, nil
	}

	jump, err := o.database.GetWeightJump(ctx)
	if err != nil {
		return nil, storageError(err, "read weight jump setting", exerciseID)
	}

	exposures, err := o.loadExposures(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	return &history{
		config:    progression.NewConfig(exercise, jump),
		exposures: exposures,
	}, nil
}

func (o *Orchestrator) loadExposures(ctx context.Context, exerciseID string) ([]progression.Exposure, error) {
	sets, err := o.database.ListSetsForExercise(ctx, exerciseID)
	if err != nil {
		return nil, storageError(err, "read sets", exerciseID)
	}

	workouts, err := o.database.GetWorkouts(ctx, progression.WorkoutIDs(sets))
	if err != nil {
		return nil, storageError(err, "read workouts", exerciseID)
	}

	return progression.BuildExposures(exerciseID, sets, workouts), nil
}

func (o *Orchestrator) archiveTrace(ctx context.Context, logger *slog.Logger, trace Trace) string {
	if o.storage == nil || o.bucketName == "" {
		return ""
	}

	data, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		logger.Warn("Failed to encode replay trace", "error", err)
		return ""
	}

	object := fmt.Sprintf("%s/%s.json", shared.TracePrefix, trace.ExerciseID)
	if err := o.storage.Write(ctx, o.bucketName, object, data); err != nil {
		logger.Warn("Failed to archive replay trace",
			"error", ierrors.ErrArtifactError.WithCause(err),
			"object", object)
		return ""
	}

	return fmt.Sprintf("gs://%s/%s", o.bucketName, object)
}

func (o *Orchestrator) publishUpdate(ctx context.Context, logger *slog.Logger, res *Result) {
	if o.publisher == nil {
		return
	}

	payload := types.ProgressionUpdatedEvent{
		ExerciseID: res.ExerciseID,
		Deleted:    res.Deleted,
		State:      res.State,
		Suggestion: res.Suggestion,
		ComputedAt: o.now().UTC(),
	}

	e, err := infrapubsub.NewCloudEvent(shared.CloudEventSourceRecompute, shared.CloudEventTypeProgressionUpdated, res.ExerciseID, payload)
	if err != nil {
		logger.Warn("Failed to build progression.updated event", "error", err)
		return
	}

	msgID, err := o.publisher.PublishCloudEvent(ctx, shared.TopicProgressionUpdated, e)
	if err != nil {
		logger.Warn("Failed to publish progression.updated",
			"error", ierrors.ErrPubSubError.WithCause(err))
		return
	}
	logger.Debug("Published progression.updated", "message_id", msgID)
}
