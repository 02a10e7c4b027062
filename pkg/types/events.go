package types

import (
	"time"

	"github.com/ripixel/ironlog/pkg/domain/progression"
)

// ChangeKind names the history mutation that triggered a recompute.
type ChangeKind string

const (
	ChangeSetAdded        ChangeKind = "set_added"
	ChangeSetEdited       ChangeKind = "set_edited"
	ChangeSetDeleted      ChangeKind = "set_deleted"
	ChangeWorkoutDeleted  ChangeKind = "workout_deleted"
	ChangeExerciseDeleted ChangeKind = "exercise_deleted"
)

// SetChangedEvent is published by the logging UI after any write to sets,
// workouts or exercises. A workout deletion lists every exercise the workout touched.
type SetChangedEvent struct {
	Change      ChangeKind `json:"change" validate:"required,oneof=set_added set_edited set_deleted workout_deleted exercise_deleted"`
	ExerciseIDs []string   `json:"exercise_ids" validate:"required,min=1,dive,required"`
	SetID       string     `json:"set_id,omitempty"`
	WorkoutID   string     `json:"workout_id,omitempty"`
}

// ProgressionUpdatedEvent is emitted after a recompute commits.
type ProgressionUpdatedEvent struct {
	ExerciseID string                  `json:"exercise_id"`
	Deleted    bool                    `json:"deleted,omitempty"`
	State      *progression.State      `json:"state,omitempty"`
	Suggestion *progression.Suggestion `json:"suggestion,omitempty"`
	ComputedAt time.Time               `json:"computed_at"`
}
