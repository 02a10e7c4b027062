// Package progression implements the triple-progression engine.
//
// Logged sets are the only source of truth. They are grouped into exposures
// (one workout's sets for one exercise), each exposure is classified against
// the rep ceiling in effect, and the classified exposures are folded from
// InitialState into a State. The State is a cache: replaying the same
// exposures always reproduces it exactly, so it is rebuilt rather than
// patched whenever history changes.
package progression

import (
	"time"
)

const (
	DefaultRepRangeMin  = 8
	DefaultRepRangeMax  = 12
	DefaultWeightJumpLb = 5.0
)

// Exercise is the catalog entry the engine reads rep-range bounds from.
type Exercise struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name,omitempty"`
	RepRangeMin int    `json:"rep_range_min" validate:"gte=0"`
	RepRangeMax int    `json:"rep_range_max" validate:"gte=0"`
}

// Workout is the session a set was logged in.
type Workout struct {
	ID        string    `json:"id" validate:"required"`
	StartedAt time.Time `json:"started_at"`
	Deleted   bool      `json:"deleted,omitempty"`
}

// Set is a single logged set. Sets are written by the logging UI only.
type Set struct {
	ID         string    `json:"id" validate:"required"`
	ExerciseID string    `json:"exercise_id" validate:"required"`
	WorkoutID  string    `json:"workout_id" validate:"required"`
	SetIndex   int       `json:"set_index" validate:"gte=0"`
	WeightLb   float64   `json:"weight_lb" validate:"gt=0"`
	Reps       int       `json:"reps" validate:"gt=0"`
	RPE        *float64  `json:"rpe,omitempty" validate:"omitempty,gte=1,lte=10"`
	CreatedAt  time.Time `json:"created_at"`
}

// Exposure is every set performed for one exercise within one workout.
// Exposures are derived on demand and never persisted.
type Exposure struct {
	ExerciseID string    `json:"exercise_id"`
	WorkoutID  string    `json:"workout_id"`
	Timestamp  time.Time `json:"timestamp"`
	Sets       []Set     `json:"sets"`
}

// WorkingWeight is the heaviest weight logged in the exposure.
func (e Exposure) WorkingWeight() float64 {
	var max float64
	for _, s := range e.Sets {
		if s.WeightLb > max {
			max = s.WeightLb
		}
	}
	return max
}

// Reps lists the reps of each set in order.
func (e Exposure) Reps() []int {
	reps := make([]int, len(e.Sets))
	for i, s := range e.Sets {
		reps[i] = s.Reps
	}
	return reps
}

// Outcome is the classification of an exposure.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomePartial Outcome = "PARTIAL"
	OutcomeFail    Outcome = "FAIL"
)

// ReasonCode tells the user why a suggestion was made.
type ReasonCode string

const (
	ReasonStart          ReasonCode = "start"
	ReasonIncreaseReps   ReasonCode = "increase_reps"
	ReasonExpandCeiling  ReasonCode = "expand_ceiling"
	ReasonIncreaseWeight ReasonCode = "increase_weight"
	ReasonDeload         ReasonCode = "deload"
)

// State is the persisted summary of an exercise's progression.
//
// The last_suggested_* fields cache the suggestion computed after the most
// recent exposure so the next exposure can tell whether it honored it.
// RepRangeMax and WeightJumpLb record the config the state was folded under.
type State struct {
	LastSuggestedWeightLb          *float64   `json:"last_suggested_weight_lb"`
	LastSuccessfulWeightLb         *float64   `json:"last_successful_weight_lb"`
	CurrentRepCeiling              int        `json:"current_rep_ceiling"`
	ConsecutiveNonSuccessExposures int        `json:"consecutive_non_success_exposures"`
	ExposureCount                  int        `json:"exposure_count"`
	LastOutcome                    Outcome    `json:"last_outcome,omitempty"`
	LastExposureWeightLb           *float64   `json:"last_exposure_weight_lb"`
	LastSuggestedReason            ReasonCode `json:"last_suggested_reason,omitempty"`
	LastSuggestedRepCeiling        int        `json:"last_suggested_rep_ceiling,omitempty"`
	StreakAnchorWeightLb           *float64   `json:"streak_anchor_weight_lb"`
	RepRangeMax                    int        `json:"rep_range_max"`
	WeightJumpLb                   float64    `json:"weight_jump_lb"`
}

// ComputedFor reports whether s was folded under cfg. A state computed under
// a different rep range or weight jump must be replayed before use.
func (s State) ComputedFor(cfg Config) bool {
	return s.RepRangeMax == cfg.RepRangeMax && weightsEqual(s.WeightJumpLb, cfg.WeightJumpLb)
}

// Suggestion is what the user should do next session. It is computed on
// read and never stored on its own.
type Suggestion struct {
	Reason           ReasonCode `json:"reason_code"`
	TargetWeightLb   *float64   `json:"target_weight_lb"`
	TargetRepCeiling int        `json:"target_rep_ceiling"`
}

// Config carries the exercise and settings inputs to the policy.
type Config struct {
	RepRangeMin  int
	RepRangeMax  int
	WeightJumpLb float64
}

// NewConfig builds a Config from an exercise and the weight jump setting,
// falling back to defaults for unset values.
func NewConfig(ex *Exercise, weightJumpLb float64) Config {
	cfg := Config{
		RepRangeMin:  DefaultRepRangeMin,
		RepRangeMax:  DefaultRepRangeMax,
		WeightJumpLb: weightJumpLb,
	}
	if ex != nil {
		if ex.RepRangeMin > 0 {
			cfg.RepRangeMin = ex.RepRangeMin
		}
		if ex.RepRangeMax > 0 {
			cfg.RepRangeMax = ex.RepRangeMax
		}
	}
	if cfg.RepRangeMin > cfg.RepRangeMax {
		cfg.RepRangeMin = cfg.RepRangeMax
	}
	if cfg.WeightJumpLb <= 0 {
		cfg.WeightJumpLb = DefaultWeightJumpLb
	}
	return cfg
}

func float64Ptr(v float64) *float64 {
	return &v
}
