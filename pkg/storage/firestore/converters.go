package firestore

import (
	"time"

	"github.com/ripixel/ironlog/pkg/domain/progression"
	"github.com/ripixel/ironlog/pkg/types"
)

// Helper to safely get string from map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Helper to safely get bool from map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Helper to safely get time from map (handles time.Time from Firestore)
func getTime(m map[string]interface{}, key string) time.Time {
	if v, ok := m[key]; ok {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	return time.Time{}
}

func getTimePtr(m map[string]interface{}, key string) *time.Time {
	t := getTime(m, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

// Firestore hands back int64 for integers and float64 for doubles; a weight
// typed as 135 in the console comes back as int64.
func getFloatPtr(m map[string]interface{}, key string) *float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

func getFloat(m map[string]interface{}, key string) float64 {
	if f := getFloatPtr(m, key); f != nil {
		return *f
	}
	return 0
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int64:
			return int(n)
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return 0
}

// floatOrNil keeps unset weights as Firestore null rather than 0.
func floatOrNil(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

// --- Exercise Converters ---

func ExerciseToFirestore(e *progression.Exercise) map[string]interface{} {
	return map[string]interface{}{
		"name":          e.Name,
		"rep_range_min": e.RepRangeMin,
		"rep_range_max": e.RepRangeMax,
	}
}

func FirestoreToExercise(m map[string]interface{}) *progression.Exercise {
	return &progression.Exercise{
		Name:        getString(m, "name"),
		RepRangeMin: getInt(m, "rep_range_min"),
		RepRangeMax: getInt(m, "rep_range_max"),
	}
}

// --- Workout Converters ---

func WorkoutToFirestore(w *progression.Workout) map[string]interface{} {
	return map[string]interface{}{
		"started_at": w.StartedAt,
		"deleted":    w.Deleted,
	}
}

func FirestoreToWorkout(m map[string]interface{}) *progression.Workout {
	return &progression.Workout{
		StartedAt: getTime(m, "started_at"),
		Deleted:   getBool(m, "deleted"),
	}
}

// --- Set Converters ---

func SetToFirestore(s *progression.Set) map[string]interface{} {
	return map[string]interface{}{
		"exercise_id": s.ExerciseID,
		"workout_id":  s.WorkoutID,
		"set_index":   s.SetIndex,
		"weight_lb":   s.WeightLb,
		"reps":        s.Reps,
		"rpe":         floatOrNil(s.RPE),
		"created_at":  s.CreatedAt,
	}
}

func FirestoreToSet(m map[string]interface{}) *progression.Set {
	return &progression.Set{
		ExerciseID: getString(m, "exercise_id"),
		WorkoutID:  getString(m, "workout_id"),
		SetIndex:   getInt(m, "set_index"),
		WeightLb:   getFloat(m, "weight_lb"),
		Reps:       getInt(m, "reps"),
		RPE:        getFloatPtr(m, "rpe"),
		CreatedAt:  getTime(m, "created_at"),
	}
}

// --- Progression State Converters ---

func ProgressionStateToFirestore(s *progression.State) map[string]interface{} {
	return map[string]interface{}{
		"last_suggested_weight_lb":          floatOrNil(s.LastSuggestedWeightLb),
		"last_successful_weight_lb":         floatOrNil(s.LastSuccessfulWeightLb),
		"current_rep_ceiling":               s.CurrentRepCeiling,
		"consecutive_non_success_exposures": s.ConsecutiveNonSuccessExposures,
		"exposure_count":                    s.ExposureCount,
		"last_outcome":                      string(s.LastOutcome),
		"last_exposure_weight_lb":           floatOrNil(s.LastExposureWeightLb),
		"last_suggested_reason":             string(s.LastSuggestedReason),
		"last_suggested_rep_ceiling":        s.LastSuggestedRepCeiling,
		"streak_anchor_weight_lb":           floatOrNil(s.StreakAnchorWeightLb),
		"rep_range_max":                     s.RepRangeMax,
		"weight_jump_lb":                    s.WeightJumpLb,
	}
}

func FirestoreToProgressionState(m map[string]interface{}) *progression.State {
	return &progression.State{
		LastSuggestedWeightLb:          getFloatPtr(m, "last_suggested_weight_lb"),
		LastSuccessfulWeightLb:         getFloatPtr(m, "last_successful_weight_lb"),
		CurrentRepCeiling:              getInt(m, "current_rep_ceiling"),
		ConsecutiveNonSuccessExposures: getInt(m, "consecutive_non_success_exposures"),
		ExposureCount:                  getInt(m, "exposure_count"),
		LastOutcome:                    progression.Outcome(getString(m, "last_outcome")),
		LastExposureWeightLb:           getFloatPtr(m, "last_exposure_weight_lb"),
		LastSuggestedReason:            progression.ReasonCode(getString(m, "last_suggested_reason")),
		LastSuggestedRepCeiling:        getInt(m, "last_suggested_rep_ceiling"),
		StreakAnchorWeightLb:           getFloatPtr(m, "streak_anchor_weight_lb"),
		RepRangeMax:                    getInt(m, "rep_range_max"),
		WeightJumpLb:                   getFloat(m, "weight_jump_lb"),
	}
}

// --- Execution Record ---

func ExecutionToFirestore(e *types.ExecutionRecord) map[string]interface{} {
	m := map[string]interface{}{
		"execution_id": e.ExecutionID,
		"service":      e.Service,
		"status":       int32(e.Status),
		"timestamp":    e.Timestamp,
		"trigger_type": e.TriggerType,
	}
	if e.StartTime != nil {
		m["start_time"] = *e.StartTime
	}
	if e.EndTime != nil {
		m["end_time"] = *e.EndTime
	}
	if e.ErrorMessage != "" {
		m["error_message"] = e.ErrorMessage
	}
	if e.InputsJSON != "" {
		m["inputs_json"] = e.InputsJSON
	}
	if e.OutputsJSON != "" {
		m["outputs_json"] = e.OutputsJSON
	}
	if e.ParentExecutionID != "" {
		m["parent_execution_id"] = e.ParentExecutionID
	}
	return m
}

func FirestoreToExecution(m map[string]interface{}) *types.ExecutionRecord {
	e := &types.ExecutionRecord{
		ExecutionID:       getString(m, "execution_id"),
		Service:           getString(m, "service"),
		Status:            types.ExecutionStatus(getInt(m, "status")),
		Timestamp:         getTime(m, "timestamp"),
		TriggerType:       getString(m, "trigger_type"),
		StartTime:         getTimePtr(m, "start_time"),
		EndTime:           getTimePtr(m, "end_time"),
		ErrorMessage:      getString(m, "error_message"),
		InputsJSON:        getString(m, "inputs_json"),
		OutputsJSON:       getString(m, "outputs_json"),
		ParentExecutionID: getString(m, "parent_execution_id"),
	}
	return e
}
