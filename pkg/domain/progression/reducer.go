package progression

import "time"

// Step records one transition of a replay.
type Step struct {
	WorkoutID       string     `json:"workout_id"`
	Timestamp       time.Time  `json:"timestamp"`
	WorkingWeightLb float64    `json:"working_weight_lb"`
	Reps            []int      `json:"reps"`
	Ceiling         int        `json:"ceiling"`
	Outcome         Outcome    `json:"outcome"`
	Committed       ReasonCode `json:"committed,omitempty"`
	State           State      `json:"state"`
	Suggestion      Suggestion `json:"suggestion"`
}

// InitialState is the state of an exercise with no exposures.
func InitialState(cfg Config) State {
	return State{
		CurrentRepCeiling: cfg.RepRangeMax,
		RepRangeMax:       cfg.RepRangeMax,
		WeightJumpLb:      cfg.WeightJumpLb,
	}
}

// Reduce applies one exposure to a state. It is pure: the same inputs always
// produce the same state and the input state is left untouched.
func Reduce(p Policy, cfg Config, s State, e Exposure) State {
	next, _ := reduce(p.withDefaults(), cfg, s, e)
	return next
}

// Replay folds exposures from InitialState and returns the final state with
// a trace of every transition. Exposures must already be in chronological
// order, as returned by BuildExposures.
func Replay(p Policy, cfg Config, exposures []Exposure) (State, []Step) {
	p = p.withDefaults()
	state := InitialState(cfg)
	steps := make([]Step, 0, len(exposures))
	for _, e := range exposures {
		var step Step
		state, step = reduce(p, cfg, state, e)
		steps = append(steps, step)
	}
	return state, steps
}

func reduce(p Policy, cfg Config, s State, e Exposure) (State, Step) {
	next := s
	weight := e.WorkingWeight()

	// A suggestion only takes effect once an exposure is logged at the
	// suggested weight. Its ceiling then applies to that exposure.
	var committed ReasonCode
	if s.LastSuggestedWeightLb != nil && weightsEqual(weight, *s.LastSuggestedWeightLb) {
		switch s.LastSuggestedReason {
		case ReasonIncreaseWeight, ReasonDeload:
			next.CurrentRepCeiling = cfg.RepRangeMax
			committed = s.LastSuggestedReason
		case ReasonExpandCeiling:
			if s.LastSuggestedRepCeiling > next.CurrentRepCeiling {
				next.CurrentRepCeiling = s.LastSuggestedRepCeiling
				committed = s.LastSuggestedReason
			}
		}
	}

	outcome := Classify(e, next.CurrentRepCeiling)
	if outcome == OutcomeSuccess {
		next.LastSuccessfulWeightLb = float64Ptr(weight)
		next.ConsecutiveNonSuccessExposures = 0
		next.StreakAnchorWeightLb = nil
	} else {
		if s.ConsecutiveNonSuccessExposures == 0 || s.StreakAnchorWeightLb == nil {
			next.StreakAnchorWeightLb = float64Ptr(weight)
		}
		next.ConsecutiveNonSuccessExposures++
	}

	next.ExposureCount++
	next.LastOutcome = outcome
	next.LastExposureWeightLb = float64Ptr(weight)

	suggestion := suggest(p, cfg, next)
	next.LastSuggestedReason = suggestion.Reason
	next.LastSuggestedRepCeiling = suggestion.TargetRepCeiling
	next.LastSuggestedWeightLb = nil
	if suggestion.TargetWeightLb != nil {
		next.LastSuggestedWeightLb = float64Ptr(*suggestion.TargetWeightLb)
	}

	step := Step{
		WorkoutID:       e.WorkoutID,
		Timestamp:       e.Timestamp,
		WorkingWeightLb: weight,
		Reps:            e.Reps(),
		Ceiling:         next.CurrentRepCeiling,
		Outcome:         outcome,
		Committed:       committed,
		State:           next,
		Suggestion:      suggestion,
	}
	return next, step
}
