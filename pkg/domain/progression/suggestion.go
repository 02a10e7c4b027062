package progression

// Suggest maps a state to the next-session suggestion.
//
// Rules, highest priority first:
//   - no exposures yet: start at the exercise's rep_range_max
//   - plateau (consecutive non-successes at the threshold): deload
//   - last exposure not a success: keep the weight and chase the ceiling
//   - success below the terminal ceiling: add weight, or expand the ceiling
//     when the jump would be too large relative to the working weight
//   - success at the terminal ceiling: add weight
func Suggest(p Policy, cfg Config, s State) Suggestion {
	return suggest(p.withDefaults(), cfg, s)
}

func suggest(p Policy, cfg Config, s State) Suggestion {
	if s.ExposureCount == 0 {
		return Suggestion{
			Reason:           ReasonStart,
			TargetRepCeiling: cfg.RepRangeMax,
		}
	}

	base := s.LastSuccessfulWeightLb
	if base == nil {
		base = s.LastExposureWeightLb
	}
	if base == nil {
		return Suggestion{
			Reason:           ReasonStart,
			TargetRepCeiling: cfg.RepRangeMax,
		}
	}

	if s.ConsecutiveNonSuccessExposures >= p.PlateauThreshold {
		return Suggestion{
			Reason:           ReasonDeload,
			TargetWeightLb:   float64Ptr(p.deloadWeight(*deloadBase(s, base))),
			TargetRepCeiling: cfg.RepRangeMax,
		}
	}

	if s.LastOutcome != OutcomeSuccess {
		return Suggestion{
			Reason:           ReasonIncreaseReps,
			TargetWeightLb:   float64Ptr(*base),
			TargetRepCeiling: s.CurrentRepCeiling,
		}
	}

	nextCeiling, expandable := p.nextCeiling(s.CurrentRepCeiling)
	if expandable && p.jumpTooLarge(*base, cfg.WeightJumpLb) {
		return Suggestion{
			Reason:           ReasonExpandCeiling,
			TargetWeightLb:   float64Ptr(*base),
			TargetRepCeiling: nextCeiling,
		}
	}

	return Suggestion{
		Reason:           ReasonIncreaseWeight,
		TargetWeightLb:   float64Ptr(*base + cfg.WeightJumpLb),
		TargetRepCeiling: cfg.RepRangeMax,
	}
}

// deloadBase is the weight a deload is taken from. Without a success it is
// the first weight of the current streak, so later failures at the deloaded
// weight do not compound the cut.
func deloadBase(s State, base *float64) *float64 {
	if s.LastSuccessfulWeightLb == nil && s.StreakAnchorWeightLb != nil {
		return s.StreakAnchorWeightLb
	}
	return base
}
