package progression

// Classify labels an exposure against a rep ceiling. A set meets the ceiling
// when its reps reach it. Every set must meet for SUCCESS; a single weak set
// makes the exposure PARTIAL, and FAIL means no set met.
func Classify(e Exposure, ceiling int) Outcome {
	met := 0
	for _, s := range e.Sets {
		if s.Reps >= ceiling {
			met++
		}
	}

	switch {
	case len(e.Sets) > 0 && met == len(e.Sets):
		return OutcomeSuccess
	case met == 0:
		return OutcomeFail
	default:
		return OutcomePartial
	}
}
