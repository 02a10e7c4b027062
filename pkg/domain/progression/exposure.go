package progression

import "sort"

// BuildExposures groups the logged sets of one exercise into exposures
// ordered by workout start time, ties broken by workout id.
//
// Sets for other exercises and sets whose workout is missing or deleted are
// skipped, so a workout without sets for this exercise yields no exposure.
// Within an exposure sets are ordered by set_index, then id. The input is not
// modified.
func BuildExposures(exerciseID string, sets []*Set, workouts map[string]*Workout) []Exposure {
	byWorkout := make(map[string]*Exposure)
	for _, s := range sets {
		if s == nil || s.ExerciseID != exerciseID {
			continue
		}
		w, ok := workouts[s.WorkoutID]
		if !ok || w == nil || w.Deleted {
			continue
		}

		exp, exists := byWorkout[w.ID]
		if !exists {
			exp = &Exposure{
				ExerciseID: exerciseID,
				WorkoutID:  w.ID,
				Timestamp:  w.StartedAt,
			}
			byWorkout[w.ID] = exp
		}
		exp.Sets = append(exp.Sets, *s)
	}

	exposures := make([]Exposure, 0, len(byWorkout))
	for _, exp := range byWorkout {
		sort.SliceStable(exp.Sets, func(i, j int) bool {
			if exp.Sets[i].SetIndex != exp.Sets[j].SetIndex {
				return exp.Sets[i].SetIndex < exp.Sets[j].SetIndex
			}
			return exp.Sets[i].ID < exp.Sets[j].ID
		})
		exposures = append(exposures, *exp)
	}

	sort.Slice(exposures, func(i, j int) bool {
		if !exposures[i].Timestamp.Equal(exposures[j].Timestamp) {
			return exposures[i].Timestamp.Before(exposures[j].Timestamp)
		}
		return exposures[i].WorkoutID < exposures[j].WorkoutID
	})

	return exposures
}

// WorkoutIDs returns the distinct workout ids referenced by sets, sorted.
func WorkoutIDs(sets []*Set) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, s := range sets {
		if s == nil || s.WorkoutID == "" {
			continue
		}
		if _, ok := seen[s.WorkoutID]; ok {
			continue
		}
		seen[s.WorkoutID] = struct{}{}
		ids = append(ids, s.WorkoutID)
	}
	sort.Strings(ids)
	return ids
}
