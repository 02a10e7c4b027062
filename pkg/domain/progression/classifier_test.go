package progression

import "testing"

func exposureWithReps(weight float64, reps ...int) Exposure {
	e := Exposure{ExerciseID: "bench", WorkoutID: "w"}
	for i, r := range reps {
		e.Sets = append(e.Sets, Set{SetIndex: i, WeightLb: weight, Reps: r})
	}
	return e
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		reps    []int
		ceiling int
		want    Outcome
	}{
		{"All sets at ceiling", []int{12, 12, 12}, 12, OutcomeSuccess},
		{"All sets above ceiling", []int{14, 13, 15}, 12, OutcomeSuccess},
		{"One weak set blocks success", []int{12, 12, 11}, 12, OutcomePartial},
		{"Only first set meets", []int{12, 10, 9}, 12, OutcomePartial},
		{"No set meets", []int{11, 10, 9}, 12, OutcomeFail},
		{"Expanded ceiling", []int{14, 15, 15}, 15, OutcomePartial},
		{"Single set success", []int{20}, 20, OutcomeSuccess},
		{"Empty exposure", nil, 12, OutcomeFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(exposureWithReps(100, tt.reps...), tt.ceiling)
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
