package mocks

import (
	"context"
	"sync"

	shared "github.com/ripixel/ironlog/pkg"
	"github.com/ripixel/ironlog/pkg/domain/progression"
	"github.com/ripixel/ironlog/pkg/types"
)

var _ shared.Database = (*MemoryDatabase)(nil)

// MemoryDatabase is an in-memory Database for exercising recompute flows
// end to end. Stored values are copied on the way in and out.
type MemoryDatabase struct {
	mu         sync.Mutex
	exercises  map[string]progression.Exercise
	workouts   map[string]progression.Workout
	sets       map[string]progression.Set
	states     map[string]progression.State
	executions map[string]map[string]interface{}
	weightJump float64

	// StateWrites counts SetProgressionState calls.
	StateWrites int
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		exercises:  map[string]progression.Exercise{},
		workouts:   map[string]progression.Workout{},
		sets:       map[string]progression.Set{},
		states:     map[string]progression.State{},
		executions: map[string]map[string]interface{}{},
	}
}

// --- Fixture helpers (the logging UI's side) ---

func (m *MemoryDatabase) PutExercise(e progression.Exercise) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exercises[e.ID] = e
}

func (m *MemoryDatabase) RemoveExercise(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.exercises, id)
}

func (m *MemoryDatabase) PutWorkout(w progression.Workout) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workouts[w.ID] = w
}

func (m *MemoryDatabase) PutSet(s progression.Set) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets[s.ID] = s
}

func (m *MemoryDatabase) RemoveSet(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets, id)
}

func (m *MemoryDatabase) SetWeightJump(lb float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.weightJump = lb
}

// Execution returns the merged fields recorded for an execution.
func (m *MemoryDatabase) Execution(id string) map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]interface{}{}
	for k, v := range m.executions[id] {
		out[k] = v
	}
	return out
}

// --- Database ---

func (m *MemoryDatabase) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions[record.ExecutionID] = map[string]interface{}{
		"service":             record.Service,
		"status":              int32(record.Status),
		"trigger_type":        record.TriggerType,
		"parent_execution_id": record.ParentExecutionID,
	}
	return nil
}

func (m *MemoryDatabase) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.executions[id]
	if !ok {
		rec = map[string]interface{}{}
		m.executions[id] = rec
	}
	for k, v := range data {
		rec[k] = v
	}
	return nil
}

func (m *MemoryDatabase) GetExercise(ctx context.Context, id string) (*progression.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exercises[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *MemoryDatabase) ListSetsForExercise(ctx context.Context, exerciseID string) ([]*progression.Set, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*progression.Set
	for _, s := range m.sets {
		if s.ExerciseID != exerciseID {
			continue
		}
		s := s
		if s.RPE != nil {
			rpe := *s.RPE
			s.RPE = &rpe
		}
		out = append(out, &s)
	}
	return out, nil
}

func (m *MemoryDatabase) GetWorkouts(ctx context.Context, ids []string) (map[string]*progression.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*progression.Workout, len(ids))
	for _, id := range ids {
		if w, ok := m.workouts[id]; ok {
			w := w
			out[id] = &w
		}
	}
	return out, nil
}

func (m *MemoryDatabase) GetWeightJump(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.weightJump <= 0 {
		return progression.DefaultWeightJumpLb, nil
	}
	return m.weightJump, nil
}

func (m *MemoryDatabase) GetProgressionState(ctx context.Context, exerciseID string) (*progression.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[exerciseID]
	if !ok {
		return nil, nil
	}
	out := copyState(s)
	return &out, nil
}

func (m *MemoryDatabase) SetProgressionState(ctx context.Context, exerciseID string, state *progression.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[exerciseID] = copyState(*state)
	m.StateWrites++
	return nil
}

func (m *MemoryDatabase) DeleteProgressionState(ctx context.Context, exerciseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, exerciseID)
	return nil
}

func copyState(s progression.State) progression.State {
	s.LastSuggestedWeightLb = copyFloat(s.LastSuggestedWeightLb)
	s.LastSuccessfulWeightLb = copyFloat(s.LastSuccessfulWeightLb)
	s.LastExposureWeightLb = copyFloat(s.LastExposureWeightLb)
	s.StreakAnchorWeightLb = copyFloat(s.StreakAnchorWeightLb)
	return s
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
