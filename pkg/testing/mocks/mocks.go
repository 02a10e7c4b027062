package mocks

import (
	"context"
	"fmt"

	"github.com/cloudevents/sdk-go/v2/event"

	shared "github.com/ripixel/ironlog/pkg"
	"github.com/ripixel/ironlog/pkg/domain/progression"
	"github.com/ripixel/ironlog/pkg/types"
)

var (
	_ shared.Database  = (*MockDatabase)(nil)
	_ shared.Publisher = (*MockPublisher)(nil)
	_ shared.BlobStore = (*MockBlobStore)(nil)
)

// --- Mock Database ---
type MockDatabase struct {
	SetExecutionFunc    func(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecutionFunc func(ctx context.Context, id string, data map[string]interface{}) error

	GetExerciseFunc         func(ctx context.Context, id string) (*progression.Exercise, error)
	ListSetsForExerciseFunc func(ctx context.Context, exerciseID string) ([]*progression.Set, error)
	GetWorkoutsFunc         func(ctx context.Context, ids []string) (map[string]*progression.Workout, error)
	GetWeightJumpFunc       func(ctx context.Context) (float64, error)

	GetProgressionStateFunc    func(ctx context.Context, exerciseID string) (*progression.State, error)
	SetProgressionStateFunc    func(ctx context.Context, exerciseID string, state *progression.State) error
	DeleteProgressionStateFunc func(ctx context.Context, exerciseID string) error
}

func (m *MockDatabase) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	if m.SetExecutionFunc != nil {
		return m.SetExecutionFunc(ctx, record)
	}
	return nil
}
func (m *MockDatabase) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateExecutionFunc != nil {
		return m.UpdateExecutionFunc(ctx, id, data)
	}
	return nil
}

func (m *MockDatabase) GetExercise(ctx context.Context, id string) (*progression.Exercise, error) {
	if m.GetExerciseFunc != nil {
		return m.GetExerciseFunc(ctx, id)
	}
	return nil, nil
}
func (m *MockDatabase) ListSetsForExercise(ctx context.Context, exerciseID string) ([]*progression.Set, error) {
	if m.ListSetsForExerciseFunc != nil {
		return m.ListSetsForExerciseFunc(ctx, exerciseID)
	}
	return nil, nil
}
func (m *MockDatabase) GetWorkouts(ctx context.Context, ids []string) (map[string]*progression.Workout, error) {
	if m.GetWorkoutsFunc != nil {
		return m.GetWorkoutsFunc(ctx, ids)
	}
	return map[string]*progression.Workout{}, nil
}
func (m *MockDatabase) GetWeightJump(ctx context.Context) (float64, error) {
	if m.GetWeightJumpFunc != nil {
		return m.GetWeightJumpFunc(ctx)
	}
	return progression.DefaultWeightJumpLb, nil
}

func (m *MockDatabase) GetProgressionState(ctx context.Context, exerciseID string) (*progression.State, error) {
	if m.GetProgressionStateFunc != nil {
		return m.GetProgressionStateFunc(ctx, exerciseID)
	}
	return nil, nil
}
func (m *MockDatabase) SetProgressionState(ctx context.Context, exerciseID string, state *progression.State) error {
	if m.SetProgressionStateFunc != nil {
		return m.SetProgressionStateFunc(ctx, exerciseID, state)
	}
	return nil
}
func (m *MockDatabase) DeleteProgressionState(ctx context.Context, exerciseID string) error {
	if m.DeleteProgressionStateFunc != nil {
		return m.DeleteProgressionStateFunc(ctx, exerciseID)
	}
	return nil
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock BlobStore ---
type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}

func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return nil, fmt.Errorf("object not found: gs://%s/%s", bucket, object)
}
