package execution_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ripixel/ironlog/pkg/execution"
	"github.com/ripixel/ironlog/pkg/types"
)

type MockDB struct {
	SetExecutionFunc    func(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecutionFunc func(ctx context.Context, id string, data map[string]interface{}) error
}

func (m *MockDB) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	if m.SetExecutionFunc != nil {
		return m.SetExecutionFunc(ctx, record)
	}
	return nil
}

func (m *MockDB) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateExecutionFunc != nil {
		return m.UpdateExecutionFunc(ctx, id, data)
	}
	return nil
}

func statusOf(data map[string]interface{}) types.ExecutionStatus {
	s, ok := data["status"].(int32)
	if !ok {
		return types.ExecutionStatusUnknown
	}
	return types.ExecutionStatus(s)
}

func TestLogPending(t *testing.T) {
	mockDB := &MockDB{
		SetExecutionFunc: func(ctx context.Context, record *types.ExecutionRecord) error {
			if record.Status != types.ExecutionStatusPending {
				t.Errorf("Expected PENDING, got %v", record.Status)
			}
			if record.InputsJSON != "" {
				t.Errorf("Expected empty inputs JSON, got %v", record.InputsJSON)
			}
			if record.TriggerType != "pubsub" {
				t.Errorf("Expected trigger type pubsub, got %v", record.TriggerType)
			}
			return nil
		},
	}

	id, err := execution.LogPending(context.Background(), mockDB, "test-service", execution.ExecutionOptions{TriggerType: "pubsub"})
	if err != nil {
		t.Fatalf("LogPending failed: %v", err)
	}
	if !strings.HasPrefix(id, "test-service-") {
		t.Errorf("Expected ID to start with 'test-service-', got %s", id)
	}
}

func TestLogPending_DatabaseError(t *testing.T) {
	mockDB := &MockDB{
		SetExecutionFunc: func(ctx context.Context, record *types.ExecutionRecord) error {
			return errors.New("firestore down")
		},
	}

	id, err := execution.LogPending(context.Background(), mockDB, "test-service", execution.ExecutionOptions{})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if id == "" {
		t.Error("Expected execution ID even on failure")
	}
}

func TestLogStart(t *testing.T) {
	mockDB := &MockDB{
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if statusOf(data) != types.ExecutionStatusStarted {
				t.Errorf("Expected STARTED, got %v", data["status"])
			}
			if data["inputs_json"] != `{"foo":"bar"}` {
				t.Errorf("Expected inputs_json to be '{\"foo\":\"bar\"}', got %v", data["inputs_json"])
			}
			if data["trigger_type"] != "http" {
				t.Errorf("Expected trigger_type 'http', got %v", data["trigger_type"])
			}
			return nil
		},
	}

	inputs := map[string]string{"foo": "bar"}
	err := execution.LogStart(context.Background(), mockDB, "exec-1", inputs, &execution.ExecutionOptions{TriggerType: "http"})
	if err != nil {
		t.Fatalf("LogStart failed: %v", err)
	}
}

func TestLogSuccess(t *testing.T) {
	mockDB := &MockDB{
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if statusOf(data) != types.ExecutionStatusSuccess {
				t.Errorf("Expected SUCCESS, got %v", data["status"])
			}
			if _, ok := data["outputs_json"]; ok {
				t.Errorf("Expected no outputs_json, got %v", data["outputs_json"])
			}
			return nil
		},
	}

	err := execution.LogSuccess(context.Background(), mockDB, "exec-1", nil)
	if err != nil {
		t.Fatalf("LogSuccess failed: %v", err)
	}
}

func TestLogFailure(t *testing.T) {
	mockDB := &MockDB{
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if statusOf(data) != types.ExecutionStatusFailed {
				t.Errorf("Expected FAILED, got %v", data["status"])
			}
			if data["error_message"] != "oops" {
				t.Errorf("Expected oops, got %v", data["error_message"])
			}
			return nil
		},
	}

	err := execution.LogFailure(context.Background(), mockDB, "exec-1", &simpleError{}, nil)
	if err != nil {
		t.Fatalf("LogFailure failed: %v", err)
	}
}

func TestLogFailureWithOutputs(t *testing.T) {
	mockDB := &MockDB{
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if data["outputs_json"] != `{"foo":"bar"}` {
				t.Errorf("Expected outputs_json to be '{\"foo\":\"bar\"}', got %v", data["outputs_json"])
			}
			return nil
		},
	}

	outputs := map[string]string{"foo": "bar"}
	err := execution.LogFailure(context.Background(), mockDB, "exec-1", &simpleError{}, outputs)
	if err != nil {
		t.Fatalf("LogFailure failed: %v", err)
	}
}

func TestLogChildExecutionStart(t *testing.T) {
	mockDB := &MockDB{
		SetExecutionFunc: func(ctx context.Context, record *types.ExecutionRecord) error {
			if record.Status != types.ExecutionStatusStarted {
				t.Errorf("Expected STARTED, got %v", record.Status)
			}
			if record.Service != "child-service" {
				t.Errorf("Expected child-service, got %v", record.Service)
			}
			if record.ParentExecutionID != "parent-exec-123" {
				t.Errorf("Expected ParentExecutionID 'parent-exec-123', got %v", record.ParentExecutionID)
			}
			if record.InputsJSON != `{"exercise_id":"bench"}` {
				t.Errorf("Expected exercise inputs, got %v", record.InputsJSON)
			}
			return nil
		},
	}

	opts := execution.ExecutionOptions{
		Inputs: map[string]string{"exercise_id": "bench"},
	}

	id, err := execution.LogChildExecutionStart(context.Background(), mockDB, "child-service", "parent-exec-123", opts)
	if err != nil {
		t.Fatalf("LogChildExecutionStart failed: %v", err)
	}
	if !strings.Contains(id, "child-service-") {
		t.Errorf("Expected ID to contain 'child-service-', got %s", id)
	}
}

// Helper error type for testing
type simpleError struct{}

var _ error = (*simpleError)(nil)

func (e *simpleError) Error() string { return "oops" }
