package framework

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/ripixel/ironlog/pkg/bootstrap"
	"github.com/ripixel/ironlog/pkg/testing/mocks"
	"github.com/ripixel/ironlog/pkg/types"
)

func pubsubEnvelope(t *testing.T, data []byte) event.Event {
	t.Helper()
	psMsg := types.PubSubMessage{
		Message: struct {
			Data       []byte            `json:"data"`
			Attributes map[string]string `json:"attributes"`
		}{
			Data: data,
		},
	}

	outer := event.New()
	outer.SetID("outer-msg-id")
	outer.SetType("google.cloud.pubsub.topic.v1.messagePublished")
	outer.SetSource("//pubsub")
	if err := outer.SetData(event.ApplicationJSON, psMsg); err != nil {
		t.Fatalf("SetData failed: %v", err)
	}
	return outer
}

func TestWrapCloudEvent(t *testing.T) {
	var statuses []types.ExecutionStatus
	mockDB := &mocks.MockDatabase{
		SetExecutionFunc: func(ctx context.Context, record *types.ExecutionRecord) error {
			if record.Status != types.ExecutionStatusPending {
				t.Errorf("Expected status pending, got %v", record.Status)
			}
			return nil
		},
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if status, ok := data["status"].(int32); ok {
				statuses = append(statuses, types.ExecutionStatus(status))
			}
			return nil
		},
	}

	svc := &bootstrap.Service{
		DB: mockDB,
	}

	handler := func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error) {
		if fwCtx.Service != svc {
			t.Error("Service not injected correctly")
		}
		if fwCtx.ExecutionID == "" {
			t.Error("ExecutionID not generated")
		}
		if fwCtx.Logger == nil {
			t.Error("Logger not injected")
		}
		return "ok", nil
	}

	wrapped := WrapCloudEvent("test-service", svc, handler)

	e := event.New()
	e.SetType("com.ironlog.set.changed")
	e.SetSource("test-source")

	if err := wrapped(context.Background(), e); err != nil {
		t.Fatalf("Handler failed: %v", err)
	}

	if len(statuses) != 2 || statuses[0] != types.ExecutionStatusStarted || statuses[1] != types.ExecutionStatusSuccess {
		t.Errorf("Expected STARTED then SUCCESS, got %v", statuses)
	}
}

func TestWrapCloudEvent_Failure(t *testing.T) {
	var last types.ExecutionStatus
	var errMsg interface{}
	mockDB := &mocks.MockDatabase{
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			if status, ok := data["status"].(int32); ok {
				last = types.ExecutionStatus(status)
				errMsg = data["error_message"]
			}
			return nil
		},
	}

	svc := &bootstrap.Service{
		DB: mockDB,
	}

	handler := func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error) {
		return nil, errors.New("simulated error")
	}

	wrapped := WrapCloudEvent("test-service", svc, handler)

	err := wrapped(context.Background(), event.New())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if last != types.ExecutionStatusFailed {
		t.Errorf("Expected FAILED, got %v", last)
	}
	if errMsg != "simulated error" {
		t.Errorf("Expected error message recorded, got %v", errMsg)
	}
}

func TestWrapCloudEvent_ExecutionLoggingFailureIsIgnored(t *testing.T) {
	mockDB := &mocks.MockDatabase{
		SetExecutionFunc: func(ctx context.Context, record *types.ExecutionRecord) error {
			return errors.New("firestore down")
		},
		UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
			return errors.New("firestore down")
		},
	}

	called := false
	wrapped := WrapCloudEvent("test-service", &bootstrap.Service{DB: mockDB}, func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error) {
		called = true
		return nil, nil
	})

	if err := wrapped(context.Background(), event.New()); err != nil {
		t.Fatalf("Expected nil error, got %v", err)
	}
	if !called {
		t.Error("Expected handler to run")
	}
}

func TestWrapCloudEvent_UnwrapsNestedEvent(t *testing.T) {
	svc := &bootstrap.Service{
		DB: &mocks.MockDatabase{},
	}

	expectedID := "inner-event-123"
	expectedType := "com.ironlog.set.changed"

	handler := func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error) {
		if e.ID() != expectedID {
			t.Errorf("Expected event ID %s, got %s", expectedID, e.ID())
		}
		if e.Type() != expectedType {
			t.Errorf("Expected event type %s, got %s", expectedType, e.Type())
		}
		var payload map[string]string
		if err := json.Unmarshal(e.Data(), &payload); err != nil || payload["foo"] != "bar" {
			t.Errorf("Expected inner payload, got %s", string(e.Data()))
		}
		return "ok", nil
	}

	wrapped := WrapCloudEvent("test-service", svc, handler)

	inner := event.New()
	inner.SetID(expectedID)
	inner.SetType(expectedType)
	inner.SetSource("/test/source")
	inner.SetData(event.ApplicationJSON, map[string]string{"foo": "bar"})

	innerBytes, _ := json.Marshal(inner)

	if err := wrapped(context.Background(), pubsubEnvelope(t, innerBytes)); err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
}

func TestWrapCloudEvent_UnwrapsRawPayload(t *testing.T) {
	svc := &bootstrap.Service{
		DB: &mocks.MockDatabase{},
	}

	handler := func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error) {
		var payload types.SetChangedEvent
		if err := json.Unmarshal(e.Data(), &payload); err != nil {
			t.Fatalf("Expected raw payload, got %s", string(e.Data()))
		}
		if payload.Change != types.ChangeSetAdded || len(payload.ExerciseIDs) != 1 {
			t.Errorf("Unexpected payload %+v", payload)
		}
		return nil, nil
	}

	raw := []byte(`{"change":"set_added","exercise_ids":["bench"]}`)
	if err := WrapCloudEvent("test-service", svc, handler)(context.Background(), pubsubEnvelope(t, raw)); err != nil {
		t.Fatalf("Handler failed: %v", err)
	}
}
