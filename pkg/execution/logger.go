package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ripixel/ironlog/pkg/types"
)

// Database interface for Firestore operations
type Database interface {
	SetExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error
}

// ExecutionOptions contains optional fields for execution logging
type ExecutionOptions struct {
	TriggerType string
	Inputs      interface{}
}

func newExecutionID(service string) string {
	return fmt.Sprintf("%s-%d", service, time.Now().UnixNano())
}

func encodeJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// LogPending creates an execution record with PENDING status and captured inputs
func LogPending(ctx context.Context, db Database, service string, opts ExecutionOptions) (string, error) {
	execID := newExecutionID(service)
	now := time.Now().UTC()

	record := &types.ExecutionRecord{
		ExecutionID: execID,
		Service:     service,
		Status:      types.ExecutionStatusPending,
		Timestamp:   now,
		StartTime:   &now,
		TriggerType: opts.TriggerType,
		InputsJSON:  encodeJSON(opts.Inputs),
	}

	if err := db.SetExecution(ctx, record); err != nil {
		return execID, fmt.Errorf("failed to log execution pending: %w", err)
	}

	return execID, nil
}

// LogStart updates an execution record to STARTED status and adds inputs/metadata
func LogStart(ctx context.Context, db Database, execID string, inputs interface{}, opts *ExecutionOptions) error {
	updates := map[string]interface{}{
		"status":     int32(types.ExecutionStatusStarted),
		"start_time": time.Now().UTC(),
	}

	if opts != nil && opts.TriggerType != "" {
		updates["trigger_type"] = opts.TriggerType
	}

	if s := encodeJSON(inputs); s != "" {
		updates["inputs_json"] = s
	}

	if err := db.UpdateExecution(ctx, execID, updates); err != nil {
		return fmt.Errorf("failed to log execution start: %w", err)
	}

	return nil
}

// LogChildExecutionStart creates an execution record with STARTED status and links it to a parent
func LogChildExecutionStart(ctx context.Context, db Database, service string, parentExecutionID string, opts ExecutionOptions) (string, error) {
	execID := newExecutionID(service)
	now := time.Now().UTC()

	record := &types.ExecutionRecord{
		ExecutionID:       execID,
		Service:           service,
		Status:            types.ExecutionStatusStarted,
		Timestamp:         now,
		StartTime:         &now,
		TriggerType:       opts.TriggerType,
		InputsJSON:        encodeJSON(opts.Inputs),
		ParentExecutionID: parentExecutionID,
	}

	if err := db.SetExecution(ctx, record); err != nil {
		return execID, fmt.Errorf("failed to log child execution start: %w", err)
	}

	return execID, nil
}

// LogSuccess updates an execution record with SUCCESS status
func LogSuccess(ctx context.Context, db Database, execID string, outputs interface{}) error {
	return LogExecutionStatus(ctx, db, execID, types.ExecutionStatusSuccess, outputs)
}

// LogFailure updates an execution record with FAILED status
func LogFailure(ctx context.Context, db Database, execID string, err error, outputs interface{}) error {
	now := time.Now().UTC()

	updates := map[string]interface{}{
		"status":        int32(types.ExecutionStatusFailed),
		"timestamp":     now,
		"end_time":      now,
		"error_message": err.Error(),
	}

	if s := encodeJSON(outputs); s != "" {
		updates["outputs_json"] = s
	}

	if updateErr := db.UpdateExecution(ctx, execID, updates); updateErr != nil {
		return fmt.Errorf("failed to log execution failure: %w", updateErr)
	}

	return nil
}

// LogExecutionStatus updates an execution record with a terminal status
func LogExecutionStatus(ctx context.Context, db Database, execID string, status types.ExecutionStatus, outputs interface{}) error {
	now := time.Now().UTC()

	updates := map[string]interface{}{
		"status":    int32(status),
		"timestamp": now,
		"end_time":  now,
	}

	if s := encodeJSON(outputs); s != "" {
		updates["outputs_json"] = s
	}

	if err := db.UpdateExecution(ctx, execID, updates); err != nil {
		return fmt.Errorf("failed to log execution status %v: %w", status, err)
	}

	return nil
}
