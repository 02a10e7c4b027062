package types

import "time"

type ExecutionStatus int32

const (
	ExecutionStatusUnknown ExecutionStatus = iota
	ExecutionStatusPending
	ExecutionStatusStarted
	ExecutionStatusSuccess
	ExecutionStatusFailed
)

func (s ExecutionStatus) String() string {
	switch s {
	case ExecutionStatusPending:
		return "PENDING"
	case ExecutionStatusStarted:
		return "STARTED"
	case ExecutionStatusSuccess:
		return "SUCCESS"
	case ExecutionStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ExecutionRecord tracks one invocation of a function.
type ExecutionRecord struct {
	ExecutionID       string
	Service           string
	Status            ExecutionStatus
	Timestamp         time.Time
	TriggerType       string
	StartTime         *time.Time
	EndTime           *time.Time
	ErrorMessage      string
	InputsJSON        string
	OutputsJSON       string
	ParentExecutionID string
}
