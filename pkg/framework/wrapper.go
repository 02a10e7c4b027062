package framework

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/ripixel/ironlog/pkg/bootstrap"
	"github.com/ripixel/ironlog/pkg/execution"
	"github.com/ripixel/ironlog/pkg/types"
)

// FrameworkContext carries per-invocation dependencies into a handler.
type FrameworkContext struct {
	Service     *bootstrap.Service
	Logger      *slog.Logger
	ExecutionID string
}

// HandlerFunc is the signature for a cloud function handler.
// Returns outputs (for execution logging) and error.
type HandlerFunc func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error)

// WrapCloudEvent wraps a handler with automatic execution logging and
// Pub/Sub envelope unwrapping.
func WrapCloudEvent(serviceName string, svc *bootstrap.Service, handler HandlerFunc) func(context.Context, event.Event) error {
	return func(ctx context.Context, e event.Event) error {
		logger := slog.With("service", serviceName)

		execID, err := execution.LogPending(ctx, svc.DB, serviceName, execution.ExecutionOptions{
			TriggerType: "pubsub",
		})
		if err != nil {
			// Execution logging must never fail the function
			logger.Error("Failed to log execution pending", "error", err)
		}

		logger = logger.With("execution_id", execID)

		inner := unwrapEvent(e, logger)

		var inputs interface{}
		if len(inner.Data()) > 0 {
			inputs = json.RawMessage(inner.Data())
		}
		if err := execution.LogStart(ctx, svc.DB, execID, inputs, nil); err != nil {
			logger.Warn("Failed to log execution start", "error", err)
		}
		logger.Info("Function started", "event_type", inner.Type(), "event_id", inner.ID())

		fwCtx := &FrameworkContext{
			Service:     svc,
			Logger:      logger,
			ExecutionID: execID,
		}

		outputs, handlerErr := handler(ctx, inner, fwCtx)

		if handlerErr != nil {
			logger.Error("Function failed", "error", handlerErr)
			if logErr := execution.LogFailure(ctx, svc.DB, execID, handlerErr, outputs); logErr != nil {
				logger.Warn("Failed to log execution failure", "error", logErr)
			}
			return handlerErr
		}

		logger.Info("Function completed successfully")
		if logErr := execution.LogSuccess(ctx, svc.DB, execID, outputs); logErr != nil {
			logger.Warn("Failed to log execution success", "error", logErr)
		}

		return nil
	}
}

// unwrapEvent extracts the payload of a Pub/Sub push. Publishers in this
// system send a full CloudEvent as the message body; anything else is
// passed on as a bare JSON payload on a copy of the outer event.
func unwrapEvent(e event.Event, logger *slog.Logger) event.Event {
	if e.Type() != "google.cloud.pubsub.topic.v1.messagePublished" {
		return e
	}

	var msg types.PubSubMessage
	if err := json.Unmarshal(e.Data(), &msg); err != nil || len(msg.Message.Data) == 0 {
		return e
	}

	var inner event.Event
	if err := json.Unmarshal(msg.Message.Data, &inner); err == nil && inner.Type() != "" {
		return inner
	}

	logger.Debug("Pub/Sub payload is not a CloudEvent, passing raw data")
	out := e.Clone()
	if err := out.SetData(event.ApplicationJSON, json.RawMessage(msg.Message.Data)); err != nil {
		return e
	}
	return out
}
