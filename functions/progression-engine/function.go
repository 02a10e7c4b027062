package progressionengine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/go-playground/validator/v10"

	shared "github.com/ripixel/ironlog/pkg"
	"github.com/ripixel/ironlog/pkg/bootstrap"
	"github.com/ripixel/ironlog/pkg/domain/progression"
	ierrors "github.com/ripixel/ironlog/pkg/errors"
	"github.com/ripixel/ironlog/pkg/execution"
	"github.com/ripixel/ironlog/pkg/framework"
	"github.com/ripixel/ironlog/pkg/recompute"
	"github.com/ripixel/ironlog/pkg/types"
)

const (
	serviceName      = "progression-engine"
	childServiceName = "progression-recompute"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error

	validate = validator.New()
)

func init() {
	// CloudEvent handler for EventArc triggers (set-changed topic)
	functions.CloudEvent("RecomputeProgression", RecomputeProgression)

	// HTTP handler for push subscriptions; returns 500 only when a retry can help
	functions.HTTP("RecomputeProgressionHTTP", RecomputeProgressionHTTP)

	// Read path for the UI
	functions.HTTP("GetSuggestion", GetSuggestion)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		svc, svcErr = bootstrap.NewService(ctx)
		if svcErr != nil {
			slog.Error("Failed to initialize service", "error", svcErr)
		}
	})
	return svc, svcErr
}

func newOrchestrator(s *bootstrap.Service) *recompute.Orchestrator {
	cfg := s.Config
	if cfg == nil {
		cfg = &bootstrap.Config{Policy: progression.DefaultPolicy()}
	}
	return recompute.NewOrchestrator(s.DB, s.Pub, s.Store, cfg.GCSArtifactBucket, cfg.Policy)
}

// RecomputeProgression is the entry point for EventArc triggers.
// Malformed events are acknowledged after being recorded as failed
// executions, since redelivering them cannot succeed.
func RecomputeProgression(ctx context.Context, e cloudevents.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}

	err = framework.WrapCloudEvent(serviceName, svc, recomputeHandler)(ctx, e)
	if err != nil && !ierrors.IsRetryable(err) {
		slog.Warn("Dropping non-retryable event", "event_id", e.ID(), "error", err)
		return nil
	}
	return err
}

// RecomputeProgressionHTTP is the HTTP handler for push subscriptions.
func RecomputeProgressionHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	svc, err := initService(ctx)
	if err != nil {
		slog.Error("Service init failed", "error", err)
		http.Error(w, fmt.Sprintf("service init failed: %v", err), http.StatusInternalServerError)
		return
	}

	event, err := cehttp.NewEventFromHTTPRequest(r)
	if err != nil {
		event, err = parseCloudEventFromPubSubPush(r)
		if err != nil {
			slog.Error("Failed to parse event from request", "error", err)
			http.Error(w, fmt.Sprintf("failed to parse event: %v", err), http.StatusBadRequest)
			return
		}
	}

	handlerErr := framework.WrapCloudEvent(serviceName, svc, recomputeHandler)(ctx, *event)
	if handlerErr != nil && ierrors.IsRetryable(handlerErr) {
		// Return HTTP 500 to trigger Pub/Sub NACK and retry
		slog.Error("Handler failed, returning 500 for retry", "error", handlerErr)
		http.Error(w, handlerErr.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if handlerErr != nil {
		w.Write([]byte(`{"status":"rejected"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

// parseCloudEventFromPubSubPush parses a CloudEvent from a Pub/Sub push message.
// The message data is either a full CloudEvent or a bare SetChangedEvent.
func parseCloudEventFromPubSubPush(r *http.Request) (*cloudevents.Event, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	defer r.Body.Close()

	var pushMsg struct {
		Message struct {
			Data        []byte            `json:"data"`
			Attributes  map[string]string `json:"attributes"`
			MessageID   string            `json:"messageId"`
			PublishTime string            `json:"publishTime"`
		} `json:"message"`
		Subscription string `json:"subscription"`
	}

	if err := json.Unmarshal(body, &pushMsg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal push message: %w", err)
	}

	if len(pushMsg.Message.Data) == 0 {
		return nil, fmt.Errorf("no data in push message")
	}

	var event cloudevents.Event
	if err := json.Unmarshal(pushMsg.Message.Data, &event); err == nil && event.Type() != "" {
		return &event, nil
	}

	event = cloudevents.NewEvent()
	event.SetID(pushMsg.Message.MessageID)
	event.SetSource("//pubsub/" + pushMsg.Subscription)
	event.SetType(shared.CloudEventTypeSetChanged)
	if err := event.SetData(cloudevents.ApplicationJSON, json.RawMessage(pushMsg.Message.Data)); err != nil {
		return nil, fmt.Errorf("failed to set event data: %w", err)
	}

	return &event, nil
}

// recomputeHandler contains the business logic
func recomputeHandler(ctx context.Context, e cloudevents.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	var payload types.SetChangedEvent
	if err := json.Unmarshal(e.Data(), &payload); err != nil {
		return nil, ierrors.ErrInvalidEvent.WithCause(err)
	}
	if err := validate.Struct(payload); err != nil {
		return nil, ierrors.ErrValidation.WithCause(err)
	}

	fwCtx.Logger.Info("Recomputing progression",
		"change", payload.Change,
		"exercise_ids", payload.ExerciseIDs,
		"set_id", payload.SetID,
		"workout_id", payload.WorkoutID)

	orchestrator := newOrchestrator(fwCtx.Service).WithLogger(fwCtx.Logger)
	results := make([]*recompute.Result, 0, len(payload.ExerciseIDs))

	for _, exerciseID := range dedupe(payload.ExerciseIDs) {
		res, err := recomputeOne(ctx, fwCtx, orchestrator, payload.Change, exerciseID)
		if err != nil {
			// Everything is recomputed again on redelivery, which is safe
			return map[string]interface{}{
				"status":  "failed",
				"change":  payload.Change,
				"results": results,
			}, err
		}
		results = append(results, res)
	}

	return map[string]interface{}{
		"status":  "ok",
		"change":  payload.Change,
		"results": results,
	}, nil
}

func recomputeOne(ctx context.Context, fwCtx *framework.FrameworkContext, o *recompute.Orchestrator, change types.ChangeKind, exerciseID string) (*recompute.Result, error) {
	db := fwCtx.Service.DB

	childID, err := execution.LogChildExecutionStart(ctx, db, childServiceName, fwCtx.ExecutionID, execution.ExecutionOptions{
		TriggerType: string(change),
		Inputs:      map[string]string{"exercise_id": exerciseID},
	})
	if err != nil {
		fwCtx.Logger.Warn("Failed to log child execution start", "exercise_id", exerciseID, "error", err)
	}

	res, err := o.Recompute(ctx, exerciseID)
	if err != nil {
		if logErr := execution.LogFailure(ctx, db, childID, err, nil); logErr != nil {
			fwCtx.Logger.Warn("Failed to log child execution failure", "error", logErr)
		}
		return nil, fmt.Errorf("recompute %s: %w", exerciseID, err)
	}

	if logErr := execution.LogSuccess(ctx, db, childID, res); logErr != nil {
		fwCtx.Logger.Warn("Failed to log child execution success", "error", logErr)
	}
	return res, nil
}

// dedupe keeps the first occurrence of each id, preserving order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

type suggestionResponse struct {
	ExerciseID string `json:"exercise_id"`
	progression.Suggestion
}

// GetSuggestion serves the next-session suggestion for ?exercise_id=.
func GetSuggestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	exerciseID := r.URL.Query().Get("exercise_id")
	if exerciseID == "" {
		http.Error(w, "exercise_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	svc, err := initService(ctx)
	if err != nil {
		slog.Error("Service init failed", "error", err)
		http.Error(w, "service unavailable", http.StatusInternalServerError)
		return
	}

	suggestion, err := newOrchestrator(svc).GetSuggestion(ctx, exerciseID)
	if err != nil {
		slog.Error("Failed to compute suggestion", "exercise_id", exerciseID, "error", err, "code", ierrors.GetCode(err))
		http.Error(w, "failed to compute suggestion", http.StatusInternalServerError)
		return
	}
	if suggestion == nil {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(suggestionResponse{ExerciseID: exerciseID, Suggestion: *suggestion}); err != nil {
		slog.Error("Failed to encode suggestion", "error", err)
	}
}
