package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ripixel/ironlog/pkg/domain/progression"
	ierrors "github.com/ripixel/ironlog/pkg/errors"
	"github.com/ripixel/ironlog/pkg/testing/mocks"
)

const sampleHistory = `{
  "exercise": {"id": "curl", "name": "Curl", "rep_range_min": 8, "rep_range_max": 12},
  "weight_jump_lb": 5,
  "workouts": [
    {"id": "w1", "started_at": "2026-01-05T18:00:00Z"},
    {"id": "w2", "started_at": "2026-01-07T18:00:00Z"},
    {"id": "w3", "started_at": "2026-01-09T18:00:00Z", "deleted": true}
  ],
  "sets": [
    {"id": "s1", "exercise_id": "curl", "workout_id": "w1", "set_index": 0, "weight_lb": 20, "reps": 12},
    {"id": "s2", "exercise_id": "curl", "workout_id": "w1", "set_index": 1, "weight_lb": 20, "reps": 12},
    {"id": "s3", "exercise_id": "curl", "workout_id": "w2", "set_index": 0, "weight_lb": 20, "reps": 15},
    {"id": "s4", "exercise_id": "curl", "workout_id": "w2", "set_index": 1, "weight_lb": 20, "reps": 13},
    {"id": "s5", "exercise_id": "curl", "workout_id": "w3", "set_index": 0, "weight_lb": 25, "reps": 3}
  ]
}`

func TestLoadHistory(t *testing.T) {
	h, err := loadHistory(strings.NewReader(sampleHistory))
	if err != nil {
		t.Fatalf("loadHistory failed: %v", err)
	}
	if h.Exercise.ID != "curl" || len(h.Sets) != 5 || len(h.Workouts) != 3 {
		t.Errorf("Unexpected history %+v", h)
	}

	t.Run("Rejects non-positive weight", func(t *testing.T) {
		bad := strings.Replace(sampleHistory, `"weight_lb": 25`, `"weight_lb": 0`, 1)
		if _, err := loadHistory(strings.NewReader(bad)); err == nil {
			t.Error("Expected validation error, got nil")
		}
	})

	t.Run("Rejects unknown fields", func(t *testing.T) {
		bad := strings.Replace(sampleHistory, `"weight_jump_lb": 5`, `"weight_jump_kg": 2`, 1)
		if _, err := loadHistory(strings.NewReader(bad)); err == nil {
			t.Error("Expected decode error, got nil")
		}
	})
}

func TestReplay(t *testing.T) {
	h, err := loadHistory(strings.NewReader(sampleHistory))
	if err != nil {
		t.Fatalf("loadHistory failed: %v", err)
	}

	trace := replay(h, progression.DefaultPolicy())

	// The deleted workout contributes nothing
	if len(trace.Steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(trace.Steps))
	}
	// 20 lb with a 5 lb jump is a 25% jump, so the ceiling expands first
	if trace.Steps[0].Suggestion.Reason != progression.ReasonExpandCeiling {
		t.Errorf("Expected expand_ceiling after first session, got %s", trace.Steps[0].Suggestion.Reason)
	}
	if trace.Steps[1].Committed != progression.ReasonExpandCeiling || trace.Steps[1].Ceiling != 15 {
		t.Errorf("Expected second session to commit ceiling 15, got %q at %d", trace.Steps[1].Committed, trace.Steps[1].Ceiling)
	}
	if trace.Suggestion.Reason != progression.ReasonIncreaseReps {
		t.Errorf("Expected increase_reps, got %s", trace.Suggestion.Reason)
	}
}

func TestPrintTrace(t *testing.T) {
	h, _ := loadHistory(strings.NewReader(sampleHistory))
	trace := replay(h, progression.DefaultPolicy())

	var buf bytes.Buffer
	printTrace(&buf, &trace, false)
	out := buf.String()

	for _, want := range []string{
		"Exercise: curl (reps 8-12, jump 5 lb)",
		"Exposures: 2",
		"2026-01-05",
		"12,12",
		"expand_ceiling 20@15",
		"Next session: increase_reps, weight 20, rep ceiling 15",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\n%s", want, out)
		}
	}

	// Archived traces print identically
	encoded, _ := json.Marshal(trace)
	loaded, err := loadTrace(bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("loadTrace failed: %v", err)
	}
	var again bytes.Buffer
	printTrace(&again, loaded, false)
	if again.String() != out {
		t.Errorf("Expected archived trace to print identically\n got: %s\nwant: %s", again.String(), out)
	}
}

func TestBuildPolicy(t *testing.T) {
	t.Run("Valid overrides", func(t *testing.T) {
		p, err := buildPolicy(3, 0.2, 0.8)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if p.PlateauThreshold != 3 || p.TooLargeJumpFraction != 0.2 || p.DeloadFactor != 0.8 {
			t.Errorf("Expected overrides 3/0.2/0.8, got %+v", p)
		}
	})

	t.Run("Deload factor out of range", func(t *testing.T) {
		_, err := buildPolicy(progression.DefaultPlateauThreshold, progression.DefaultTooLargeJumpFraction, 2)
		if !errors.Is(err, ierrors.ErrInvalidPolicy) {
			t.Errorf("Expected INVALID_POLICY, got %v", err)
		}
	})

	t.Run("Zero plateau threshold", func(t *testing.T) {
		_, err := buildPolicy(0, progression.DefaultTooLargeJumpFraction, progression.DefaultDeloadFactor)
		if !errors.Is(err, ierrors.ErrInvalidPolicy) {
			t.Errorf("Expected INVALID_POLICY, got %v", err)
		}
	})
}

func TestFetchTrace(t *testing.T) {
	h, err := loadHistory(strings.NewReader(sampleHistory))
	if err != nil {
		t.Fatalf("loadHistory failed: %v", err)
	}
	archived, _ := json.Marshal(replay(h, progression.DefaultPolicy()))

	t.Run("Reads from bucket", func(t *testing.T) {
		var gotBucket, gotObject string
		store := &mocks.MockBlobStore{
			ReadFunc: func(ctx context.Context, bucket, object string) ([]byte, error) {
				gotBucket, gotObject = bucket, object
				return archived, nil
			},
		}

		trace, err := fetchTrace(context.Background(), store, "gs://ironlog-artifacts/progression-traces/curl.json")
		if err != nil {
			t.Fatalf("fetchTrace failed: %v", err)
		}
		if gotBucket != "ironlog-artifacts" || gotObject != "progression-traces/curl.json" {
			t.Errorf("Expected ironlog-artifacts/progression-traces/curl.json, got %s/%s", gotBucket, gotObject)
		}
		if trace.ExerciseID != "curl" || len(trace.Steps) != 2 {
			t.Errorf("Expected curl trace with 2 steps, got %s with %d", trace.ExerciseID, len(trace.Steps))
		}
	})

	t.Run("Read failure", func(t *testing.T) {
		store := &mocks.MockBlobStore{
			ReadFunc: func(ctx context.Context, bucket, object string) ([]byte, error) {
				return nil, errors.New("object not found")
			},
		}
		_, err := fetchTrace(context.Background(), store, "gs://ironlog-artifacts/progression-traces/curl.json")
		if ierrors.GetCode(err) != ierrors.CodeArtifactError {
			t.Errorf("Expected ARTIFACT_ERROR, got %v", err)
		}
	})

	t.Run("Malformed URI", func(t *testing.T) {
		for _, uri := range []string{"ironlog-artifacts/curl.json", "gs://ironlog-artifacts", "gs:///curl.json"} {
			if _, err := fetchTrace(context.Background(), &mocks.MockBlobStore{}, uri); err == nil {
				t.Errorf("Expected error for %q", uri)
			}
		}
	})
}
