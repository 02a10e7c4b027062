package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"

	shared "github.com/ripixel/ironlog/pkg"
	"github.com/ripixel/ironlog/pkg/domain/progression"
	ierrors "github.com/ripixel/ironlog/pkg/errors"
	"github.com/ripixel/ironlog/pkg/recompute"
)

// History is a JSON export of one exercise's logged sets.
type History struct {
	Exercise     progression.Exercise  `json:"exercise" validate:"required"`
	WeightJumpLb float64               `json:"weight_jump_lb" validate:"gte=0"`
	Workouts     []progression.Workout `json:"workouts" validate:"dive"`
	Sets         []progression.Set     `json:"sets" validate:"dive"`
}

func loadHistory(r io.Reader) (*History, error) {
	var h History
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	if err := validator.New().Struct(h); err != nil {
		return nil, fmt.Errorf("invalid history: %w", err)
	}
	return &h, nil
}

// replay runs the engine over a history and returns an archive-shaped trace.
func replay(h *History, policy progression.Policy) recompute.Trace {
	cfg := progression.NewConfig(&h.Exercise, h.WeightJumpLb)

	sets := make([]*progression.Set, len(h.Sets))
	for i := range h.Sets {
		sets[i] = &h.Sets[i]
	}
	workouts := make(map[string]*progression.Workout, len(h.Workouts))
	for i := range h.Workouts {
		workouts[h.Workouts[i].ID] = &h.Workouts[i]
	}

	exposures := progression.BuildExposures(h.Exercise.ID, sets, workouts)
	state, steps := progression.Replay(policy, cfg, exposures)

	return recompute.Trace{
		ExerciseID:   h.Exercise.ID,
		RepRangeMin:  cfg.RepRangeMin,
		RepRangeMax:  cfg.RepRangeMax,
		WeightJumpLb: cfg.WeightJumpLb,
		Steps:        steps,
		State:        state,
		Suggestion:   progression.Suggest(policy, cfg, state),
	}
}

func loadTrace(r io.Reader) (*recompute.Trace, error) {
	var t recompute.Trace
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	return &t, nil
}

// buildPolicy applies flag overrides to the default policy.
func buildPolicy(plateau int, jumpFraction, deload float64) (progression.Policy, error) {
	p := progression.DefaultPolicy()
	p.PlateauThreshold = plateau
	p.TooLargeJumpFraction = jumpFraction
	p.DeloadFactor = deload
	if err := p.Validate(); err != nil {
		return p, ierrors.ErrInvalidPolicy.WithCause(err)
	}
	return p, nil
}

func parseGCSURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// URI: %s", uri)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("expected gs://bucket/object, got %s", uri)
	}
	return bucket, object, nil
}

// fetchTrace reads an archived trace straight from the artifact bucket.
func fetchTrace(ctx context.Context, store shared.BlobStore, uri string) (*recompute.Trace, error) {
	bucket, object, err := parseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	data, err := store.Read(ctx, bucket, object)
	if err != nil {
		return nil, ierrors.ErrArtifactError.WithCause(err).WithMetadata("uri", uri)
	}
	return loadTrace(bytes.NewReader(data))
}

func formatWeight(w *float64) string {
	if w == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *w)
}

func formatReps(reps []int) string {
	parts := make([]string, len(reps))
	for i, r := range reps {
		parts[i] = fmt.Sprint(r)
	}
	return strings.Join(parts, ",")
}

func printTrace(out io.Writer, t *recompute.Trace, verbose bool) {
	fmt.Fprintf(out, "Exercise: %s (reps %d-%d, jump %g lb)\n", t.ExerciseID, t.RepRangeMin, t.RepRangeMax, t.WeightJumpLb)
	fmt.Fprintf(out, "Exposures: %d\n\n", len(t.Steps))

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tDate\tWorkout\tWeight\tReps\tCeiling\tOutcome\tCommitted\tNext")
	fmt.Fprintln(w, "-\t----\t-------\t------\t----\t-------\t-------\t---------\t----")
	for i, s := range t.Steps {
		committed := string(s.Committed)
		if committed == "" {
			committed = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%g\t%s\t%d\t%s\t%s\t%s %s@%d\n",
			i+1,
			s.Timestamp.Format("2006-01-02"),
			s.WorkoutID,
			s.WorkingWeightLb,
			formatReps(s.Reps),
			s.Ceiling,
			s.Outcome,
			committed,
			s.Suggestion.Reason,
			formatWeight(s.Suggestion.TargetWeightLb),
			s.Suggestion.TargetRepCeiling)
		if verbose {
			fmt.Fprintf(w, "\t\t\t\t\t\t\t\tstreak=%d successful=%s\n",
				s.State.ConsecutiveNonSuccessExposures,
				formatWeight(s.State.LastSuccessfulWeightLb))
		}
	}
	w.Flush()

	fmt.Fprintf(out, "\nNext session: %s, weight %s, rep ceiling %d\n",
		t.Suggestion.Reason, formatWeight(t.Suggestion.TargetWeightLb), t.Suggestion.TargetRepCeiling)
}
