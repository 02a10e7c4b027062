package firestore

import (
	"context"

	"cloud.google.com/go/firestore"

	shared "github.com/ripixel/ironlog/pkg"
	"github.com/ripixel/ironlog/pkg/domain/progression"
	"github.com/ripixel/ironlog/pkg/types"
)

// Client exposes typed collections over a raw Firestore client.
type Client struct {
	fs *firestore.Client
}

func NewClient(fs *firestore.Client) *Client {
	return &Client{fs: fs}
}

// Collection is a Firestore collection whose documents convert to and from T.
type Collection[T any] struct {
	fs     *firestore.Client
	ref    *firestore.CollectionRef
	to     func(*T) map[string]interface{}
	from   func(map[string]interface{}) *T
	withID func(*T, string)
}

// Document is a single typed document reference.
type Document[T any] struct {
	ref  *firestore.DocumentRef
	coll *Collection[T]
}

func (c *Collection[T]) Doc(id string) *Document[T] {
	return &Document[T]{ref: c.ref.Doc(id), coll: c}
}

// Where runs an equality-style query and converts every match.
func (c *Collection[T]) Where(ctx context.Context, path, op string, value interface{}) ([]*T, error) {
	snaps, err := c.ref.Where(path, op, value).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, c.convert(snap))
	}
	return out, nil
}

// GetAll batch-reads the given ids. Missing documents are omitted.
func (c *Collection[T]) GetAll(ctx context.Context, ids []string) (map[string]*T, error) {
	out := make(map[string]*T, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = c.ref.Doc(id)
	}
	snaps, err := c.fs.GetAll(ctx, refs)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		out[snap.Ref.ID] = c.convert(snap)
	}
	return out, nil
}

func (c *Collection[T]) convert(snap *firestore.DocumentSnapshot) *T {
	v := c.from(snap.Data())
	if c.withID != nil {
		c.withID(v, snap.Ref.ID)
	}
	return v
}

// Get returns the document, or the Firestore NotFound error when absent.
func (d *Document[T]) Get(ctx context.Context) (*T, error) {
	snap, err := d.ref.Get(ctx)
	if err != nil {
		return nil, err
	}
	return d.coll.convert(snap), nil
}

// Set replaces the whole document.
func (d *Document[T]) Set(ctx context.Context, v *T) error {
	_, err := d.ref.Set(ctx, d.coll.to(v))
	return err
}

// Update merges fields into the document, creating it if needed.
func (d *Document[T]) Update(ctx context.Context, data map[string]interface{}) error {
	_, err := d.ref.Set(ctx, data, firestore.MergeAll)
	return err
}

func (d *Document[T]) Delete(ctx context.Context) error {
	_, err := d.ref.Delete(ctx)
	return err
}

// --- Collections ---

func (c *Client) Exercises() *Collection[progression.Exercise] {
	return &Collection[progression.Exercise]{
		fs:     c.fs,
		ref:    c.fs.Collection(shared.CollectionExercises),
		to:     ExerciseToFirestore,
		from:   FirestoreToExercise,
		withID: func(e *progression.Exercise, id string) { e.ID = id },
	}
}

func (c *Client) Workouts() *Collection[progression.Workout] {
	return &Collection[progression.Workout]{
		fs:     c.fs,
		ref:    c.fs.Collection(shared.CollectionWorkouts),
		to:     WorkoutToFirestore,
		from:   FirestoreToWorkout,
		withID: func(w *progression.Workout, id string) { w.ID = id },
	}
}

func (c *Client) Sets() *Collection[progression.Set] {
	return &Collection[progression.Set]{
		fs:     c.fs,
		ref:    c.fs.Collection(shared.CollectionSets),
		to:     SetToFirestore,
		from:   FirestoreToSet,
		withID: func(s *progression.Set, id string) { s.ID = id },
	}
}

func (c *Client) ProgressionStates() *Collection[progression.State] {
	return &Collection[progression.State]{
		fs:   c.fs,
		ref:  c.fs.Collection(shared.CollectionProgressionStates),
		to:   ProgressionStateToFirestore,
		from: FirestoreToProgressionState,
	}
}

func (c *Client) Executions() *Collection[types.ExecutionRecord] {
	return &Collection[types.ExecutionRecord]{
		fs:   c.fs,
		ref:  c.fs.Collection(shared.CollectionExecutions),
		to:   ExecutionToFirestore,
		from: FirestoreToExecution,
	}
}

// Settings returns the raw app settings document.
func (c *Client) Settings() *firestore.DocumentRef {
	return c.fs.Collection(shared.CollectionSettings).Doc(shared.SettingsDocApp)
}
