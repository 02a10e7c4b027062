package shared

const (
	ProjectID = "ironlog-project" // Can be overridden by GOOGLE_CLOUD_PROJECT

	TopicSetChanged         = "topic-set-changed"
	TopicProgressionUpdated = "topic-progression-updated"

	CollectionExercises         = "exercises"
	CollectionWorkouts          = "workouts"
	CollectionSets              = "sets"
	CollectionSettings          = "settings"
	CollectionProgressionStates = "progression_states"
	CollectionExecutions        = "executions"

	// Single settings document holding app-wide tunables
	SettingsDocApp = "app"

	CloudEventTypeSetChanged         = "com.ironlog.set.changed"
	CloudEventTypeProgressionUpdated = "com.ironlog.progression.updated"
	CloudEventSourceRecompute        = "/ironlog/progression-engine"

	// Object prefix for archived replay traces
	TracePrefix = "progression-traces"
)
