package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"

	shared "github.com/ripixel/ironlog/pkg"
	"github.com/ripixel/ironlog/pkg/domain/progression"
	ierrors "github.com/ripixel/ironlog/pkg/errors"
	"github.com/ripixel/ironlog/pkg/infrastructure/database"
	infrapubsub "github.com/ripixel/ironlog/pkg/infrastructure/pubsub"
	infrastorage "github.com/ripixel/ironlog/pkg/infrastructure/storage"
)

// Config holds standard configuration for all services
type Config struct {
	ProjectID         string
	EnablePublish     bool
	GCSArtifactBucket string
	Policy            progression.Policy
}

// Service holds initialized dependencies
type Service struct {
	DB     shared.Database
	Store  shared.BlobStore
	Pub    shared.Publisher
	Config *Config
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if projectID == "" {
		projectID = shared.ProjectID // Fallback
	}

	return &Config{
		ProjectID:         projectID,
		EnablePublish:     os.Getenv("ENABLE_PUBLISH") == "true",
		GCSArtifactBucket: os.Getenv("GCS_ARTIFACT_BUCKET"),
		Policy:            LoadPolicy(),
	}
}

// LoadPolicy reads progression thresholds from PROGRESSION_* variables.
// Unparseable values keep their default; an out-of-range policy falls back
// to DefaultPolicy as a whole.
func LoadPolicy() progression.Policy {
	p := progression.DefaultPolicy()

	if v := os.Getenv("PROGRESSION_PLATEAU_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.PlateauThreshold = n
		} else {
			slog.Warn("Ignoring invalid PROGRESSION_PLATEAU_THRESHOLD", "value", v, "error", err)
		}
	}
	if v := os.Getenv("PROGRESSION_TOO_LARGE_JUMP_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			p.TooLargeJumpFraction = f
		} else {
			slog.Warn("Ignoring invalid PROGRESSION_TOO_LARGE_JUMP_FRACTION", "value", v, "error", err)
		}
	}
	if v := os.Getenv("PROGRESSION_DELOAD_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			p.DeloadFactor = f
		} else {
			slog.Warn("Ignoring invalid PROGRESSION_DELOAD_FACTOR", "value", v, "error", err)
		}
	}

	if err := p.Validate(); err != nil {
		slog.Warn("Progression policy out of range, using defaults", "error", ierrors.ErrInvalidPolicy.WithCause(err))
		return progression.DefaultPolicy()
	}
	return p
}

// GetSlogHandlerOptions returns standard handler options for GCP
func GetSlogHandlerOptions(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Map standard keys to Cloud Logging keys
			if a.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: a.Value}
			}
			if a.Key == slog.LevelKey {
				return slog.Attr{Key: "severity", Value: a.Value}
			}
			return a
		},
	}
}

// ComponentHandler wraps a slog.Handler to prepend [component] to the message.
// The component may be bound with logger.With or passed per record.
type ComponentHandler struct {
	slog.Handler
	component string
}

// Handle implements slog.Handler
func (h *ComponentHandler) Handle(ctx context.Context, r slog.Record) error {
	component := h.component

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = a.Value.String()
			return false // stop
		}
		return true
	})

	if component != "" {
		newMsg := fmt.Sprintf("[%s] %s", component, r.Message)
		newRecord := slog.NewRecord(r.Time, r.Level, newMsg, r.PC)

		r.Attrs(func(a slog.Attr) bool {
			if a.Key != "component" {
				newRecord.AddAttrs(a)
			}
			return true
		})
		r = newRecord
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps the wrapper in the chain and captures a bound component.
func (h *ComponentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := h.component
	rest := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "component" {
			component = a.Value.String()
			continue
		}
		rest = append(rest, a)
	}
	return &ComponentHandler{Handler: h.Handler.WithAttrs(rest), component: component}
}

func (h *ComponentHandler) WithGroup(name string) slog.Handler {
	return &ComponentHandler{Handler: h.Handler.WithGroup(name), component: h.component}
}

// InitLogger configures structured logging with Cloud Logging compatible keys
func InitLogger() {
	opts := GetSlogHandlerOptions(ParseLevel(os.Getenv("LOG_LEVEL")))
	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(&ComponentHandler{Handler: handler})
	slog.SetDefault(logger)
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a configured logger instance
func NewLogger(serviceName string) *slog.Logger {
	opts := GetSlogHandlerOptions(ParseLevel(os.Getenv("LOG_LEVEL")))
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(&ComponentHandler{Handler: handler}).With("service", serviceName)
}

// NewService initializes all standard dependencies
func NewService(ctx context.Context) (*Service, error) {
	InitLogger()
	cfg := LoadConfig()

	slog.Info("Initializing service",
		"project_id", cfg.ProjectID,
		"plateau_threshold", cfg.Policy.PlateauThreshold,
		"too_large_jump_fraction", cfg.Policy.TooLargeJumpFraction,
		"deload_factor", cfg.Policy.DeloadFactor)

	// Firestore
	fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		slog.Error("Firestore init failed", "error", err)
		return nil, fmt.Errorf("firestore init: %w", err)
	}

	// Pub/Sub
	var pubAdapter shared.Publisher
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			slog.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		pubAdapter = &infrapubsub.PubSubAdapter{Client: psClient}
		slog.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		pubAdapter = &infrapubsub.LogPublisher{}
		slog.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	// Storage
	var store shared.BlobStore
	if cfg.GCSArtifactBucket != "" {
		gcsClient, err := storage.NewClient(ctx)
		if err != nil {
			slog.Error("Storage init failed", "error", err)
			return nil, fmt.Errorf("storage init: %w", err)
		}
		store = &infrastorage.StorageAdapter{Client: gcsClient}
	} else {
		slog.Info("Storage: DISABLED (GCS_ARTIFACT_BUCKET unset)")
	}

	return &Service{
		DB:     database.NewFirestoreAdapter(fsClient),
		Pub:    pubAdapter,
		Store:  store,
		Config: cfg,
	}, nil
}
