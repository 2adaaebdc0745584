package pacer

import (
	"os"
	"strconv"

	"github.com/hyperengineering/pacer/internal/store"
)

// Config configures the Pacer client.
type Config struct {
	// Learner is the learner ID the store is keyed by.
	// If empty, resolved as explicit > PACER_LEARNER env > "default".
	Learner string

	// LocalPath is the path to the local SQLite database.
	// If empty, derived from the resolved Learner.
	LocalPath string

	// EnableAIPrediction turns the adaptive predictor on. When false,
	// or when no reasoner is configured, every plan takes the baseline
	// path.
	EnableAIPrediction bool

	// FallbackToSM2 keeps the baseline fallback armed. The predictor
	// treats this as always-on for safety; the field exists so callers
	// can express the intent explicitly.
	FallbackToSM2 bool

	// MinIntervalHours is the lower clamp for predicted intervals.
	// Defaults to DefaultMinIntervalHours.
	MinIntervalHours int

	// MaxIntervalHours is the upper clamp for predicted intervals.
	// Defaults to DefaultMaxIntervalHours.
	MaxIntervalHours int

	// MinEventsForUpdate is the buffered-event threshold that triggers
	// a profile recompute. Defaults to DefaultMinEventsForUpdate.
	MinEventsForUpdate int

	// MaxBufferedEvents caps the pending event buffer. Defaults to
	// DefaultMaxBufferedEvents.
	MaxBufferedEvents int

	// ReasonerURL is the base URL of an OpenAI-compatible chat
	// completion endpoint. If empty, the default public endpoint is
	// used by the reference reasoner.
	ReasonerURL string

	// ReasonerAPIKey authenticates with the reasoning provider.
	ReasonerAPIKey string

	// ReasonerModel selects the provider model.
	ReasonerModel string

	// Debug enables verbose logging of all reasoner communications.
	Debug bool

	// DebugLogPath is the path to write debug logs.
	// Defaults to stderr if empty.
	DebugLogPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Learner:            "default",
		LocalPath:          store.LearnerDBPath("default"),
		EnableAIPrediction: true,
		FallbackToSM2:      true,
		MinIntervalHours:   DefaultMinIntervalHours,
		MaxIntervalHours:   DefaultMaxIntervalHours,
		MinEventsForUpdate: DefaultMinEventsForUpdate,
		MaxBufferedEvents:  DefaultMaxBufferedEvents,
	}
}

// ConfigFromEnv reads configuration from environment variables.
//
//	PACER_DB_PATH        → LocalPath
//	PACER_LEARNER        → Learner
//	PACER_REASONER_URL   → ReasonerURL
//	PACER_REASONER_KEY   → ReasonerAPIKey
//	PACER_REASONER_MODEL → ReasonerModel
//	PACER_ADAPTIVE       → EnableAIPrediction ("0"/"false" disables)
//	PACER_DEBUG          → Debug (any non-empty value enables)
//	PACER_DEBUG_LOG      → DebugLogPath
func ConfigFromEnv() Config {
	adaptive := true
	if v := os.Getenv("PACER_ADAPTIVE"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			adaptive = parsed
		}
	}
	return Config{
		LocalPath:          os.Getenv("PACER_DB_PATH"),
		Learner:            os.Getenv("PACER_LEARNER"),
		ReasonerURL:        os.Getenv("PACER_REASONER_URL"),
		ReasonerAPIKey:     os.Getenv("PACER_REASONER_KEY"),
		ReasonerModel:      os.Getenv("PACER_REASONER_MODEL"),
		EnableAIPrediction: adaptive,
		FallbackToSM2:      true,
		Debug:              os.Getenv("PACER_DEBUG") != "",
		DebugLogPath:       os.Getenv("PACER_DEBUG_LOG"),
	}
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields. Configuration errors are
// rejected here, at construction time, never at call time.
func (c *Config) Validate() error {
	if c.LocalPath == "" {
		return &ValidationError{Field: "LocalPath", Message: "required: path to SQLite database"}
	}
	if c.Learner != "" {
		if err := store.ValidateLearnerID(c.Learner); err != nil {
			return &ValidationError{Field: "Learner", Message: err.Error()}
		}
	}
	if c.MinIntervalHours < 1 {
		return &ValidationError{Field: "MinIntervalHours", Message: "must be at least 1"}
	}
	if c.MaxIntervalHours < c.MinIntervalHours {
		return &ValidationError{Field: "MaxIntervalHours", Message: "must be >= MinIntervalHours"}
	}
	if c.MinEventsForUpdate < 1 {
		return &ValidationError{Field: "MinEventsForUpdate", Message: "must be at least 1"}
	}
	if c.MaxBufferedEvents < c.MinEventsForUpdate {
		return &ValidationError{Field: "MaxBufferedEvents", Message: "must be >= MinEventsForUpdate"}
	}
	return nil
}

// WithDefaults fills in default values for unset fields.
// Learner resolution: explicit Learner field > PACER_LEARNER env >
// "default". LocalPath is derived from the resolved Learner if not
// explicitly set.
func (c Config) WithDefaults() Config {
	if c.Learner == "" {
		resolved, err := store.ResolveLearner("")
		if err == nil {
			c.Learner = resolved
		} else {
			c.Learner = "default"
		}
	}
	if c.LocalPath == "" {
		c.LocalPath = store.LearnerDBPath(c.Learner)
	}
	if c.MinIntervalHours == 0 {
		c.MinIntervalHours = DefaultMinIntervalHours
	}
	if c.MaxIntervalHours == 0 {
		c.MaxIntervalHours = DefaultMaxIntervalHours
	}
	if c.MinEventsForUpdate == 0 {
		c.MinEventsForUpdate = DefaultMinEventsForUpdate
	}
	if c.MaxBufferedEvents == 0 {
		c.MaxBufferedEvents = DefaultMaxBufferedEvents
	}
	return c
}
