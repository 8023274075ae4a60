package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration that reads and writes as a string ("250ms").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DatabaseConfig locates the SQLite file. ":memory:" keeps everything in RAM.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// HistoryConfig bounds the undo history.
type HistoryConfig struct {
	Limit int `json:"limit"` // 0 keeps every command
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level    string `json:"level"`    // debug, info, warn, error
	Encoding string `json:"encoding"` // json or console
	File     string `json:"file"`     // empty discards output
}

// RetryConfig shapes the exponential backoff used for persistence writes.
type RetryConfig struct {
	InitialInterval     Duration `json:"initial_interval"`
	MaxInterval         Duration `json:"max_interval"`
	MaxElapsedTime      Duration `json:"max_elapsed_time"`
	Multiplier          float64  `json:"multiplier"`
	RandomizationFactor float64  `json:"randomization_factor"`
}

// BreakerConfig trips the persistence circuit.
type BreakerConfig struct {
	MaxRequests         uint32   `json:"max_requests"` // probes allowed while half-open
	Timeout             Duration `json:"timeout"`      // open period before probing
	ConsecutiveFailures uint32   `json:"consecutive_failures"`
}

// RecorderConfig configures the event-to-database recorder.
type RecorderConfig struct {
	Buffer  int           `json:"buffer"`
	Retry   RetryConfig   `json:"retry"`
	Breaker BreakerConfig `json:"breaker"`
}

// TrackerConfig is the top-level configuration.
type TrackerConfig struct {
	Database    DatabaseConfig    `json:"database"`
	History     HistoryConfig     `json:"history"`
	Logging     LoggingConfig     `json:"logging"`
	Recorder    RecorderConfig    `json:"recorder"`
	SeedOnEmpty bool              `json:"seed_on_empty"`
	Theme       map[string]string `json:"theme,omitempty"` // board colour overrides keyed by element
}
