package config

import "time"

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *TrackerConfig {
	return &TrackerConfig{
		Database: DatabaseConfig{
			Path: "studytracker.db",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
			File:     "studytracker.log",
		},
		Recorder: RecorderConfig{
			Buffer: 256,
			Retry: RetryConfig{
				InitialInterval:     Duration(100 * time.Millisecond),
				MaxInterval:         Duration(5 * time.Second),
				MaxElapsedTime:      Duration(30 * time.Second),
				Multiplier:          2.0,
				RandomizationFactor: 0.5,
			},
			Breaker: BreakerConfig{
				MaxRequests:         1,
				Timeout:             Duration(15 * time.Second),
				ConsecutiveFailures: 5,
			},
		},
		SeedOnEmpty: true,
		Theme: map[string]string{
			"pending":     "#7D56F4",
			"in_progress": "#F2A93B",
			"completed":   "#3FB950",
			"error":       "#F85149",
		},
	}
}
