package hookgate

import "time"

// Config holds the configuration for a Gate.
type Config struct {
	// DefaultRecentLimit caps RecentEvents when the caller passes limit <= 0.
	DefaultRecentLimit int

	// DefaultStatsWindow is the EventStats window when the caller passes
	// hours <= 0.
	DefaultStatsWindow time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultRecentLimit: 100,
		DefaultStatsWindow: 24 * time.Hour,
	}
}
