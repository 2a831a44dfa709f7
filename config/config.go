package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the engine settings that are not part of any project record.
type Config struct {
	Commitments CommitmentConfig  `toml:"commitments"`
	Calendar    CalendarConfig    `toml:"calendar"`
	Contingency ContingencyConfig `toml:"contingency"`
	Gates       []GateConfig      `toml:"gates"`
}

// CommitmentConfig holds purchase order tracking settings.
type CommitmentConfig struct {
	// Tolerance is the currency amount within which a PO counts as fully invoiced.
	Tolerance float64 `toml:"tolerance"`
}

// CalendarConfig holds reporting week settings.
type CalendarConfig struct {
	WeekEndingDay string `toml:"week_ending_day"`
}

// ContingencyConfig holds the project creation defaults for the contingency pool.
type ContingencyConfig struct {
	DefaultPercent float64 `toml:"default_percent"`
}

// GateConfig is one entry of the global default progress-gate table.
type GateConfig struct {
	Name      string  `toml:"name"`
	Label     string  `toml:"label"`
	Percent   float64 `toml:"percent"`
	SortOrder int     `toml:"sort_order"`
}

// DefaultGates returns the canonical gate progression.
func DefaultGates() []GateConfig {
	return []GateConfig{
		{Name: "not_started", Label: "Not Started", Percent: 0, SortOrder: 10},
		{Name: "in_progress", Label: "In Progress", Percent: 25, SortOrder: 20},
		{Name: "internal_review", Label: "Internal Review", Percent: 75, SortOrder: 30},
		{Name: "client_review", Label: "Client Review", Percent: 85, SortOrder: 40},
		{Name: "issued", Label: "Issued", Percent: 95, SortOrder: 50},
		{Name: "complete", Label: "Complete", Percent: 100, SortOrder: 60},
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Commitments: CommitmentConfig{Tolerance: 0.01},
		Calendar:    CalendarConfig{WeekEndingDay: "saturday"},
		Contingency: ContingencyConfig{DefaultPercent: 10},
		Gates:       DefaultGates(),
	}
}

// Load reads the config file at path, returning defaults if it doesn't exist.
// Sections missing from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// WeekEnding returns the configured weekday on which reporting weeks close.
func (c Config) WeekEnding() time.Weekday {
	day, _ := parseWeekday(c.Calendar.WeekEndingDay)
	return day
}

func (c Config) validate() error {
	if c.Commitments.Tolerance < 0 {
		return fmt.Errorf("config: commitments.tolerance must not be negative")
	}
	if _, ok := parseWeekday(c.Calendar.WeekEndingDay); !ok {
		return fmt.Errorf("config: unknown calendar.week_ending_day %q", c.Calendar.WeekEndingDay)
	}
	prev := -1 << 31
	for _, g := range c.Gates {
		if g.Name == "" {
			return fmt.Errorf("config: gate without a name")
		}
		if g.Percent < 0 || g.Percent > 100 {
			return fmt.Errorf("config: gate %q percent %.1f outside 0-100", g.Name, g.Percent)
		}
		if g.SortOrder <= prev {
			return fmt.Errorf("config: gate %q sort_order must be strictly increasing", g.Name)
		}
		prev = g.SortOrder
	}
	return nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(s string) (time.Weekday, bool) {
	if s == "" {
		return time.Saturday, true
	}
	d, ok := weekdays[s]
	return d, ok
}
