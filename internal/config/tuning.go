// Package config loads the optional JSON tuning file for the radar
// environment. Fields omitted from the file keep their defaults, so partial
// configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Tuning is the root configuration for the simulated environment and the
// scan command. Pointer fields distinguish "unset" from zero.
type Tuning struct {
	// Environment params
	TickInterval     *string  `json:"tick_interval,omitempty"` // duration string like "2s"
	MaxLiveTracks    *int     `json:"max_live_tracks,omitempty"`
	SpawnProbability *float64 `json:"spawn_probability,omitempty"`
	SpawnRangeMinM   *float64 `json:"spawn_range_min_m,omitempty"`
	SpawnRangeMaxM   *float64 `json:"spawn_range_max_m,omitempty"`
	SpawnVelMinMPS   *float64 `json:"spawn_velocity_min_mps,omitempty"`
	SpawnVelMaxMPS   *float64 `json:"spawn_velocity_max_mps,omitempty"`
	CullProbability  *float64 `json:"cull_probability,omitempty"`

	// Scan params
	ScanDelayBaseS       *float64 `json:"scan_delay_base_s,omitempty"`
	ScanSpawnProbability *float64 `json:"scan_spawn_probability,omitempty"`
}

// EmptyTuning returns a Tuning with all fields unset; the Get* methods fall
// back to the standard defaults.
func EmptyTuning() *Tuning {
	return &Tuning{}
}

// LoadTuning loads a Tuning from a JSON file. The path must carry a .json
// extension and fit under the max file size.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuning()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Tuning) Validate() error {
	if c.TickInterval != nil && *c.TickInterval != "" {
		d, err := time.ParseDuration(*c.TickInterval)
		if err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", *c.TickInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("tick_interval must be positive, got %s", d)
		}
	}

	for name, p := range map[string]*float64{
		"spawn_probability":      c.SpawnProbability,
		"cull_probability":       c.CullProbability,
		"scan_spawn_probability": c.ScanSpawnProbability,
	} {
		if p != nil && (*p < 0 || *p > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *p)
		}
	}

	if c.MaxLiveTracks != nil && *c.MaxLiveTracks < 0 {
		return fmt.Errorf("max_live_tracks must be non-negative, got %d", *c.MaxLiveTracks)
	}

	if c.ScanDelayBaseS != nil && *c.ScanDelayBaseS < 0 {
		return fmt.Errorf("scan_delay_base_s must be non-negative, got %f", *c.ScanDelayBaseS)
	}

	if c.SpawnRangeMinM != nil && c.SpawnRangeMaxM != nil && *c.SpawnRangeMinM > *c.SpawnRangeMaxM {
		return fmt.Errorf("spawn_range_min_m %f exceeds spawn_range_max_m %f", *c.SpawnRangeMinM, *c.SpawnRangeMaxM)
	}

	return nil
}

// GetTickInterval parses and returns the tick interval.
func (c *Tuning) GetTickInterval() time.Duration {
	if c.TickInterval == nil || *c.TickInterval == "" {
		return 2 * time.Second // default
	}
	d, err := time.ParseDuration(*c.TickInterval)
	if err != nil {
		return 2 * time.Second // default on parse error
	}
	return d
}

// GetMaxLiveTracks returns the spontaneous-spawn population cap.
func (c *Tuning) GetMaxLiveTracks() int {
	if c.MaxLiveTracks == nil {
		return 12
	}
	return *c.MaxLiveTracks
}

// GetSpawnProbability returns the per-tick spawn probability.
func (c *Tuning) GetSpawnProbability() float64 {
	if c.SpawnProbability == nil {
		return 0.4
	}
	return *c.SpawnProbability
}

// GetSpawnRangeMinM returns the minimum range of spawned tracks.
func (c *Tuning) GetSpawnRangeMinM() float64 {
	if c.SpawnRangeMinM == nil {
		return 500
	}
	return *c.SpawnRangeMinM
}

// GetSpawnRangeMaxM returns the maximum range of spawned tracks.
func (c *Tuning) GetSpawnRangeMaxM() float64 {
	if c.SpawnRangeMaxM == nil {
		return 20000
	}
	return *c.SpawnRangeMaxM
}

// GetSpawnVelMinMPS returns the minimum velocity of spawned tracks.
func (c *Tuning) GetSpawnVelMinMPS() float64 {
	if c.SpawnVelMinMPS == nil {
		return -200
	}
	return *c.SpawnVelMinMPS
}

// GetSpawnVelMaxMPS returns the maximum velocity of spawned tracks.
func (c *Tuning) GetSpawnVelMaxMPS() float64 {
	if c.SpawnVelMaxMPS == nil {
		return 200
	}
	return *c.SpawnVelMaxMPS
}

// GetCullProbability returns the per-track per-tick removal probability.
func (c *Tuning) GetCullProbability() float64 {
	if c.CullProbability == nil {
		return 0.03
	}
	return *c.CullProbability
}

// GetScanDelayBase returns the fixed part of scan's simulated delay.
func (c *Tuning) GetScanDelayBase() time.Duration {
	if c.ScanDelayBaseS == nil {
		return 50 * time.Millisecond
	}
	return time.Duration(*c.ScanDelayBaseS * float64(time.Second))
}

// GetScanSpawnProbability returns the per-attempt instant-contact chance.
func (c *Tuning) GetScanSpawnProbability() float64 {
	if c.ScanSpawnProbability == nil {
		return 0.5
	}
	return *c.ScanSpawnProbability
}
