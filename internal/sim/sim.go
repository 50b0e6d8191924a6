// Package sim drives the synthetic radar environment. A background loop
// periodically spawns, mutates and culls tracks in the shared store.
package sim

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/banshee-data/skywatch/internal/monitoring"
	"github.com/banshee-data/skywatch/internal/timeutil"
	"github.com/banshee-data/skywatch/internal/track"
)

// Config holds the numeric parameters of the environment simulation.
type Config struct {
	TickInterval     time.Duration // delay between environment updates
	MaxLiveTracks    int           // spontaneous spawns stop at this population
	SpawnProbability float64       // per-tick chance of one new track

	SpawnRangeMinM float64 // new-track range drawn from [min, max) meters
	SpawnRangeMaxM float64
	SpawnVelMinMPS float64 // new-track velocity drawn from [min, max) m/s
	SpawnVelMaxMPS float64

	StepScaleMin  float64 // range advances by velocity * U(min, max) per tick
	StepScaleMax  float64
	AngleDriftDeg float64 // per-tick bearing drift is U(-d, d) degrees
	VelDriftMPS   float64 // per-tick velocity perturbation is U(-d, d) m/s
	MaxSpeedMPS   float64 // velocity clamp, symmetric around zero

	MinRangeM       float64 // tracks closer than this are removed
	MaxRangeM       float64 // tracks farther than this are removed
	CullProbability float64 // per-track per-tick chance of spontaneous removal
}

// DefaultConfig returns the standard environment parameters.
func DefaultConfig() Config {
	return Config{
		TickInterval:     2 * time.Second,
		MaxLiveTracks:    12,
		SpawnProbability: 0.4,
		SpawnRangeMinM:   500,
		SpawnRangeMaxM:   20000,
		SpawnVelMinMPS:   -200,
		SpawnVelMaxMPS:   200,
		StepScaleMin:     0.5,
		StepScaleMax:     2.0,
		AngleDriftDeg:    3,
		VelDriftMPS:      2,
		MaxSpeedMPS:      800,
		MinRangeM:        50,
		MaxRangeM:        100000,
		CullProbability:  0.03,
	}
}

// Simulator mutates the track store on a fixed interval, independent of
// client traffic.
type Simulator struct {
	store *track.Store
	cfg   Config
	clock timeutil.Clock
	rng   *rand.Rand
}

// New creates a simulator over the given store. A nil clock uses the real
// clock; a nil rng is seeded from the current time.
func New(store *track.Store, cfg Config, clock timeutil.Clock, rng *rand.Rand) *Simulator {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{store: store, cfg: cfg, clock: clock, rng: rng}
}

// Run ticks the environment until ctx is cancelled. A failure inside one
// tick never terminates the loop; it is logged and the next tick proceeds.
func (s *Simulator) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("environment simulator stopped")
			return
		case <-ticker.C():
			s.safeTick()
		}
	}
}

func (s *Simulator) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			monitoring.Logf("environment tick failed, continuing: %v", r)
		}
	}()
	s.Tick()
}

// Tick performs one environment update under a single store lock
// acquisition: a probabilistic spawn, a mutation pass over every track, and
// a removal sweep for tracks that left the observable envelope.
func (s *Simulator) Tick() {
	now := s.clock.Now()

	s.store.WithLock(func(tx *track.Tx) {
		if s.rng.Float64() < s.cfg.SpawnProbability && tx.Len() < s.cfg.MaxLiveTracks {
			t := track.Track{
				ID:          tx.NextID(),
				RangeM:      s.uniform(s.cfg.SpawnRangeMinM, s.cfg.SpawnRangeMaxM),
				VelocityMPS: s.uniform(s.cfg.SpawnVelMinMPS, s.cfg.SpawnVelMaxMPS),
				AngleDeg:    s.uniform(0, 360),
				LastSeen:    now,
			}
			tx.Put(t)
		}

		var cull []int64
		tx.Each(func(t *track.Track) {
			t.RangeM += t.VelocityMPS * s.uniform(s.cfg.StepScaleMin, s.cfg.StepScaleMax)
			t.AngleDeg = wrapAngle(t.AngleDeg + s.uniform(-s.cfg.AngleDriftDeg, s.cfg.AngleDriftDeg))
			t.VelocityMPS = clamp(t.VelocityMPS+s.uniform(-s.cfg.VelDriftMPS, s.cfg.VelDriftMPS), s.cfg.MaxSpeedMPS)
			t.LastSeen = now

			if t.RangeM < s.cfg.MinRangeM || t.RangeM > s.cfg.MaxRangeM || s.rng.Float64() < s.cfg.CullProbability {
				cull = append(cull, t.ID)
			}
		})

		// Removal happens after the mutation pass so it cannot disturb the
		// iteration above.
		for _, id := range cull {
			tx.Remove(id)
		}
	})
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func wrapAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
