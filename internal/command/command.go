// Package command maps a client command line to its textual reply.
//
// Dispatch is a closed match over the known command set with an explicit
// unknown fallback. Structured replies are two-space-indented JSON; plain
// replies (help, clear, usage and not-found messages) are bare text.
package command

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/skywatch/internal/timeutil"
	"github.com/banshee-data/skywatch/internal/track"
	"github.com/banshee-data/skywatch/internal/version"
)

// Config holds the numeric parameters of the scan and analyze commands.
type Config struct {
	ScanSpawnMax         int           // scan attempts up to this many instant contacts
	ScanSpawnProbability float64       // each attempt succeeds with this probability
	ScanRangeMinM        float64       // instant-contact range drawn from [min, max)
	ScanRangeMaxM        float64
	ScanVelMinMPS        float64       // instant-contact velocity drawn from [min, max)
	ScanVelMaxMPS        float64
	ScanDelayBase        time.Duration // fixed part of the simulated processing delay
	ScanDelayPerTrack    time.Duration // per-detected-track part of the delay
	ScanDelayJitter      time.Duration // uniform random part of the delay

	AnalyzeOpsMin      int     // synthetic sample count drawn from [min, max]
	AnalyzeOpsMax      int
	AnalyzeLatencyMinS float64 // synthetic latency drawn from [min, max) seconds
	AnalyzeLatencyMaxS float64
}

// DefaultConfig returns the standard command parameters.
func DefaultConfig() Config {
	return Config{
		ScanSpawnMax:         3,
		ScanSpawnProbability: 0.5,
		ScanRangeMinM:        300,
		ScanRangeMaxM:        15000,
		ScanVelMinMPS:        -150,
		ScanVelMaxMPS:        150,
		ScanDelayBase:        50 * time.Millisecond,
		ScanDelayPerTrack:    time.Millisecond,
		ScanDelayJitter:      30 * time.Millisecond,
		AnalyzeOpsMin:        50,
		AnalyzeOpsMax:        300,
		AnalyzeLatencyMinS:   0.001,
		AnalyzeLatencyMaxS:   0.02,
	}
}

// Processor dispatches command lines against the shared track store. It is
// safe for concurrent use by multiple connection handlers.
type Processor struct {
	store *track.Store
	cfg   Config
	clock timeutil.Clock

	// math/rand.Rand is not goroutine-safe and handlers run concurrently.
	randMu sync.Mutex
	rng    *rand.Rand
}

// NewProcessor creates a processor over the given store. A nil clock uses
// the real clock; a nil rng is seeded from the current time.
func NewProcessor(store *track.Store, cfg Config, clock timeutil.Clock, rng *rand.Rand) *Processor {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Processor{store: store, cfg: cfg, clock: clock, rng: rng}
}

type kind int

const (
	kindUnknown kind = iota
	kindHelp
	kindScan
	kindReport
	kindTrack
	kindClear
	kindAnalyze
)

type request struct {
	kind kind
	arg  string // the <id> token for kindTrack
}

// parse classifies a raw command line. Matching is case-insensitive and
// whitespace-trimmed; `track` requires an argument token to be recognised.
func parse(line string) request {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return request{kind: kindUnknown}
	}

	if fields[0] == "track" && len(fields) >= 2 {
		return request{kind: kindTrack, arg: fields[1]}
	}
	if len(fields) != 1 {
		return request{kind: kindUnknown}
	}
	switch fields[0] {
	case "help", "?":
		return request{kind: kindHelp}
	case "scan":
		return request{kind: kindScan}
	case "report":
		return request{kind: kindReport}
	case "clear":
		return request{kind: kindClear}
	case "analyze":
		return request{kind: kindAnalyze}
	}
	return request{kind: kindUnknown}
}

// Handle processes one command line and returns the full reply body.
func (p *Processor) Handle(line string) string {
	req := parse(line)
	switch req.kind {
	case kindHelp:
		return p.help()
	case kindScan:
		return p.scan()
	case kindReport:
		return p.report()
	case kindTrack:
		return p.track(req.arg)
	case kindClear:
		return p.clear()
	case kindAnalyze:
		return p.analyze()
	default:
		return "Unknown command. Type 'help' to see available commands."
	}
}

func (p *Processor) help() string {
	return "skywatch radar server " + version.String() + "\n" +
		"Commands:\n" +
		" - scan         : perform a radar sweep and return detected objects\n" +
		" - report       : current tracked objects\n" +
		" - analyze      : simulated throughput/latency metrics\n" +
		" - track <id>   : detailed info for target id\n" +
		" - clear        : clear all tracks\n" +
		" - help         : this message\n"
}

func (p *Processor) scan() string {
	start := p.clock.Now()

	var snapshot []track.Track
	p.store.WithLock(func(tx *track.Tx) {
		attempts := p.intn(p.cfg.ScanSpawnMax + 1)
		for i := 0; i < attempts; i++ {
			if p.float64() < p.cfg.ScanSpawnProbability {
				tx.Put(track.Track{
					ID:          tx.NextID(),
					RangeM:      p.uniform(p.cfg.ScanRangeMinM, p.cfg.ScanRangeMaxM),
					VelocityMPS: p.uniform(p.cfg.ScanVelMinMPS, p.cfg.ScanVelMaxMPS),
					AngleDeg:    p.uniform(0, 360),
					LastSeen:    start,
				})
			}
		}
		snapshot = tx.Snapshot()
	})

	// The processing delay is deliberately taken outside the lock on a
	// copied snapshot so it never blocks the simulator or other clients.
	delay := p.cfg.ScanDelayBase +
		time.Duration(len(snapshot))*p.cfg.ScanDelayPerTrack +
		time.Duration(p.uniform(0, float64(p.cfg.ScanDelayJitter)))
	p.clock.Sleep(delay)

	// The duration and throughput figures derive from the slept delay, not
	// from real work; they stay a simulated metric.
	duration := p.clock.Since(start).Seconds()
	return marshal(scanReply{
		Type:       "scan",
		Timestamp:  unixSeconds(p.clock.Now()),
		Count:      len(snapshot),
		Targets:    summarize(snapshot),
		Processing: round(duration, 4),
		Throughput: round(float64(len(snapshot)+1)/(duration+1e-6), 2),
	})
}

func (p *Processor) report() string {
	return marshal(reportReply{Tracks: summarize(p.store.All())})
}

func (p *Processor) track(arg string) string {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return "Usage: track <id> (integer)"
	}

	t, ok := p.store.Get(id)
	if !ok {
		return fmt.Sprintf("Target %d not found.", id)
	}

	sinceSeen := p.clock.Since(t.LastSeen).Seconds()
	if sinceSeen < 0 {
		sinceSeen = 0
	}
	return marshal(trackReply{
		ID:          t.ID,
		RangeM:      round(t.RangeM, 2),
		VelocityMPS: round(t.VelocityMPS, 3),
		AngleDeg:    round(t.AngleDeg, 2),
		LastSeenSec: round(sinceSeen, 2),
		// Doppler is reported as the current radial velocity by design.
		DopplerApprox: round(t.VelocityMPS, 2),
	})
}

func (p *Processor) clear() string {
	p.store.Clear()
	return "All tracks cleared."
}

func (p *Processor) analyze() string {
	ops := p.cfg.AnalyzeOpsMin + p.intn(p.cfg.AnalyzeOpsMax-p.cfg.AnalyzeOpsMin+1)
	latencies := make([]float64, ops)
	for i := range latencies {
		latencies[i] = p.uniform(p.cfg.AnalyzeLatencyMinS, p.cfg.AnalyzeLatencyMaxS)
	}
	avg := stat.Mean(latencies, nil)

	return marshal(analyzeReply{
		Type:       "analysis",
		Ops:        ops,
		AvgLatency: round(avg, 6),
		Throughput: round(1/avg*p.uniform(0.6, 1.0), 2),
		Timestamp:  unixSeconds(p.clock.Now()),
	})
}

func (p *Processor) float64() float64 {
	p.randMu.Lock()
	defer p.randMu.Unlock()
	return p.rng.Float64()
}

func (p *Processor) intn(n int) int {
	p.randMu.Lock()
	defer p.randMu.Unlock()
	return p.rng.Intn(n)
}

func (p *Processor) uniform(lo, hi float64) float64 {
	p.randMu.Lock()
	defer p.randMu.Unlock()
	return lo + p.rng.Float64()*(hi-lo)
}

// round rounds half away from zero to the given number of decimal places.
func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
