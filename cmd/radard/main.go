// Command radard runs the radar command server: a background environment
// simulator plus a TCP listener answering line-oriented text commands.
package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/skywatch/internal/command"
	"github.com/banshee-data/skywatch/internal/config"
	"github.com/banshee-data/skywatch/internal/db"
	"github.com/banshee-data/skywatch/internal/server"
	"github.com/banshee-data/skywatch/internal/sim"
	"github.com/banshee-data/skywatch/internal/track"
	"github.com/banshee-data/skywatch/internal/version"
)

var (
	listen     = flag.String("listen", ":5050", "TCP listen address")
	dbFile     = flag.String("db", "radar_commands.db", "Command audit database path (empty disables logging)")
	configFile = flag.String("config", "", "JSON tuning config path (optional)")

	// Flag overrides take precedence over the tuning file.
	tick      = flag.Duration("tick", 0, "Override environment tick interval")
	maxTracks = flag.Int("max-tracks", 0, "Override live track cap for spontaneous spawns")
	spawnProb = flag.Float64("spawn-prob", -1, "Override per-tick spawn probability")
	scanDelay = flag.Duration("scan-delay-base", 0, "Override scan base processing delay")
)

func main() {
	flag.Parse()

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	tuning := config.EmptyTuning()
	if *configFile != "" {
		var err error
		tuning, err = config.LoadTuning(*configFile)
		if err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
	}
	simCfg, cmdCfg := buildConfigs(tuning)

	var audit *db.DB
	if *dbFile != "" {
		var err error
		audit, err = db.NewDB(*dbFile)
		if err != nil {
			log.Fatalf("Failed to open audit database: %v", err)
		}
		defer audit.Close()
	}

	ln, err := net.Listen("tcp", *listen)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", *listen, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := track.NewStore()
	proc := command.NewProcessor(store, cmdCfg, nil, nil)
	simulator := sim.New(store, simCfg, nil, nil)
	srv := server.New(proc, audit)

	log.Printf("radard %s starting on %s (tick %s, cap %d)",
		version.String(), *listen, simCfg.TickInterval, simCfg.MaxLiveTracks)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		simulator.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ctx, ln); err != nil && ctx.Err() == nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// buildConfigs merges defaults, the tuning file and flag overrides.
func buildConfigs(t *config.Tuning) (sim.Config, command.Config) {
	simCfg := sim.DefaultConfig()
	simCfg.TickInterval = t.GetTickInterval()
	simCfg.MaxLiveTracks = t.GetMaxLiveTracks()
	simCfg.SpawnProbability = t.GetSpawnProbability()
	simCfg.SpawnRangeMinM = t.GetSpawnRangeMinM()
	simCfg.SpawnRangeMaxM = t.GetSpawnRangeMaxM()
	simCfg.SpawnVelMinMPS = t.GetSpawnVelMinMPS()
	simCfg.SpawnVelMaxMPS = t.GetSpawnVelMaxMPS()
	simCfg.CullProbability = t.GetCullProbability()

	cmdCfg := command.DefaultConfig()
	cmdCfg.ScanDelayBase = t.GetScanDelayBase()
	cmdCfg.ScanSpawnProbability = t.GetScanSpawnProbability()

	if *tick > 0 {
		simCfg.TickInterval = *tick
	}
	if *maxTracks > 0 {
		simCfg.MaxLiveTracks = *maxTracks
	}
	if *spawnProb >= 0 && *spawnProb <= 1 {
		simCfg.SpawnProbability = *spawnProb
	}
	if *scanDelay > 0 {
		cmdCfg.ScanDelayBase = *scanDelay
	}
	return simCfg, cmdCfg
}
