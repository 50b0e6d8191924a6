package command

import (
	"encoding/json"
	"fmt"

	"github.com/banshee-data/skywatch/internal/track"
)

// TargetSummary is the compact per-track shape used by scan and report.
// Rounding: range 1dp, velocity 2dp, angle 1dp.
type TargetSummary struct {
	ID       int64   `json:"id"`
	RangeM   float64 `json:"range_m"`
	VelMPS   float64 `json:"vel_mps"`
	AngleDeg float64 `json:"angle_deg"`
}

type scanReply struct {
	Type       string          `json:"type"`
	Timestamp  float64         `json:"timestamp"`
	Count      int             `json:"count"`
	Targets    []TargetSummary `json:"targets"`
	Processing float64         `json:"processing_s"`
	Throughput float64         `json:"throughput_est_ops_per_s"`
}

type reportReply struct {
	Tracks []TargetSummary `json:"tracks"`
}

type trackReply struct {
	ID            int64   `json:"id"`
	RangeM        float64 `json:"range_m"`
	VelocityMPS   float64 `json:"velocity_mps"`
	AngleDeg      float64 `json:"angle_deg"`
	LastSeenSec   float64 `json:"last_seen_sec"`
	DopplerApprox float64 `json:"doppler_approx"`
}

type analyzeReply struct {
	Type       string  `json:"type"`
	Ops        int     `json:"ops_simulated"`
	AvgLatency float64 `json:"avg_latency_s"`
	Throughput float64 `json:"throughput_ops_per_s"`
	Timestamp  float64 `json:"timestamp"`
}

func summarize(tracks []track.Track) []TargetSummary {
	out := make([]TargetSummary, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, TargetSummary{
			ID:       t.ID,
			RangeM:   round(t.RangeM, 1),
			VelMPS:   round(t.VelocityMPS, 2),
			AngleDeg: round(t.AngleDeg, 1),
		})
	}
	return out
}

func marshal(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("ERROR: failed to encode reply: %v", err)
	}
	return string(b)
}
