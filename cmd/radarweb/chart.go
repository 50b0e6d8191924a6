package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// reportPayload is the subset of the radar's `report` reply the chart needs.
type reportPayload struct {
	Tracks []struct {
		ID       int64   `json:"id"`
		RangeM   float64 `json:"range_m"`
		VelMPS   float64 `json:"vel_mps"`
		AngleDeg float64 `json:"angle_deg"`
	} `json:"tracks"`
}

// handleTrackChart fetches a fresh report from the radar and renders a
// bearing-vs-range scatter of the current tracks.
func (s *webServer) handleTrackChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reply := s.relay.SendCommand("report")
	var report reportPayload
	if err := json.Unmarshal([]byte(reply), &report); err != nil {
		http.Error(w, fmt.Sprintf("radar report unavailable: %s", reply), http.StatusBadGateway)
		return
	}

	data := make([]opts.ScatterData, 0, len(report.Tracks))
	for _, t := range report.Tracks {
		data = append(data, opts.ScatterData{
			Name:  strconv.FormatInt(t.ID, 10),
			Value: []interface{}{t.AngleDeg, t.RangeM},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Radar Tracks", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: "Radar Tracks", Subtitle: fmt.Sprintf("tracks=%d", len(report.Tracks))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: 360, Name: "bearing (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "range (m)", NameLocation: "middle", NameGap: 45}),
	)
	scatter.AddSeries("tracks", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		http.Error(w, fmt.Sprintf("failed to render chart: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
