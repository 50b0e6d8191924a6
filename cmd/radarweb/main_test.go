package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRelay records the forwarded command and returns a canned reply.
type stubRelay struct {
	lastCmd string
	reply   string
}

func (s *stubRelay) SendCommand(cmd string) string {
	s.lastCmd = cmd
	return s.reply
}

func postForm(t *testing.T, s *webServer, cmd string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	if cmd != "" {
		form.Set("cmd", cmd)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handleCommand(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) commandResponse {
	t.Helper()
	var resp commandResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHandleCommandForm(t *testing.T) {
	t.Parallel()

	relay := &stubRelay{reply: "All tracks cleared."}
	s := &webServer{relay: relay}

	rec := postForm(t, s, "  clear  ")
	assert.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.OK)
	assert.Equal(t, "All tracks cleared.", resp.Reply)
	assert.Equal(t, "clear", relay.lastCmd, "command must be trimmed before forwarding")
}

func TestHandleCommandJSON(t *testing.T) {
	t.Parallel()

	relay := &stubRelay{reply: "{}"}
	s := &webServer{relay: relay}

	req := httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader(`{"cmd": "report"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handleCommand(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "report", relay.lastCmd)
}

func TestHandleCommandMissingCmd(t *testing.T) {
	t.Parallel()

	s := &webServer{relay: &stubRelay{}}
	rec := postForm(t, s, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.OK)
	assert.Equal(t, "No command provided.", resp.Reply)
}

func TestHandleCommandRejectsGet(t *testing.T) {
	t.Parallel()

	s := &webServer{relay: &stubRelay{}}
	req := httptest.NewRequest(http.MethodGet, "/api/command", nil)
	rec := httptest.NewRecorder()
	s.handleCommand(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleTrackChart(t *testing.T) {
	t.Parallel()

	relay := &stubRelay{reply: `{"tracks": [{"id": 1, "range_m": 1000.0, "vel_mps": -50.0, "angle_deg": 90.0}]}`}
	s := &webServer{relay: relay}

	req := httptest.NewRequest(http.MethodGet, "/tracks/chart", nil)
	rec := httptest.NewRecorder()
	s.handleTrackChart(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "report", relay.lastCmd)
	body := rec.Body.String()
	assert.Contains(t, body, "echarts")
	assert.Contains(t, body, "Radar Tracks")
}

func TestHandleTrackChartRadarDown(t *testing.T) {
	t.Parallel()

	relay := &stubRelay{reply: "ERROR: Unable to contact radar server. (dial tcp: refused)"}
	s := &webServer{relay: relay}

	req := httptest.NewRequest(http.MethodGet, "/tracks/chart", nil)
	rec := httptest.NewRecorder()
	s.handleTrackChart(rec, req)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
