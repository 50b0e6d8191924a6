// Command radarweb is the command-center web UI for the radar server. It
// relays user commands over a TCP connection per action and renders the
// replies, plus a chart page of the current tracks.
package main

import (
	"context"
	"embed"
	"encoding/json"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/skywatch/internal/version"
)

var (
	//go:embed static/*
	staticFiles embed.FS

	devMode   = flag.Bool("dev", false, "Serve ./static from disk instead of the embedded copy")
	listen    = flag.String("listen", ":8080", "HTTP listen address")
	radarAddr = flag.String("radar", "127.0.0.1:5050", "Radar server TCP address")
	timeout   = flag.Duration("timeout", 6*time.Second, "Radar connect/read timeout")
)

// commandSender abstracts the relay for handler tests.
type commandSender interface {
	SendCommand(cmd string) string
}

type webServer struct {
	relay commandSender
}

type commandResponse struct {
	OK    bool   `json:"ok"`
	Reply string `json:"reply"`
}

// handleCommand accepts `cmd` as form data or a JSON body and returns the
// radar's reply verbatim inside a JSON envelope.
func (s *webServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cmd string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Cmd string `json:"cmd"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			cmd = body.Cmd
		}
	} else {
		cmd = r.FormValue("cmd")
	}

	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		writeJSON(w, http.StatusBadRequest, commandResponse{OK: false, Reply: "No command provided."})
		return
	}

	writeJSON(w, http.StatusOK, commandResponse{OK: true, Reply: s.relay.SendCommand(cmd)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (s *webServer) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/command", s.handleCommand)
	mux.HandleFunc("/tracks/chart", s.handleTrackChart)

	// Serve static files from the embedded filesystem in production or from
	// the local ./static in dev for easier iteration without restarting.
	var staticHandler http.Handler
	if *devMode {
		staticHandler = http.FileServer(http.Dir("./static"))
	} else {
		sub, err := fs.Sub(staticFiles, "static")
		if err != nil {
			log.Fatalf("embedded static files missing: %v", err)
		}
		staticHandler = http.FileServer(http.FS(sub))
	}
	mux.Handle("/", staticHandler)
	return mux
}

func main() {
	flag.Parse()

	s := &webServer{relay: NewRelay(*radarAddr, *timeout)}

	server := &http.Server{
		Addr:    *listen,
		Handler: s.mux(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("radarweb %s listening on %s (radar at %s)", version.String(), *listen, *radarAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
}
