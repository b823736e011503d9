package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/relabs-tech/gaze_selector/internal/gaze"
	"github.com/relabs-tech/gaze_selector/internal/render"
	"github.com/relabs-tech/gaze_selector/internal/ui"
)

// webDeps are the pieces the HTTP surface reads from.
type webDeps struct {
	controller *gaze.Controller
	board      *ui.Board
	debug      *ui.DebugLog
	canvas     *render.Canvas
	hub        *Hub
	staticDir  string
}

func newWebMux(d webDeps) *http.ServeMux {
	mux := http.NewServeMux()

	// controller state: reference, averages, cursor position
	mux.HandleFunc("/api/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.controller.Snapshot())
	})

	mux.HandleFunc("/api/board", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.board.State())
	})

	// debug panel, newest first
	mux.HandleFunc("/api/debug", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.debug.Entries())
	})

	mux.HandleFunc("/debug.png", func(w http.ResponseWriter, r *http.Request) {
		if _, drawn := d.canvas.Last(); !drawn {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := d.canvas.WritePNG(w); err != nil {
			log.Printf("web: %v", err)
		}
	})

	if d.hub != nil {
		mux.Handle("/ws", d.hub)
	}

	if d.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(d.staticDir)))
	}
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("json encode error: %v", err)
	}
}

// serveWeb runs the HTTP server until ctx is done.
func serveWeb(ctx context.Context, port int, h http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("web server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
