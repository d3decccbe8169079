// Package preview serves a live, browser-based rendering of the flag
// currently held in the game's store. The server polls the store and pushes
// a reload notification over WebSocket whenever the stored grid changes.
//
// It is a local development tool: no authentication, loopback bind by
// default.
package preview

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/SamJakob/MageArenaFlagEditor/core/bitmap"
	"github.com/SamJakob/MageArenaFlagEditor/core/flaggrid"
	"github.com/SamJakob/MageArenaFlagEditor/internal/flagstore"
	"github.com/SamJakob/MageArenaFlagEditor/internal/logging"
)

// DefaultAddr binds loopback on an arbitrary fixed port.
const DefaultAddr = "127.0.0.1:8633"

const indexPage = `<!DOCTYPE html>
<html>
<head><title>mageflag preview</title></head>
<body style="background:#222;text-align:center">
<h1 style="color:#eee;font-family:sans-serif">Current flag</h1>
<img id="flag" src="/flag.bmp" style="image-rendering:pixelated;width:500px;border:1px solid #555">
<script>
const ws = new WebSocket("ws://" + location.host + "/ws");
ws.onmessage = () => {
	document.getElementById("flag").src = "/flag.bmp?t=" + Date.now();
};
</script>
</body>
</html>
`

// Server is a running preview instance.
type Server struct {
	store        flagstore.Store
	palette      *bitmap.Image[bitmap.RGB24]
	addr         string
	pollInterval time.Duration

	hub *hub
}

// Option configures a Server.
type Option func(*Server)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithPollInterval overrides how often the store is checked for changes.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// NewServer builds a preview server over the given store and palette.
func NewServer(store flagstore.Store, palette *bitmap.Image[bitmap.RGB24], opts ...Option) *Server {
	s := &Server{
		store:        store,
		palette:      palette,
		addr:         DefaultAddr,
		pollInterval: time.Second,
		hub:          newHub(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(logging.RequestIDMiddleware, logging.LoggingMiddleware)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/flag.bmp", s.handleFlag).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go s.hub.run(ctx)
	go s.watchStore(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logging.ServerStartup("preview", s.addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// watchStore polls the store and notifies clients when the payload changes.
func (s *Server) watchStore(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			data, err := s.store.ReadFlag()
			if err != nil {
				continue
			}
			if last != nil && !bytes.Equal(data, last) {
				s.hub.notify(reloadMessage)
			}
			last = data
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

// handleFlag renders the currently stored grid through the palette and
// serves it as a BMP.
func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.ReadFlag()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	grid, err := flaggrid.ParseGrid(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	pixels, err := grid.Pixels(s.palette)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	img, err := bitmap.New(flaggrid.FlagWidth, -flaggrid.FlagHeight, pixels)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/bmp")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(img.Encode())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{hub: s.hub, conn: conn, send: make(chan []byte, 16)}
	s.hub.register <- c

	go c.writePump()
	go c.readPump()
}
