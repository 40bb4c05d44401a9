// Package server exposes a viewer session over HTTP and a websocket so a
// browser can drive the agent and draw its frames.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/AssemSadek/habitat-sim2real/internal/logging"
	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
	"github.com/AssemSadek/habitat-sim2real/pkg/viewer"
)

// Server is the local viewer backend.
type Server struct {
	viewer *viewer.Viewer
	port   int
	log    *zap.Logger
}

// New creates a server for the given viewer session.
func New(v *viewer.Viewer, port int, log *zap.Logger) *Server {
	return &Server{
		viewer: v,
		port:   port,
		log:    logging.OrNop(log),
	}
}

type teleportRequest struct {
	U       int          `json:"u"`
	V       int          `json:"v"`
	Heading *geo.Point2D `json:"heading,omitempty"`
}

type keyRequest struct {
	Key string `json:"key"`
}

type keyResponse struct {
	Handled bool         `json:"handled"`
	Frame   viewer.Frame `json:"frame"`
}

type pinRequest struct {
	Column int `json:"column"`
}

// Handler returns the routed API wrapped in a permissive CORS policy.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/map", s.handleMap).Methods("GET")
	api.HandleFunc("/state", s.handleState).Methods("GET")
	api.HandleFunc("/teleport", s.handleTeleport).Methods("POST")
	api.HandleFunc("/key", s.handleKey).Methods("POST")
	api.HandleFunc("/pin", s.handlePin).Methods("POST")
	api.HandleFunc("/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/ws", s.handleWS).Methods("GET")
	r.HandleFunc("/", s.handleIndex).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// Start launches the HTTP server and blocks until it fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.log.Info("viewer server starting", zap.String("url", "http://localhost"+addr))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprint(w, `<!DOCTYPE html>
<html><head><title>Point navigation viewer</title></head>
<body style="margin:0;background:#111;color:#fff;font-family:system-ui;display:flex;align-items:center;justify-content:center;height:100vh">
<div style="text-align:center">
<h1>Point navigation viewer</h1>
<p>Connect a client to <code>/api/ws</code>, or use <code>/api/map</code> and <code>/api/state</code>.</p>
</div>
</body></html>`)
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.viewer.Map())
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.viewer.Frame())
}

func (s *Server) handleTeleport(w http.ResponseWriter, r *http.Request) {
	var req teleportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeJSON(w, http.StatusOK, s.viewer.Teleport(viewer.MapPoint{U: req.U, V: req.V}, req.Heading))
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	key, err := parseKey(req.Key)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	frame, handled := s.viewer.OnKey(key)
	writeJSON(w, http.StatusOK, keyResponse{Handled: handled, Frame: frame})
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	pin, err := s.viewer.Pin(req.Column)
	switch {
	case errors.Is(err, viewer.ErrPinOutOfRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, viewer.ErrSessionEnded):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.log.Error("pin failed", zap.Int("column", req.Column), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, pin)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.viewer.Reset())
}

func parseKey(k string) (rune, error) {
	r := []rune(k)
	if len(r) != 1 {
		return 0, fmt.Errorf("key must be a single character, got %q", k)
	}
	return r[0], nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
