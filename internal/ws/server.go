package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/livelab/backend/internal/health"
	"github.com/livelab/backend/internal/robot"
	"github.com/livelab/backend/internal/session"
)

type Server struct {
	controller      *session.Controller
	bridge          *Bridge
	store           *robot.CalibrationStore
	frontendDir     string
	dev             bool
	embeddedHandler http.Handler
	allowedOrigins  map[string]bool
	allowedHosts    map[string]bool
	authToken       string
}

func NewServer(controller *session.Controller, bridge *Bridge, store *robot.CalibrationStore, frontendDir string, dev bool, embeddedHandler http.Handler, allowedOrigins []string, authToken string) *Server {
	s := &Server{
		controller:      controller,
		bridge:          bridge,
		store:           store,
		frontendDir:     frontendDir,
		dev:             dev,
		embeddedHandler: embeddedHandler,
		allowedOrigins:  make(map[string]bool),
		allowedHosts:    make(map[string]bool),
		authToken:       authToken,
	}

	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/api/session/start", s.handleStart)
	mux.HandleFunc("/api/session/stop", s.handleStop)
	mux.HandleFunc("/api/session/skip", s.handleSkip)
	mux.HandleFunc("/api/session/redo", s.handleRedo)
	mux.HandleFunc("/api/session/status", s.handleStatus)
	mux.HandleFunc("/api/configs", s.handleConfigs)
	mux.HandleFunc("/api/health", s.handleHealth)

	if s.dev {
		log.Printf("Serving frontend from filesystem: %s", s.frontendDir)
		mux.Handle("/", http.FileServer(http.Dir(s.frontendDir)))
	} else if s.embeddedHandler != nil {
		log.Println("Serving embedded frontend")
		mux.Handle("/", s.embeddedHandler)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	log.Printf("telemetry observer connected: %s", r.RemoteAddr)
	c := s.bridge.AddClient(conn)

	go func() {
		defer func() {
			s.bridge.RemoveClient(c)
			log.Printf("telemetry observer disconnected: %s", r.RemoteAddr)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// controlResponse is the shared shape of all session control replies.
type controlResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !s.authorizePost(w, r) {
		return
	}

	var req session.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeControl(w, http.StatusBadRequest, controlResponse{Reason: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	s.writeControlResult(w, s.controller.Start(req))
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if !s.authorizePost(w, r) {
		return
	}
	s.writeControlResult(w, s.controller.Stop())
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	if !s.authorizePost(w, r) {
		return
	}
	s.writeControlResult(w, s.controller.SkipEpisode())
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	if !s.authorizePost(w, r) {
		return
	}
	s.writeControlResult(w, s.controller.RedoEpisode())
}

// writeControlResult maps controller errors to the wire: precondition
// violations are 409s with a structured reason, anything else a 400.
func (s *Server) writeControlResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeControl(w, http.StatusOK, controlResponse{Accepted: true})
	case errors.Is(err, session.ErrAlreadyActive):
		writeControl(w, http.StatusConflict, controlResponse{Reason: "already_active"})
	case errors.Is(err, session.ErrNotActive):
		writeControl(w, http.StatusConflict, controlResponse{Reason: "not_active"})
	case errors.Is(err, session.ErrNotRecording):
		writeControl(w, http.StatusConflict, controlResponse{Reason: "not_recording"})
	default:
		writeControl(w, http.StatusBadRequest, controlResponse{Reason: err.Error()})
	}
}

func writeControl(w http.ResponseWriter, status int, resp controlResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.controller.Status())
}

func (s *Server) handleConfigs(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	leader, err := s.store.List(robot.RoleTeleoperator, session.LeaderDevice)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	follower, err := s.store.List(robot.RoleRobot, session.FollowerDevice)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string][]string{
		"leader_configs":   leader,
		"follower_configs": follower,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	snap, err := health.Collect()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// authorizePost combines the auth and method checks shared by the
// session control endpoints.
func (s *Server) authorizePost(w http.ResponseWriter, r *http.Request) bool {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get("X-LiveLab-Token") == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := parsed.Host
	if host == "" {
		return false
	}

	if host == r.Host {
		return true
	}

	if strings.HasPrefix(host, "localhost:") || host == "localhost" {
		return true
	}
	if strings.HasPrefix(host, "127.0.0.1:") || host == "127.0.0.1" {
		return true
	}
	if strings.HasPrefix(host, "[::1]:") || host == "::1" {
		return true
	}

	return false
}

func ListenAndServe(host string, port int, mux *http.ServeMux) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
