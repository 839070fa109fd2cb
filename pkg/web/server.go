// Package web serves live training progress: JSON endpoints for the
// latest run state and SSE subscriptions for status and per-epoch
// metrics.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/ritzau/gcn-trainer/pkg/logging"
	"github.com/ritzau/gcn-trainer/pkg/pubsub"
)

// RunInfo describes the configured run as shown to clients.
type RunInfo struct {
	RunID     string `json:"run_id"`
	Dataset   string `json:"dataset"`
	Nodes     int    `json:"nodes"`
	Edges     int    `json:"edges"`
	Classes   int    `json:"classes"`
	HiddenDim int    `json:"hidden_dim"`
	Epochs    int    `json:"epochs"`
}

// Server represents the progress web server
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher

	mu      sync.RWMutex
	info    RunInfo
	metrics []pubsub.EpochMetrics
}

// NewServer creates a new progress server backed by an SSE publisher.
func NewServer() *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// training_status: new subscribers only need the current state
	ssePublisher.ConfigureTopic("training_status", pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})

	// epoch_metrics: replay recent history so a late chart can backfill
	ssePublisher.ConfigureTopic("epoch_metrics", pubsub.TopicConfig{
		BufferSize: 200,
		ReplayAll:  true,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
	}
	s.setupRoutes()
	return s
}

// Publisher exposes the underlying publisher for the trainer to feed.
func (s *Server) Publisher() pubsub.Publisher {
	return s.publisher
}

// SetRunInfo stores the run description served at /api/status.
func (s *Server) SetRunInfo(info RunInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
}

// RecordMetrics appends an epoch's metrics for the polling endpoint.
func (s *Server) RecordMetrics(m pubsub.EpochMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, m)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/training_status", s.subscribeHandler("training_status")).Methods("GET")
	s.router.HandleFunc("/api/subscribe/epoch_metrics", s.subscribeHandler("epoch_metrics")).Methods("GET")

	// Polling endpoints
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/metrics", s.handleMetrics).Methods("GET")

	s.router.Use(logging.RunIDMiddleware)
}

// subscribeHandler streams a topic's events over SSE until the client
// disconnects.
func (s *Server) subscribeHandler(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Set SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

		// Send initial comment to establish connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		// Stream events
		for event := range sub.Events() {
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.Warn("error writing SSE event", "topic", topic, "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	info := s.info
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	metrics := make([]pubsub.EpochMetrics, len(s.metrics))
	copy(metrics, s.metrics)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics)
}

// Start starts the web server on the specified port
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting progress server", "addr", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
