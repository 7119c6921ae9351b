// Package server exposes an OCR network over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/thedunerats/ocr-js-poc-demo/internal/net"
	"github.com/thedunerats/ocr-js-poc-demo/internal/sweep"
	"github.com/thedunerats/ocr-js-poc-demo/internal/weights"
)

const maxBodyBytes = 32 << 20

// Options configure a Server.
type Options struct {
	// MaxBackups is passed to every save after training.
	MaxBackups int
	// Seed makes optimize sweeps reproducible. Zero seeds from the clock.
	Seed int64
	// Logger receives access and progress lines. Nil discards them.
	Logger *log.Logger
}

// Server serialises all access to one network.
type Server struct {
	mu      sync.Mutex
	network *net.Network

	maxBackups int
	seed       int64
	log        *log.Logger
	handler    http.Handler
}

// New returns a server around n.
func New(n *net.Network, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	maxBackups := opts.MaxBackups
	if maxBackups == 0 {
		maxBackups = weights.DefaultMaxBackups
	}
	s := &Server{
		network:    n,
		maxBackups: maxBackups,
		seed:       opts.Seed,
		log:        logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", s.handleRoot)
	mux.HandleFunc("POST /optimize", s.handleOptimize)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /backups", s.handleBackups)
	mux.HandleFunc("POST /restore", s.handleRestore)

	s.handler = withAccessLog(logger, withCORS(mux))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps input errors to 400 and anything else to 500.
func writeFailure(w http.ResponseWriter, prefix string, err error) {
	var vErr *net.ValidationError
	if errors.As(err, &vErr) || errors.Is(err, net.ErrEmptyInput) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", prefix, err))
}

func (s *Server) readPayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	payload, err := decodeBody(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || len(payload) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return nil, false
	}
	return payload, true
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.readPayload(w, r)
	if !ok {
		return
	}
	switch {
	case truthy(payload["train"]):
		s.train(w, payload["trainArray"])
	case truthy(payload["predict"]):
		s.predict(w, payload["image"])
	default:
		writeError(w, http.StatusBadRequest, "Invalid request. Use 'train' or 'predict'")
	}
}

func (s *Server) train(w http.ResponseWriter, raw any) {
	if !truthy(raw) {
		writeError(w, http.StatusBadRequest, "trainArray is required")
		return
	}
	items, ok := raw.([]any)
	if !ok {
		writeError(w, http.StatusBadRequest, "trainArray must be an array")
		return
	}
	samples, err := decodeSamples(items, 0)
	if err != nil {
		writeFailure(w, "Training failed", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	if err := s.network.Train(samples); err != nil {
		writeFailure(w, "Training failed", err)
		return
	}
	if err := s.network.Save(s.maxBackups); err != nil {
		s.log.Printf("save after training: %v", err)
		writeFailure(w, "Training failed", err)
		return
	}
	s.log.Printf("trained %d samples in %v", len(samples), time.Since(start).Round(time.Millisecond))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Training completed"})
}

func (s *Server) predict(w http.ResponseWriter, raw any) {
	if raw == nil {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	list, ok := raw.([]any)
	if !ok {
		writeError(w, http.StatusBadRequest, "image must be an array")
		return
	}
	if len(list) != net.InputSize {
		writeError(w, http.StatusBadRequest, net.ShapeError(-1, "image", len(list)).Error())
		return
	}
	pixels, err := parsePixels(-1, "image", list)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	label, err := s.network.Predict(pixels)
	s.mu.Unlock()
	if err != nil {
		writeFailure(w, "Prediction failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"type": "test", "result": label})
}

type optimizeResponse struct {
	Results []sweep.Result `json:"results"`
	Optimal *sweep.Result  `json:"optimal"`
	Message string         `json:"message"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.readPayload(w, r)
	if !ok {
		return
	}

	rawTrain, rawTest := payload["trainingData"], payload["testData"]
	if rawTrain == nil || rawTest == nil {
		writeError(w, http.StatusBadRequest, "Both 'trainingData' and 'testData' are required")
		return
	}
	trainItems, ok1 := rawTrain.([]any)
	testItems, ok2 := rawTest.([]any)
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "trainingData and testData must be arrays")
		return
	}
	if len(trainItems) == 0 {
		writeError(w, http.StatusBadRequest, "trainingData cannot be empty")
		return
	}
	if len(testItems) == 0 {
		writeError(w, http.StatusBadRequest, "testData cannot be empty")
		return
	}

	minNodes, ok := intOption(payload, "minNodes", 5)
	if !ok || minNodes < 1 {
		writeError(w, http.StatusBadRequest, "minNodes must be a positive integer")
		return
	}
	maxNodes, ok := intOption(payload, "maxNodes", 50)
	if !ok || maxNodes <= minNodes {
		writeError(w, http.StatusBadRequest, "maxNodes must be greater than minNodes")
		return
	}
	step, ok := intOption(payload, "step", 5)
	if !ok || step < 1 {
		writeError(w, http.StatusBadRequest, "step must be a positive integer")
		return
	}

	items := make([]any, 0, len(trainItems)+len(testItems))
	items = append(append(items, trainItems...), testItems...)
	samples, err := decodeSamples(items, 0)
	if err != nil {
		writeFailure(w, "Optimization failed", err)
		return
	}
	rows := make([][]float64, len(samples))
	labels := make([]int, len(samples))
	for i, sample := range samples {
		rows[i], labels[i] = sample.Pixels, *sample.Label
	}
	data, err := net.NewDataset(rows, labels)
	if err != nil {
		writeFailure(w, "Optimization failed", err)
		return
	}
	all := data.Indices()
	train, test := all[:len(trainItems)], all[len(trainItems):]

	s.log.Printf("optimize: %d train, %d test samples, hidden nodes %d to %d (step %d)",
		len(train), len(test), minNodes, maxNodes, step)
	results, err := sweep.Run(data, train, test, sweep.Config{
		MinNodes: minNodes,
		MaxNodes: maxNodes,
		Step:     step,
		Rand:     s.sweepRand(),
		Logger:   s.log,
	})
	if err != nil {
		writeFailure(w, "Optimization failed", err)
		return
	}

	resp := optimizeResponse{
		Results: results,
		Message: fmt.Sprintf("Optimization completed. Tested %d configurations.", len(results)),
	}
	if best, ok := sweep.Best(results); ok {
		resp.Optimal = &best
		s.log.Printf("optimize: best %d nodes with %.4f accuracy", best.HiddenNodes, best.Accuracy)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) sweepRand() *rand.Rand {
	seed := s.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "message": "OCR server is running"})
}

func (s *Server) handleBackups(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	backups := s.network.ListBackups()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"backups": backups})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, "index is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ok, err := s.network.RestoreFromBackup(*req.Index)
	if err != nil {
		s.log.Printf("restore backup %d: %v", *req.Index, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Restore failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"restored": ok})
}
