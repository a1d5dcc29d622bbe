package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/alert"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/chat"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/history"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/notify"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/pairing"
)

// Server exposes the evaluation, pairing, chat and alert-log API.
type Server struct {
	evaluator  *alert.Evaluator
	pairings   pairing.Store
	dispatcher *notify.Dispatcher
	gateway    *chat.Gateway
	alertLog   history.Store
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates an API server. dispatcher, gateway and alertLog may be
// nil; the corresponding endpoints then report the feature as unavailable.
func NewServer(evaluator *alert.Evaluator, pairings pairing.Store, dispatcher *notify.Dispatcher, gateway *chat.Gateway, alertLog history.Store, logger *slog.Logger) *Server {
	s := &Server{
		evaluator:  evaluator,
		pairings:   pairings,
		dispatcher: dispatcher,
		gateway:    gateway,
		alertLog:   alertLog,
		mux:        http.NewServeMux(),
		logger:     logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/evaluate", s.handleEvaluate)
	s.mux.HandleFunc("GET /api/v1/pairing", s.handlePairing)
	s.mux.HandleFunc("POST /api/v1/chat", s.handleChat)
	s.mux.HandleFunc("GET /api/v1/alerts", s.handleAlerts)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type evaluateRequest struct {
	Prediction alert.Prediction   `json:"prediction"`
	Sample     map[string]float64 `json:"sample"`
	Notify     bool               `json:"notify"`
}

type evaluateResponse struct {
	alert.Event
	Delivered bool   `json:"delivered"`
	Detail    string `json:"detail,omitempty"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	resp := evaluateResponse{Event: s.evaluator.Evaluate(req.Prediction, req.Sample)}

	if resp.Triggered && req.Notify && s.dispatcher != nil {
		recipient, err := s.pairings.Get()
		if err != nil {
			resp.Detail = "sin chat vinculado"
			s.logger.Warn("alert not dispatched", "error", err)
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
			defer cancel()
			resp.Delivered, resp.Detail = s.dispatcher.DispatchEvent(ctx, resp.Event, recipient)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handlePairing(w http.ResponseWriter, _ *http.Request) {
	record, err := s.pairings.Get()
	if err != nil {
		if errors.Is(err, pairing.ErrNotPaired) {
			http.Error(w, "no chat paired", http.StatusNotFound)
			return
		}
		s.logger.Error("read pairing", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}

type chatRequest struct {
	Message string      `json:"message"`
	History []chat.Turn `json:"history"`
}

type chatResponse struct {
	Provider string `json:"provider"`
	Reply    string `json:"reply"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil {
		http.Error(w, "chat provider not configured", http.StatusServiceUnavailable)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	session := &chat.Session{Provider: s.gateway.Provider(), Turns: req.History}
	resp := chatResponse{Provider: s.gateway.Provider()}

	reply, err := s.gateway.Reply(r.Context(), session, req.Message)
	if err != nil {
		resp.Error = chat.UserMessage(err)
		s.logger.Warn("chat reply failed", "provider", resp.Provider, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(resp)
		return
	}

	resp.Reply = reply
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alertLog == nil {
		http.Error(w, "alert log not configured", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := s.alertLog.List(ctx, limit)
	if err != nil {
		s.logger.Error("list alerts", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}
