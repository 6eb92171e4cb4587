package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"freightmatch/internal"
	"freightmatch/internal/pipeline"
	"freightmatch/internal/storage"
)

type Server struct {
	db  *storage.DB
	svc *pipeline.PricingService
}

func New(db *storage.DB, svc *pipeline.PricingService) *Server {
	return &Server{db: db, svc: svc}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/api/quotes", s.handleCreateQuote).Methods("POST")
	router.HandleFunc("/api/quotes/{id}/price", s.handlePriceQuote).Methods("POST")
	router.HandleFunc("/api/quotes/{id}/recommendation", s.handleGetRecommendation).Methods("GET")
	router.HandleFunc("/api/feedback", s.handleFeedback).Methods("POST")
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("http server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	quote, err := pipeline.QuoteFromJSON(raw)
	if err != nil {
		http.Error(w, "invalid quote payload", http.StatusBadRequest)
		return
	}

	if err := s.db.UpsertQuote(quote); err != nil {
		log.Printf("upsert quote failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": quote.ID})
}

type priceRequest struct {
	DistanceMiles *float64 `json:"distanceMiles"`
}

type priceResponse struct {
	Recommendation internal.PricingRecommendation `json:"recommendation"`
	Matches        []internal.Match               `json:"matches"`
}

func (s *Server) handlePriceQuote(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req priceRequest
	if r.Body != nil {
		// Body is optional; a caller may supply a pre-computed distance.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := s.svc.PriceQuote(r.Context(), id, req.DistanceMiles)
	if err != nil {
		log.Printf("pricing %s failed: %v", id, err)
		http.Error(w, "quote not found or pricing failed", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, priceResponse{Recommendation: result.Recommendation, Matches: result.Matches})
}

func (s *Server) handleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	rec, err := s.db.GetLatestRecommendation(id)
	if err != nil {
		log.Printf("loading recommendation for %s failed: %v", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "no recommendation for quote", http.StatusNotFound)
		return
	}

	matches, err := s.db.ListMatchesForQuote(id)
	if err != nil {
		log.Printf("loading matches for %s failed: %v", id, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, priceResponse{Recommendation: *rec, Matches: matches})
}

type feedbackRequest struct {
	MatchedQuoteID  string   `json:"matchedQuoteId"`
	Positive        bool     `json:"positive"`
	ActualPriceUsed *float64 `json:"actualPriceUsed"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.MatchedQuoteID == "" {
		http.Error(w, "matchedQuoteId is required", http.StatusBadRequest)
		return
	}

	if err := s.svc.RecordFeedback(req.MatchedQuoteID, req.Positive, req.ActualPriceUsed); err != nil {
		log.Printf("recording feedback failed: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encoding response failed: %v", err)
	}
}
