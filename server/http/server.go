package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	mosaic "github.com/w-h-a/mosaic"
	"github.com/w-h-a/mosaic/agent"
	"github.com/w-h-a/mosaic/chain"
	"github.com/w-h-a/mosaic/clarifier"
	"github.com/w-h-a/mosaic/composer"
	"github.com/w-h-a/mosaic/identity"
	"github.com/w-h-a/mosaic/ingestor"
	"github.com/w-h-a/mosaic/retriever"
)

// Server exposes the facade over HTTP. Identity rides in on the X-User-Id
// header; everything else is JSON in, JSON out.
type Server struct {
	options Options
	mosaic  *mosaic.Mosaic
	server  *http.Server
}

func (s *Server) Start() error {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/content/{parentId}", s.handleIngest).Methods(http.MethodPost)
	api.HandleFunc("/content/{parentId}", s.handleDeleteContent).Methods(http.MethodDelete)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/visualization", s.handleVisualize).Methods(http.MethodGet)
	api.HandleFunc("/agents", s.handleSaveAgent).Methods(http.MethodPost)
	api.HandleFunc("/agents", s.handleListAgents).Methods(http.MethodGet)
	api.HandleFunc("/agents/remix", s.handleRemix).Methods(http.MethodPost)
	api.HandleFunc("/agents/{agentId}", s.handleGetAgent).Methods(http.MethodGet)
	api.HandleFunc("/chains", s.handleLaunchChain).Methods(http.MethodPost)
	api.HandleFunc("/chains/{runId}", s.handleGetRun).Methods(http.MethodGet)

	var handler http.Handler = router
	handler = identityMiddleware(handler)
	for i := len(s.options.Middleware) - 1; i >= 0; i-- {
		handler = s.options.Middleware[i](handler)
	}

	s.server = &http.Server{
		Addr:    s.options.Address,
		Handler: handler,
	}

	slog.InfoContext(s.options.Context, "http server listening", "address", s.options.Address)

	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userId := r.Header.Get("X-User-Id"); len(userId) > 0 {
			r = r.WithContext(identity.WithUserID(r.Context(), userId))
		}
		next.ServeHTTP(w, r)
	})
}

type ingestRequest struct {
	Text       string   `json:"text"`
	Categories []string `json:"categories"`
	Access     string   `json:"access"`
	SourceType string   `json:"source_type"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	parentId := mux.Vars(r)["parentId"]

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	result, err := s.mosaic.Ingest(r.Context(), parentId, req.Text, req.Categories, req.Access, req.SourceType)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, result)
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	parentId := mux.Vars(r)["parentId"]

	if err := s.mosaic.DeleteContent(r.Context(), parentId); err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"parent_id": parentId})
}

type searchRequest struct {
	Query      string           `json:"query"`
	History    []clarifier.Turn `json:"history"`
	Scope      string           `json:"scope"`
	Categories []string         `json:"categories"`
	TopK       int              `json:"top_k"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	records, usedQuery, err := s.mosaic.Search(r.Context(), req.Query, req.History, req.Scope, req.Categories, req.TopK)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"query":   usedQuery,
		"results": records,
	})
}

func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	sourceType := r.URL.Query().Get("source_type")

	limit := 0
	if raw := r.URL.Query().Get("limit"); len(raw) > 0 {
		limit, _ = strconv.Atoi(raw)
	}

	points, err := s.mosaic.Visualize(r.Context(), sourceType, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"points": points})
}

func (s *Server) handleSaveAgent(w http.ResponseWriter, r *http.Request) {
	var config agent.Config
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	saved, err := s.mosaic.SaveAgent(r.Context(), config)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, saved)
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	configs, err := s.mosaic.ListAgents(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"agents": configs})
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	config, err := s.mosaic.GetAgent(r.Context(), mux.Vars(r)["agentId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, config)
}

type remixRequest struct {
	SourceIds []string `json:"source_ids"`
}

func (s *Server) handleRemix(w http.ResponseWriter, r *http.Request) {
	var req remixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	composite, err := s.mosaic.Remix(r.Context(), req.SourceIds)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, composite)
}

type launchRequest struct {
	AgentIds []string `json:"agent_ids"`
	Input    string   `json:"input"`
}

func (s *Server) handleLaunchChain(w http.ResponseWriter, r *http.Request) {
	var req launchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	run, err := s.mosaic.LaunchChain(r.Context(), req.AgentIds, req.Input)
	if err != nil {
		// fatal rejection still reports the run so the caller sees why
		status, code := statusFor(err)
		writeJSON(w, status, map[string]any{
			"success": false,
			"error":   map[string]string{"code": code, "message": err.Error()},
			"run":     run,
		})
		return
	}

	writeSuccess(w, http.StatusCreated, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.mosaic.GetRun(r.Context(), mux.Vars(r)["runId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, run)
}

func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err.Error())
}

func statusFor(err error) (int, string) {
	var ingestionErr *ingestor.IngestionError
	var retrievalErr *retriever.RetrievalError
	var compositionErr *composer.CompositionError
	var chainErr *chain.ChainError

	switch {
	case errors.Is(err, identity.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.As(err, &ingestionErr):
		return http.StatusUnprocessableEntity, "ingestion_" + ingestionErr.Stage
	case errors.As(err, &retrievalErr):
		if retrievalErr.Reason == retriever.ReasonInvalidFilter {
			return http.StatusBadRequest, "retrieval_" + retrievalErr.Reason
		}
		return http.StatusBadGateway, "retrieval_" + retrievalErr.Reason
	case errors.As(err, &compositionErr):
		return http.StatusUnprocessableEntity, "composition_" + compositionErr.Reason
	case errors.As(err, &chainErr):
		return http.StatusUnprocessableEntity, "chain_rejected"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func NewServer(m *mosaic.Mosaic, opts ...Option) *Server {
	if m == nil {
		panic("mosaic is required")
	}

	options := NewOptions(opts...)

	return &Server{
		options: options,
		mosaic:  m,
	}
}
