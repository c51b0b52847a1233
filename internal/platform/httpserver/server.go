package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	votepipeline "votary/contexts/ledger-core/vote-pipeline"
	pipelineerrors "votary/contexts/ledger-core/vote-pipeline/domain/errors"
	pipelinehttp "votary/contexts/ledger-core/vote-pipeline/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "votary/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	pipeline votepipeline.Module
}

func New(pipeline votepipeline.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		pipeline: pipeline,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the route table for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/votes", s.handleSubmitVote)
	s.mux.HandleFunc("GET /v1/accounts/{address}", s.handleGetAccount)
	s.mux.HandleFunc("GET /v1/accounts/by-key/{public_key}", s.handleGetAccountByKey)
	s.mux.HandleFunc("GET /v1/transactions/{transaction_id}", s.handleGetTransaction)
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	var req pipelinehttp.SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePipelineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.pipeline.Handler.SubmitVoteHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writePipelineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.pipeline.Handler.GetAccountHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		writePipelineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAccountByKey(w http.ResponseWriter, r *http.Request) {
	resp, err := s.pipeline.Handler.GetAccountByKeyHandler(r.Context(), r.PathValue("public_key"))
	if err != nil {
		writePipelineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	resp, err := s.pipeline.Handler.GetTransactionHandler(r.Context(), r.PathValue("transaction_id"))
	if err != nil {
		writePipelineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePipelineDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipelineerrors.ErrInvalidRequest):
		writePipelineError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, pipelineerrors.ErrInvalidCredential):
		writePipelineError(w, http.StatusUnauthorized, "invalid_credential", err.Error())
	case errors.Is(err, pipelineerrors.ErrMissingSecondFactor):
		writePipelineError(w, http.StatusForbidden, "missing_second_factor", err.Error())
	case errors.Is(err, pipelineerrors.ErrInvalidSecondFactor):
		writePipelineError(w, http.StatusForbidden, "invalid_second_factor", err.Error())
	case errors.Is(err, pipelineerrors.ErrUnauthorizedSigner):
		writePipelineError(w, http.StatusForbidden, "unauthorized_signer", err.Error())
	case errors.Is(err, pipelineerrors.ErrAccountNotFound),
		errors.Is(err, pipelineerrors.ErrTargetNotFound),
		errors.Is(err, pipelineerrors.ErrRequesterNotFound),
		errors.Is(err, pipelineerrors.ErrTransactionNotFound):
		writePipelineError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, pipelineerrors.ErrNotMultisigAccount):
		writePipelineError(w, http.StatusUnprocessableEntity, "not_multisig_account", err.Error())
	case errors.Is(err, pipelineerrors.ErrInvalidRequester):
		writePipelineError(w, http.StatusUnprocessableEntity, "invalid_requester", err.Error())
	case errors.Is(err, pipelineerrors.ErrBuildFailed):
		writePipelineError(w, http.StatusUnprocessableEntity, "build_failed", err.Error())
	case errors.Is(err, pipelineerrors.ErrPoolRejected):
		writePipelineError(w, http.StatusConflict, "pool_rejected", err.Error())
	case errors.Is(err, pipelineerrors.ErrIdempotencyConflict):
		writePipelineError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, pipelineerrors.ErrSubmissionQueueStall):
		writePipelineError(w, http.StatusServiceUnavailable, "queue_unavailable", err.Error())
	default:
		writePipelineError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePipelineError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, pipelinehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
