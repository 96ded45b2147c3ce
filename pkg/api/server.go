package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
	"github.com/greglas75/coding-ui-sub005/pkg/observability"
	"github.com/greglas75/coding-ui-sub005/pkg/services"
)

// ValidationAPIServer exposes the validation engine over HTTP. It is
// thin glue: request decoding in, verdict JSON out, no decision logic.
type ValidationAPIServer struct {
	validationSvc *services.ValidationService
}

// NewServer builds the HTTP boundary around a validation service.
func NewServer(validationSvc *services.ValidationService) *ValidationAPIServer {
	return &ValidationAPIServer{validationSvc: validationSvc}
}

// ErrorResponse is the JSON body for request faults.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler returns the API route table.
func (s *ValidationAPIServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/validate", s.handleValidate)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Start serves the validation API on the given port until the listener
// fails.
func (s *ValidationAPIServer) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	observability.Infof("Starting validation API server on %s", addr)
	return server.ListenAndServe()
}

func (s *ValidationAPIServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req evidence.ValidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	v, err := s.validationSvc.Validate(r.Context(), &req)
	if err != nil {
		// Only request/configuration faults reach this branch; tier
		// failures are folded into the verdict.
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *ValidationAPIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		observability.Errorf("Failed to encode response: %v", err)
	}
}
