package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/pesio-ai/be-mes-scenarios/internal/platform/logger"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
	"github.com/pesio-ai/be-mes-scenarios/internal/service"
)

// maxBodyBytes caps execute request bodies.
const maxBodyBytes = 1 << 20

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	service *service.ExecutorService
	log     *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(service *service.ExecutorService, log *logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		log:     log,
	}
}

// ExecuteRequest is the body of POST /api/v1/scenarios/execute.
type ExecuteRequest struct {
	ScenarioID string         `json:"scenario_id"`
	Params     map[string]any `json:"params"`
}

// Register mounts every route on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/scenarios", h.ListScenarios)
	mux.HandleFunc("/api/v1/scenarios/execute", h.Execute)
	mux.HandleFunc("/api/v1/scenarios/options", h.ListOptions)
}

// ListScenarios handles GET /api/v1/scenarios
func (h *HTTPHandler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.service.ListScenarios())
}

// Execute handles POST /api/v1/scenarios/execute. The response body is
// always the result envelope; the status code reflects its error code.
func (h *HTTPHandler) Execute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, &service.Result{Error: "Invalid request body"})
		return
	}
	if req.ScenarioID == "" {
		writeJSON(w, http.StatusBadRequest, &service.Result{Error: "scenario_id is required"})
		return
	}

	res := h.service.Execute(r.Context(), req.ScenarioID, req.Params)

	code := http.StatusOK
	if !res.Success {
		code = httpStatus(res.Code)
	}
	writeJSON(w, code, res)
}

// ListOptions handles GET /api/v1/scenarios/options. Either scenario_id and
// param select a catalog parameter, or source names a whitelisted table.
func (h *HTTPHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	scenarioID, param, source := q.Get("scenario_id"), q.Get("param"), q.Get("source")

	var (
		opts []repository.Option
		err  error
	)
	switch {
	case scenarioID != "" && param != "":
		opts, err = h.service.ParameterOptions(r.Context(), scenarioID, param)
	case source != "":
		opts, err = h.service.Options(r.Context(), source)
	default:
		writeError(w, errors.InvalidInput("source", "source 또는 scenario_id와 param이 필요합니다"))
		return
	}
	if err != nil {
		h.log.Warn().Err(err).Str("source", source).Str("scenario_id", scenarioID).Msg("Failed to list options")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"options": opts})
}

func httpStatus(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeUnknownScenario:
		return http.StatusNotFound
	case errors.ErrCodeUnimplementedScenario:
		return http.StatusNotImplemented
	case errors.ErrCodeValidation, errors.ErrCodeNotFound:
		return http.StatusBadRequest
	case errors.ErrCodeConflict, errors.ErrCodeIntegrity:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	writeJSON(w, httpStatus(code), map[string]string{
		"error": err.Error(),
		"code":  string(code),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
