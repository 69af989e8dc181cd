package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/williamchen0301-sh/my-weather-portfolio/internal/lifecycle"
	"github.com/williamchen0301-sh/my-weather-portfolio/internal/ui"
)

// maxLookupBody bounds POST /lookup bodies. City names are short.
const maxLookupBody = 4 << 10

// LoopController is the part of *ui.Loop the web surface drives.
type LoopController interface {
	Trigger(city string) error
	Dismiss() error
	Snapshot() ui.Update
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	loop             LoopController
	defaultCity      string
	apiKeySet        bool
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler. apiKeySet only feeds the health report; lookups without
// a key still run and surface the configuration alert.
func NewHandler(loop LoopController, defaultCity string, apiKeySet bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		loop:        loop,
		defaultCity: defaultCity,
		apiKeySet:   apiKeySet,
		logger:      logger,
	}
}

// GetIndex handles GET /. Renders the weather panel for the current snapshot.
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{DefaultCity: h.defaultCity, Update: h.loop.Snapshot()}
	if err := pageTemplate.Execute(w, data); err != nil {
		loggerFrom(r, h.logger).Error("render page", zap.Error(err))
	}
}

// GetState handles GET /state.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.loop.Snapshot())
}

// PostLookup handles POST /lookup. The city comes from a JSON body {"city": "..."} or a
// "city" form field; blank means the default city. Responds 202 once the loop has
// accepted the trigger, before the lookup completes.
func (h *Handler) PostLookup(w http.ResponseWriter, r *http.Request) {
	city, err := readCity(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.loop.Trigger(city); err != nil {
		writeLoopError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.loop.Snapshot())
}

// PostDismiss handles POST /dismiss.
func (h *Handler) PostDismiss(w http.ResponseWriter, r *http.Request) {
	if err := h.loop.Dismiss(); err != nil {
		writeLoopError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.loop.Snapshot())
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{
		"weatherApiKey": "configured",
		"uiState":       h.loop.Snapshot().State.String(),
	}
	if !h.apiKeySet {
		checks["weatherApiKey"] = "missing"
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   "weatherdesk",
		"version":   "dev",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates, in order: shutting-down, missing API key, healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if !h.apiKeySet {
		return healthResult{"degraded", http.StatusServiceUnavailable, "api_key_missing"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

func readCity(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLookupBody)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body struct {
			City string `json:"city"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("invalid JSON body: %w", err)
		}
		return body.City, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", fmt.Errorf("invalid form body: %w", err)
	}
	return r.PostFormValue("city"), nil
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationIDFrom(r),
		},
	})
}

// writeLoopError maps ui.Loop refusals onto HTTP statuses.
func writeLoopError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ui.ErrAlertOpen):
		writeError(w, r, http.StatusConflict, "ALERT_OPEN", "Dismiss the open alert first")
	case errors.Is(err, ui.ErrNoAlert):
		writeError(w, r, http.StatusConflict, "NO_ALERT", "There is no alert to dismiss")
	case errors.Is(err, ui.ErrStopped):
		writeError(w, r, http.StatusServiceUnavailable, "SHUTTING_DOWN", "The application is shutting down")
	default:
		loggerFrom(r, zap.NewNop()).Error("ui loop", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Unexpected error")
	}
}
