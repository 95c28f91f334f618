package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"cleanbin-cloud/internal/audit"
	"cleanbin-cloud/internal/auth"
	"cleanbin-cloud/internal/ingest/application"
	"cleanbin-cloud/internal/observability/metrics"
	waste "cleanbin-cloud/internal/waste/domain"
)

// Handler accepts field sensor reports over HTTP. Devices authenticate with
// the shared API key carried in the body, not with a bearer token.
type Handler struct {
	service     *application.Service
	keys        *auth.APIKeyVerifier
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewHandler constructs an ingest handler.
func NewHandler(service *application.Service, keys *auth.APIKeyVerifier, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("ingest handler: nil service")
	}
	if keys == nil {
		return nil, errors.New("ingest handler: nil key verifier")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{service: service, keys: keys, auditLogger: auditLogger, logger: logger}, nil
}

type updateRequest struct {
	SensorID    string `json:"sensor_id"`
	Status      string `json:"status"`
	APIKey      string `json:"api_key"`
	Location    string `json:"location"`
	PhoneNumber string `json:"phone_number"`
}

type updateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ServeHTTP handles POST /ingest/bin-status.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.fail(w, start, "read_body", "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req updateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.fail(w, start, "decode", "invalid json", http.StatusBadRequest)
		return
	}
	if req.SensorID == "" || req.Status == "" || req.APIKey == "" {
		h.fail(w, start, "validation", "sensor_id, status and api_key are required", http.StatusBadRequest)
		return
	}
	status, err := waste.ParseStatus(req.Status)
	if err != nil {
		h.fail(w, start, "validation", err.Error(), http.StatusBadRequest)
		return
	}
	if !h.keys.Verify(req.APIKey) {
		h.fail(w, start, "api_key", "invalid api key", http.StatusUnauthorized)
		return
	}

	result, err := h.service.Process(r.Context(), application.Report{
		SensorID:    req.SensorID,
		Status:      status,
		Location:    req.Location,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		if errors.Is(err, application.ErrUnknownSensor) {
			h.fail(w, start, "unknown_sensor", fmt.Sprintf("no bin found for sensor %s", req.SensorID), http.StatusNotFound)
			return
		}
		h.logger.Printf("bin ingest: process error: %v", err)
		h.fail(w, start, "store", "process error", http.StatusInternalServerError)
		return
	}

	var message string
	switch result.Outcome {
	case application.OutcomeUpdated:
		message = fmt.Sprintf("sensor %s status updated: %s", req.SensorID, status)
	case application.OutcomeUnchanged:
		message = fmt.Sprintf("status already %s", status)
	case application.OutcomeCreated:
		message = fmt.Sprintf("new bin registered: %s", result.Bin.BinID)
	}

	metrics.ObserveIngest(metrics.ResultSuccess, time.Since(start))
	h.logAudit(r, result)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updateResponse{Success: true, Message: message})
}

func (h *Handler) fail(w http.ResponseWriter, start time.Time, reason, message string, code int) {
	metrics.IncIngestError(reason)
	metrics.ObserveIngest(metrics.ResultError, time.Since(start))
	http.Error(w, message, code)
}

func (h *Handler) logAudit(r *http.Request, result *application.Result) {
	if h.auditLogger == nil || result == nil || result.Outcome == application.OutcomeUnchanged {
		return
	}
	action := audit.ActionStatusChange
	if result.Outcome == application.OutcomeCreated {
		action = audit.ActionBinCreated
	}
	meta, _ := json.Marshal(map[string]string{
		"bin_id": result.Bin.BinID,
		"status": string(result.Bin.Status),
	})
	entry := audit.Entry{
		Actor:        "sensor:" + result.Bin.SensorID,
		Action:       action,
		ResourceType: "bin",
		ResourceID:   result.Bin.ID,
		SensorID:     result.Bin.SensorID,
		Metadata:     meta,
		IP:           r.RemoteAddr,
	}
	if err := h.auditLogger.Log(r.Context(), entry); err != nil {
		h.logger.Printf("bin ingest: audit error: %v", err)
	}
}
