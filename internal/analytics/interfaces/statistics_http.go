package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cleanbin-cloud/internal/analytics/application"
	"cleanbin-cloud/internal/observability/metrics"
)

// StatisticsHandler serves aggregate bin statistics.
type StatisticsHandler struct {
	service *application.StatisticsService
}

// NewStatisticsHandler constructs a StatisticsHandler.
func NewStatisticsHandler(service *application.StatisticsService) (*StatisticsHandler, error) {
	if service == nil {
		return nil, errors.New("statistics handler: nil service")
	}
	return &StatisticsHandler{service: service}, nil
}

type statisticsResponse struct {
	DistrictName string `json:"district_name"`
	TotalBins    int    `json:"total_bins"`
	FilledBins   int    `json:"filled_bins"`
	LastUpdated  string `json:"last_updated"`
}

// ServeHTTP handles GET /api/v1/statistics.
func (h *StatisticsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	summary, err := h.service.Summary(r.Context(), r.URL.Query().Get("district"))
	if err != nil {
		if errors.Is(err, application.ErrDistrictNotFound) {
			metrics.IncQuery("statistics", metrics.ResultError)
			http.Error(w, "district not found", http.StatusNotFound)
			return
		}
		metrics.IncQuery("statistics", metrics.ResultError)
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}

	metrics.IncQuery("statistics", metrics.ResultSuccess)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statisticsResponse{
		DistrictName: summary.DistrictName,
		TotalBins:    summary.TotalBins,
		FilledBins:   summary.FilledBins,
		LastUpdated:  summary.LastUpdated.Format(time.RFC3339),
	})
}
