package reporting

import (
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"cleanbin-cloud/internal/audit"
	"cleanbin-cloud/internal/auth"
	"cleanbin-cloud/internal/observability/metrics"
	waste "cleanbin-cloud/internal/waste/domain"
)

// ExportHandler serves bin inventory downloads in csv, xlsx and pdf form.
type ExportHandler struct {
	store       waste.Store
	auditLogger audit.Logger
	now         func() time.Time
}

// NewExportHandler constructs an ExportHandler. auditLogger may be nil.
func NewExportHandler(store waste.Store, auditLogger audit.Logger) (*ExportHandler, error) {
	if store == nil {
		return nil, errors.New("export handler: nil store")
	}
	return &ExportHandler{
		store:       store,
		auditLogger: auditLogger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

// ServeHTTP handles GET /api/v1/exports/bins.{csv,xlsx,pdf}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	start := time.Now()

	format := path.Ext(r.URL.Path)
	rows, err := CollectInventory(r.Context(), h.store, r.URL.Query().Get("district"))
	if err != nil {
		if errors.Is(err, ErrDistrictNotFound) {
			metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
			http.Error(w, "district not found", http.StatusNotFound)
			return
		}
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "query error", http.StatusInternalServerError)
		return
	}

	var (
		payload     []byte
		contentType string
	)
	switch format {
	case ".csv":
		payload, err = BuildInventoryCSV(rows)
		contentType = "text/csv"
	case ".xlsx":
		payload, err = BuildInventoryXLSX(rows)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".pdf":
		payload, err = BuildInventoryPDF(rows, h.now())
		contentType = "application/pdf"
	default:
		http.Error(w, "unsupported export format", http.StatusNotFound)
		return
	}
	if err != nil {
		metrics.ObserveExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "export error", http.StatusInternalServerError)
		return
	}

	metrics.ObserveExport(format, metrics.ResultSuccess, time.Since(start))
	h.logAudit(r, format, len(rows))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bins`+format+`"`)
	_, _ = w.Write(payload)
}

// logAudit records who pulled the inventory. The actor comes from the bearer
// identity stored by the auth middleware; exports are best-effort audited.
func (h *ExportHandler) logAudit(r *http.Request, format string, rows int) {
	if h.auditLogger == nil {
		return
	}
	actor := auth.SubjectFromContext(r.Context())
	if actor == "" {
		actor = "unknown"
	}
	meta, _ := json.Marshal(map[string]string{
		"format": strings.TrimPrefix(format, "."),
		"rows":   strconv.Itoa(rows),
		"role":   string(auth.RoleFromContext(r.Context())),
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        actor,
		Action:       audit.ActionInventoryExported,
		ResourceType: "bin_inventory",
		Metadata:     meta,
		IP:           r.RemoteAddr,
	})
}
