// Package handlers provides HTTP request handlers for the label check API
// endpoints. This file implements the HTTPHandler interface with dependency
// injection.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/labelcheck/labelcheck-api/compliance"
	"github.com/labelcheck/labelcheck-api/dosage"
	"github.com/labelcheck/labelcheck-api/interfaces"
	"github.com/labelcheck/labelcheck-api/label"
	"github.com/labelcheck/labelcheck-api/logging"
	"github.com/labelcheck/labelcheck-api/metrics"
	"github.com/labelcheck/labelcheck-api/report"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore interfaces.DataStore
	validator interfaces.LabelValidator
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.LabelValidator) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore: dataStore,
		validator: validator,
	}
}

// ComplianceResult is the response body for the compliance-only check.
type ComplianceResult struct {
	IsValid   bool               `json:"is_valid"`
	Errors    []compliance.Error `json:"errors"`
	CheckedAt time.Time          `json:"checked_at"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// decodeLabel reads and validates the submitted label. A nil return means the
// response has already been written.
func (h *HTTPHandlerImpl) decodeLabel(w http.ResponseWriter, r *http.Request) *label.Data {
	var data label.Data

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		logging.Warn("Malformed label payload", "error", err, "remote_addr", r.RemoteAddr)
		h.RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid label payload: %v", err))
		return nil
	}

	if err := h.validator.ValidateLabel(&data); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return nil
	}

	return &data
}

// snapshot returns the current catalog, or nil after writing a 503. Checks
// cannot run before the first successful catalog load.
func (h *HTTPHandlerImpl) snapshot(w http.ResponseWriter) interfaces.CatalogStore {
	c := h.dataStore.GetCatalog()
	if c == nil {
		h.RespondWithError(w, http.StatusServiceUnavailable, "Regulatory catalog is not loaded yet")
	}
	return c
}

// CheckDosage resolves each ingredient against the catalog and evaluates its
// declared dose.
func (h *HTTPHandlerImpl) CheckDosage(w http.ResponseWriter, r *http.Request) {
	data := h.decodeLabel(w, r)
	if data == nil {
		return
	}
	c := h.snapshot(w)
	if c == nil {
		return
	}

	result := dosage.NewEvaluator(c).EvaluateAll(r.Context(), data.Ingredients)
	recordDosageMetrics("dosage", result)

	h.RespondWithJSON(w, http.StatusOK, result)
}

// CheckCompliance runs the forbidden-phrase and mandatory-field checks only.
func (h *HTTPHandlerImpl) CheckCompliance(w http.ResponseWriter, r *http.Request) {
	data := h.decodeLabel(w, r)
	if data == nil {
		return
	}
	c := h.snapshot(w)
	if c == nil {
		return
	}

	violations, err := h.runCompliance(c, data)
	if err != nil {
		logging.Error("Compliance check failed", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Compliance check failed")
		return
	}

	result := ComplianceResult{
		IsValid:   len(violations) == 0,
		Errors:    violations,
		CheckedAt: time.Now(),
	}
	metrics.LabelChecksTotal.WithLabelValues("compliance", strconv.FormatBool(result.IsValid)).Inc()

	h.RespondWithJSON(w, http.StatusOK, result)
}

// CheckFull runs the dosage and compliance checks and aggregates one report.
func (h *HTTPHandlerImpl) CheckFull(w http.ResponseWriter, r *http.Request) {
	data := h.decodeLabel(w, r)
	if data == nil {
		return
	}
	c := h.snapshot(w)
	if c == nil {
		return
	}

	dosageResult := dosage.NewEvaluator(c).EvaluateAll(r.Context(), data.Ingredients)

	violations, err := h.runCompliance(c, data)
	if err != nil {
		logging.Error("Compliance check failed", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Compliance check failed")
		return
	}

	rep := report.Build(data.ProductInfo, dosageResult, violations, time.Now())
	recordDosageMetrics("full", dosageResult)
	metrics.LabelChecksTotal.WithLabelValues("full", strconv.FormatBool(rep.IsValid)).Inc()

	h.RespondWithJSON(w, http.StatusOK, rep)
}

// runCompliance checks the label text for forbidden phrases and the label
// fields for missing mandatory content, against one catalog snapshot.
func (h *HTTPHandlerImpl) runCompliance(c interfaces.CatalogStore, data *label.Data) ([]compliance.Error, error) {
	violations, err := compliance.NewPhraseChecker(c).Check(data.FullText)
	if err != nil {
		return nil, fmt.Errorf("forbidden phrase check: %w", err)
	}

	fieldViolations, err := compliance.NewFieldChecker(c).Check(data)
	if err != nil {
		return nil, fmt.Errorf("mandatory field check: %w", err)
	}

	return append(violations, fieldViolations...), nil
}

func recordDosageMetrics(check string, result dosage.Result) {
	metrics.LabelChecksTotal.WithLabelValues(check, strconv.FormatBool(result.AllValid)).Inc()
	for _, v := range result.Verdicts {
		metrics.VerdictsTotal.WithLabelValues(string(v.Status)).Inc()
	}
}

// HealthResponseImpl defines the structure for consistent JSON ordering
type HealthResponseImpl struct {
	Status          string                 `json:"status"`
	CatalogLoadedAt string                 `json:"catalog_loaded_at"`
	CatalogAgeHours float64                `json:"catalog_age_hours"`
	UptimeSeconds   float64                `json:"uptime_seconds"`
	Data            map[string]interface{} `json:"data"`
	System          map[string]interface{} `json:"system"`
}

// formatUptimeHuman formats duration into a human-readable string
func (h *HTTPHandlerImpl) formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	// Get memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.dataStore.GetServerStartTime())

	c := h.dataStore.GetCatalog()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()
	catalogAge := time.Since(lastUpdate)

	// Determine health status based on catalog availability and age
	var healthStatus string
	var httpStatus int
	switch {
	case c == nil:
		healthStatus = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case catalogAge > 48*time.Hour:
		healthStatus = "degraded"
		httpStatus = http.StatusOK
	default:
		healthStatus = "healthy"
		httpStatus = http.StatusOK
	}

	tables := map[string]int{}
	loadedAt := ""
	if c != nil {
		tables = c.Counts()
		loadedAt = c.LoadedAt().Format(time.RFC3339)
	}

	response := HealthResponseImpl{
		Status:          healthStatus,
		CatalogLoadedAt: loadedAt,
		CatalogAgeHours: catalogAge.Hours(),
		UptimeSeconds:   uptime.Seconds(),
		Data: map[string]interface{}{
			"api_version":    "1.0",
			"catalog_tables": tables,
			"is_updating":    isUpdating,
			"uptime_human":   h.formatUptimeHuman(uptime),
		},
		System: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}
