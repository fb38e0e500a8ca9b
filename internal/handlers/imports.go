package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"asset-tracker-api/internal/store"
	"asset-tracker-api/pkg/importer"
	"asset-tracker-api/pkg/reconciler"
)

// ImportsHandler handles Excel import operations
type ImportsHandler struct {
	Store        store.Store
	Aliases      *reconciler.AliasConfig
	HistoryLimit int
	MaxBytes     int64
}

// NewImportsHandler creates a new imports handler
func NewImportsHandler(st store.Store, aliases *reconciler.AliasConfig) *ImportsHandler {
	return &ImportsHandler{
		Store:    st,
		Aliases:  aliases,
		MaxBytes: 20 << 20, // 20 MB
	}
}

// UploadExcel handles Excel file uploads for bulk asset/tracker import
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	// Limit body size
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	// Require multipart
	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		http.Error(w, "content-type must be multipart/form-data", http.StatusBadRequest)
		return
	}

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	dryRun := r.FormValue("dry_run") == "true"
	maxErrors := 50
	if v := r.FormValue("max_errors"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxErrors = n
		}
	}

	// File
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !isXLSX(header) {
		http.Error(w, "only .xlsx files are accepted", http.StatusBadRequest)
		return
	}

	sum, impErr := importer.ImportExcel(r.Context(), h.Store, file, importer.ImportOptions{
		Aliases:      h.Aliases,
		HistoryLimit: h.HistoryLimit,
		DryRun:       dryRun,
		MaxErrors:    maxErrors,
	})
	if impErr != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "IMPORT_FAILED",
			"details": impErr.Error(),
			"data":    sum, // might include partial
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": sum,
		"meta": map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}
