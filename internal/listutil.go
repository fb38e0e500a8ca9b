package internal

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// listParams holds common query parameters for list endpoints
type listParams struct {
	limit  int
	offset int
	q      string
	sort   string
}

// parseListParams parses limit, offset, q, and sort from the request.
// Defaults: limit=50 (max 200), offset=0
func parseListParams(r *http.Request) listParams {
	values := r.URL.Query()

	limit := 50
	if s := strings.TrimSpace(values.Get("limit")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			if v > 200 {
				v = 200
			}
			limit = v
		}
	}

	offset := 0
	if s := strings.TrimSpace(values.Get("offset")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	return listParams{
		limit:  limit,
		offset: offset,
		q:      strings.TrimSpace(values.Get("q")),
		sort:   strings.TrimSpace(values.Get("sort")),
	}
}

// pageBounds clamps a limit/offset window onto a slice of length total.
func pageBounds(total int, params listParams) (start, end int) {
	start = params.offset
	if start > total {
		start = total
	}
	end = start + params.limit
	if end > total {
		end = total
	}
	return start, end
}

// sortKey splits a sort parameter into its key and direction. Only the
// first comma-separated entry is honored; prefix '-' means descending.
func sortKey(sortParam string) (key string, desc bool) {
	key = strings.TrimSpace(strings.Split(sortParam, ",")[0])
	if strings.HasPrefix(key, "-") {
		return strings.TrimPrefix(key, "-"), true
	}
	return key, false
}

// matchQ reports whether any of the fields contains q, case-insensitively.
func matchQ(q string, fields ...string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// sendListResponse writes the standard list envelope.
func sendListResponse(w http.ResponseWriter, data interface{}, total int, params listParams) {
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]interface{}{
		"data": data,
		"meta": map[string]interface{}{
			"total":  total,
			"limit":  params.limit,
			"offset": params.offset,
		},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
