package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

func writeJSONMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"message": message})
}

func writeJSONErrorResponse(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": code, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type paginationParams struct {
	page     int
	pageSize int
	limit    int
	offset   int
}

func parsePaginationParams(r *http.Request, defaultSize, maxSize int) paginationParams {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	size := defaultSize
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}
	if size > maxSize {
		size = maxSize
	}
	return paginationParams{
		page:     page,
		pageSize: size,
		limit:    size,
		offset:   (page - 1) * size,
	}
}

func writePaginatedResponse(w http.ResponseWriter, status int, items any, total int64, p paginationParams) {
	writeJSON(w, status, map[string]any{
		"items":     items,
		"total":     total,
		"page":      p.page,
		"page_size": p.pageSize,
	})
}
