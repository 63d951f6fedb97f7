package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mkarev/nftmarket/internal/market"
	"github.com/mkarev/nftmarket/internal/model"
)

// NewHandler builds the query API mux around a coordinator.
func NewHandler(coord *market.Coordinator, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status   string `json:"status"`
			Items    int    `json:"items"`
			Auctions int    `json:"auctions"`
		}{
			Status:   "healthy",
			Items:    len(coord.Items()),
			Auctions: len(coord.Auctions()),
		}
		writeJSON(w, http.StatusOK, health)
	})

	mux.HandleFunc("GET /items", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"items": coord.Items(),
		})
	})

	mux.HandleFunc("GET /items/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid token id"})
			return
		}

		info, ok := coord.Item(model.TokenID(id))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown item"})
			return
		}
		writeJSON(w, http.StatusOK, info)
	})

	mux.HandleFunc("GET /auctions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"auctions": coord.Auctions(),
		})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
