package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// HandleListCollections handles GET requests to list the registered
// collection identities
func (h *Handler) HandleListCollections(w http.ResponseWriter, r *http.Request) {
	identities := h.manager.Identities()

	response := map[string]interface{}{
		"collections": identities,
		"count":       len(identities),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	log.Printf("INFO: Listed %d registered collections", len(identities))
}
