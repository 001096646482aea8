package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleGetIndexes handles GET requests to retrieve the index
// descriptors built from a collection's schema
func (h *Handler) HandleGetIndexes(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	identity := vars["identity"]

	log.Printf("INFO: handleGetIndexes called for collection '%s'", identity)

	c, err := h.manager.Get(identity)
	if err != nil {
		log.Printf("ERROR: Failed to get indexes for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	indexes := c.Indexes()
	response := map[string]interface{}{
		"collection":  c.Identity(),
		"indexes":     indexes,
		"index_count": len(indexes),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	log.Printf("INFO: Retrieved %d indexes for collection '%s'", len(indexes), identity)
}
