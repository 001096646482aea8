package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleDestroy handles POST requests to remove every record matching a
// criteria object. The response is one {id} entry per removed record.
func (h *Handler) HandleDestroy(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	identity := vars["identity"]

	log.Printf("INFO: handleDestroy called for collection '%s'", identity)

	criteria, err := decodeCriteria(r)
	if err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.manager.Get(identity)
	if err != nil {
		log.Printf("ERROR: Destroy failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	records, err := c.Destroy(r.Context(), criteria)
	if err != nil {
		log.Printf("ERROR: Destroy failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	log.Printf("INFO: Destroyed %d records in collection '%s'", len(records), identity)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
