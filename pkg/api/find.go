package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleFind handles POST requests to query a collection with a criteria
// object. An empty body selects everything.
func (h *Handler) HandleFind(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	identity := vars["identity"]

	log.Printf("INFO: handleFind called for collection '%s'", identity)

	criteria, err := decodeCriteria(r)
	if err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.manager.Get(identity)
	if err != nil {
		log.Printf("ERROR: Find failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	records, err := c.Find(r.Context(), criteria)
	if err != nil {
		log.Printf("ERROR: Find failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	log.Printf("INFO: Found %d records in collection '%s'", len(records), identity)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// decodeCriteria reads an optional criteria object from the request
// body. A missing or empty body means no criteria.
func decodeCriteria(r *http.Request) (map[string]interface{}, error) {
	var criteria map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil && err != io.EOF {
		return nil, err
	}
	return criteria, nil
}
