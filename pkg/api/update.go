package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// UpdateRequest pairs the criteria selecting records with the values to
// apply to them.
type UpdateRequest struct {
	Criteria map[string]interface{} `json:"criteria,omitempty"`
	Values   map[string]interface{} `json:"values"`
}

// HandleUpdate handles POST requests to update every record matching a
// criteria object. The response carries the post-update state of
// exactly the matched records.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	identity := vars["identity"]

	log.Printf("INFO: handleUpdate called for collection '%s'", identity)

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Values == nil {
		log.Printf("ERROR: Update body for collection '%s' has no values", identity)
		WriteJSONError(w, http.StatusBadRequest, "update requires a values object")
		return
	}

	c, err := h.manager.Get(identity)
	if err != nil {
		log.Printf("ERROR: Update failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	records, err := c.Update(r.Context(), req.Criteria, req.Values)
	if err != nil {
		log.Printf("ERROR: Update failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	log.Printf("INFO: Updated %d records in collection '%s'", len(records), identity)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
