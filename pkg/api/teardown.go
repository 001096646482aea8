package api

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleTeardown handles DELETE requests to drop a collection and forget
// its registration
func (h *Handler) HandleTeardown(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	identity := vars["identity"]

	log.Printf("INFO: handleTeardown called for collection '%s'", identity)

	c, err := h.manager.Get(identity)
	if err != nil {
		log.Printf("ERROR: Teardown failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	if err := c.Drop(r.Context()); err != nil {
		log.Printf("ERROR: Drop failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}
	if err := h.manager.Teardown(identity); err != nil {
		log.Printf("ERROR: Teardown failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	log.Printf("INFO: Teardown successful for collection '%s'", identity)
	w.WriteHeader(http.StatusNoContent)
}
