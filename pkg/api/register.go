package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/adapter"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/connection"
)

// RegisterRequest is the body of a collection registration: the model's
// schema map and, optionally, a connection config overriding the
// server's backend for this collection.
type RegisterRequest struct {
	Schema map[string]interface{} `json:"schema,omitempty"`
	Config connection.Config      `json:"config,omitempty"`
}

// RegisterResponse echoes the registered identity and the indexes that
// were built from the schema.
type RegisterResponse struct {
	Identity string      `json:"identity"`
	Indexes  interface{} `json:"indexes"`
}

// HandleRegister handles PUT requests to register a collection definition
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	identity := vars["identity"]

	log.Printf("INFO: handleRegister called for collection '%s'", identity)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.manager.Register(r.Context(), adapter.Definition{
		Identity: identity,
		Config:   req.Config,
		Schema:   req.Schema,
	})
	if err != nil {
		log.Printf("ERROR: Register failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	log.Printf("INFO: Register successful for collection '%s'", c.Identity())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(RegisterResponse{
		Identity: c.Identity(),
		Indexes:  c.Indexes(),
	})
}
