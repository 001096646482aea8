package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// HandleInsert handles POST requests to insert records into a
// collection. The body is either a single value object or an array of
// them; the response is always a list, one record per input.
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	identity := vars["identity"]

	log.Printf("INFO: handleInsert called for collection '%s'", identity)

	var raw interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		log.Printf("ERROR: Decoding body failed: %v", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	values, err := valuesFromBody(raw)
	if err != nil {
		log.Printf("ERROR: Invalid insert body for collection '%s': %v", identity, err)
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.manager.Get(identity)
	if err != nil {
		log.Printf("ERROR: Insert failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	records, err := c.Insert(r.Context(), values...)
	if err != nil {
		log.Printf("ERROR: Insert failed for collection '%s': %v", identity, err)
		WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	log.Printf("INFO: Inserted %d records into collection '%s'", len(records), identity)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(records)
}

// valuesFromBody accepts the two insert body shapes: one value object or
// an array of value objects.
func valuesFromBody(raw interface{}) ([]domain.Document, error) {
	switch v := raw.(type) {
	case map[string]interface{}:
		return []domain.Document{v}, nil
	case []interface{}:
		values := make([]domain.Document, 0, len(v))
		for i, item := range v {
			doc, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("element %d must be a document, got %T", i, item)
			}
			values = append(values, doc)
		}
		return values, nil
	default:
		return nil, fmt.Errorf("request body must be a document or an array of documents")
	}
}
