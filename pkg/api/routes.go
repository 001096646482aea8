package api

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API routes with the given router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	// Collection lifecycle
	router.HandleFunc("/collections", h.HandleListCollections).Methods("GET")
	router.HandleFunc("/collections/{identity}", h.HandleRegister).Methods("PUT")
	router.HandleFunc("/collections/{identity}", h.HandleTeardown).Methods("DELETE")

	// Record operations. Criteria objects travel in the request body, so
	// these are POSTs even when they only read.
	router.HandleFunc("/collections/{identity}/find", h.HandleFind).Methods("POST")
	router.HandleFunc("/collections/{identity}/insert", h.HandleInsert).Methods("POST")
	router.HandleFunc("/collections/{identity}/update", h.HandleUpdate).Methods("POST")
	router.HandleFunc("/collections/{identity}/destroy", h.HandleDestroy).Methods("POST")

	// Index inspection
	router.HandleFunc("/collections/{identity}/indexes", h.HandleGetIndexes).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.HandleHealth).Methods("GET")
}
