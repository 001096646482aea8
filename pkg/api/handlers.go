package api

import (
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/adapter"
)

// Handler provides the HTTP handlers for the adapter API
type Handler struct {
	manager *adapter.Manager
}

// NewHandler creates a new API handler with dependency injection
func NewHandler(manager *adapter.Manager) *Handler {
	return &Handler{
		manager: manager,
	}
}
