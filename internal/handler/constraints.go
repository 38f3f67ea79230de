package handler

import (
	"net/http"

	"github.com/roosterd/roosterd/internal/constraints"
)

// Constraints serves the static constraint catalog.
func Constraints(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, constraints.Library{Constraints: constraints.Catalog()})
}
