package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/davidortiz/eshop-backend/internal/catalog"
	"github.com/davidortiz/eshop-backend/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func message(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// writeError maps the error taxonomy onto status codes: malformed input and
// dangling references are the caller's fault (400), unresolvable ids are 404,
// everything else is a store failure (500).
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrBadQuantity),
		errors.Is(err, orders.ErrBadStatus),
		errors.Is(err, orders.ErrProductNotFound),
		errors.Is(err, orders.ErrUserNotFound):
		message(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, catalog.ErrNotFound):
		message(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		// store deadline hit; safe for the client to retry
		message(w, http.StatusGatewayTimeout, "store timeout, retry")
	default:
		log.Printf("store error: %v", err)
		message(w, http.StatusInternalServerError, "internal error")
	}
}
