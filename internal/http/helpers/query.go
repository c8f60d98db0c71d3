package helpers

import (
	"net/http"
	"strconv"
	"strings"
)

// OptionalInt lee un query param entero. (nil, true) si no viene;
// (nil, false) si viene y no es un entero.
func OptionalInt(r *http.Request, name string) (*int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	return &n, true
}

// OptionalString lee un query param; nil si no viene o está vacío.
func OptionalString(r *http.Request, name string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	return &raw
}
