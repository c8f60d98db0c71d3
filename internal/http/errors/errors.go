package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError serializa err como AppError. Cualquier error que no lo sea sale
// como INTERNAL_SERVER_ERROR sin exponer la causa.
func WriteError(w http.ResponseWriter, err error) {
	ae := FromError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(ae.HTTPStatus)
	_ = json.NewEncoder(w).Encode(ae)
}
