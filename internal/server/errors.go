package server

import (
	"encoding/json"
	"net/http"

	"github.com/conduit-lang/typecache/internal/errtree"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error  ErrorDetail `json:"error"`
	Status int         `json:"status"`
	Path   string      `json:"path,omitempty"`
}

// ErrorDetail contains detailed error information
type ErrorDetail struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Report  *errtree.Report `json:"report,omitempty"`
}

// Error codes
const (
	CodeNotFound         = "NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeNotSealed        = "REGISTRY_NOT_SEALED"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// WriteError writes an error response
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:  ErrorDetail{Code: code, Message: message},
		Status: status,
		Path:   r.URL.Path,
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, CodeNotFound, "The requested resource was not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed,
		"Method "+r.Method+" is not allowed; the registry is read-only")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
