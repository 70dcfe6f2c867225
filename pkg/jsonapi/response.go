package jsonapi

import (
	"encoding/json"
	"net/http"
	"strings"
)

// WriteDocument writes a document to the response.
func WriteDocument(w http.ResponseWriter, status int, doc Document) error {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(doc)
}

// WriteError writes an error response. The HTTP status is taken from the
// first error.
func WriteError(w http.ResponseWriter, errs ...Error) error {
	if len(errs) == 0 {
		errs = []Error{ErrInternal("")}
	}

	status := errs[0].StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return WriteDocument(w, status, NewErrorDocument(errs...))
}

// WriteMethodNotAllowed writes a 405 with the Allow header set.
func WriteMethodNotAllowed(w http.ResponseWriter, method string, allowed []string) error {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	return WriteError(w, ErrMethodNotAllowed(method, allowed))
}

// WriteNoContent writes a bodiless status, typically 204.
func WriteNoContent(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}
