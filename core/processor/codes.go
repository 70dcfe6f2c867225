package processor

import "net/http"

// Code is the outcome of a request.
type Code struct {
	Status  int
	Success bool
	Name    string
}

func (c Code) String() string { return c.Name }

// IsZero reports whether no outcome was set.
func (c Code) IsZero() bool { return c.Status == 0 }

// Outcomes.
var (
	ResourceFound = Code{Status: http.StatusOK, Success: true, Name: "RESOURCE_FOUND"}
	InsertSuccess = Code{Status: http.StatusCreated, Success: true, Name: "INSERT_SUCCESS"}
	UpdateSuccess = Code{Status: http.StatusOK, Success: true, Name: "UPDATE_SUCCESS"}
	DeleteSuccess = Code{Status: http.StatusNoContent, Success: true, Name: "DELETED_SUCCESS"}

	CannotInsert = Code{Status: http.StatusBadRequest, Name: "CANNOT_INSERT"}
	CannotUpdate = Code{Status: http.StatusBadRequest, Name: "CANNOT_UPDATE"}
	CannotDelete = Code{Status: http.StatusBadRequest, Name: "CANNOT_DELETE"}

	BadRequest       = Code{Status: http.StatusBadRequest, Name: "BAD_REQUEST"}
	UnknownParams    = Code{Status: http.StatusBadRequest, Name: "UNKNOWN_PARAMS"}
	UnknownFormat    = Code{Status: http.StatusBadRequest, Name: "UNKNOWN_FORMAT"}
	NotFound         = Code{Status: http.StatusNotFound, Name: "RESOURCE_NOT_FOUND"}
	MethodNotAllowed = Code{Status: http.StatusMethodNotAllowed, Name: "NOT_AVAILABLE"}
	InternalError    = Code{Status: http.StatusInternalServerError, Name: "INTERNAL_ERROR"}
)
