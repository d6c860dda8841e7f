package errmsg

import "net/http"

var (
	NotFound = NewStatusError(http.StatusNotFound, "not found")
)

func InternalServerError(err error) StatusError {
	return NewStatusError(
		http.StatusInternalServerError,
		"internal server error: "+err.Error(),
	)
}
