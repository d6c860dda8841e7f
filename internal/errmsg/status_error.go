package errmsg

var EmptyStatusError = NewStatusError(0, "")

// StatusError is an error that knows the HTTP status it maps to.
type StatusError struct {
	StatusCode int
	Message    string
}

func NewStatusError(statusCode int, message string) StatusError {
	return StatusError{
		StatusCode: statusCode,
		Message:    message,
	}
}

func (se StatusError) Error() string {
	return se.Message
}

// Is matches on status code and message so wrapped values compare equal.
func (se StatusError) Is(target error) bool {
	other, ok := target.(StatusError)
	if !ok {
		return false
	}
	return other.StatusCode == se.StatusCode && other.Message == se.Message
}
