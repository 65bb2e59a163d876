package status

// HTTPError is an error which knows the status code it must be answered with.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrBadRequest          = NewError(BadRequest, "bad request")
	ErrForbidden           = NewError(Forbidden, "forbidden")
	ErrNotFound            = NewError(NotFound, "not found")
	ErrMethodNotAllowed    = NewError(MethodNotAllowed, "method not allowed")
	ErrInternalServerError = NewError(InternalServerError, "internal server error")
)
