package http

import "strconv"

// ParseErrorKind tells which part of the request failed to decode.
type ParseErrorKind uint8

const (
	// InvalidRequest is a request line not of the form METHOD SP PATH SP VERSION.
	InvalidRequest ParseErrorKind = iota + 1
	// InvalidEncoding is a request head containing bytes that aren't valid UTF-8.
	InvalidEncoding
	InvalidMethod
	InvalidProtocol
	InvalidHeader
	InvalidContentLength
	// IncompleteRequest is reported when the head isn't terminated by an empty line, or
	// the body is shorter than its Content-Length. Both happen when the request didn't
	// arrive in a single read.
	IncompleteRequest
	// RequestTooLarge is reported when the request exceeds the maximal request size.
	RequestTooLarge
)

var kindNames = [...]string{
	InvalidRequest:       "invalid request line",
	InvalidEncoding:      "invalid encoding",
	InvalidMethod:        "invalid method",
	InvalidProtocol:      "invalid protocol",
	InvalidHeader:        "invalid header",
	InvalidContentLength: "invalid Content-Length",
	IncompleteRequest:    "incomplete request",
	RequestTooLarge:      "request too large",
}

func (k ParseErrorKind) String() string {
	if k == 0 || int(k) >= len(kindNames) {
		return "unknown parse error"
	}

	return kindNames[k]
}

// ParseError is the only error the request parser ever returns. Token holds the
// offending piece of input, if any, and is quoted when rendered.
type ParseError struct {
	Token string
	Kind  ParseErrorKind
}

func NewParseError(kind ParseErrorKind, token string) ParseError {
	return ParseError{
		Kind:  kind,
		Token: token,
	}
}

func (p ParseError) Error() string {
	if len(p.Token) == 0 {
		return p.Kind.String()
	}

	return p.Kind.String() + ": " + strconv.Quote(p.Token)
}

// Is makes errors.Is match any ParseError of the same kind, so a bare
// ParseError{Kind: X} can be used as a target.
func (p ParseError) Is(target error) bool {
	other, ok := target.(ParseError)
	return ok && other.Kind == p.Kind
}
