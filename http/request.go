package http

import (
	"github.com/indigo-web/simplehttp/http/method"
	"github.com/indigo-web/utils/strcomp"
)

// Request represents a single decoded HTTP request. It is constructed by the parser
// only after the whole message was validated, so a Request always holds a known
// method, a non-empty path and a well-formed protocol version. Nothing in it
// references the connection's read buffer, so a handler may keep it around.
type Request struct {
	// Method is an enum representing the request method. Never method.Unknown.
	Method method.Method
	// Path is the request target exactly as it was received. It is neither decoded nor
	// normalized, so handlers serving files must guard against traversal on their own.
	Path string
	// Proto is the protocol token, e.g. HTTP/1.1. It is informational only.
	Proto string
	// Headers are stored with names exactly as received. When a name occurs more than
	// once, the last value wins.
	Headers map[string]string
	// Body is nil unless Content-Length was presented.
	Body []byte
}

// Header looks the value up by name, ignoring the case. Use the Headers map directly
// for case-sensitive access.
func (r *Request) Header(name string) (string, bool) {
	if value, found := r.Headers[name]; found {
		return value, true
	}

	for key, value := range r.Headers {
		if strcomp.EqualFold(key, name) {
			return value, true
		}
	}

	return "", false
}
