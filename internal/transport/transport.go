package transport

import "github.com/indigo-web/simplehttp/http"

// Parser turns the bytes of a single read into a request. Any returned error
// must be an http.ParseError.
type Parser interface {
	Parse(data []byte) (*http.Request, error)
}

// Serializer converts a response into bytes without transmitting them.
type Serializer interface {
	Serialize(response *http.Response) []byte
}
