package response

import "github.com/indigo-web/simplehttp/http/status"

// Fields is everything the serializer needs to know about a response. Headers
// are not here: Content-Length is derived from Body at serialization time.
type Fields struct {
	Body []byte
	Code status.Code
}

func (f Fields) Clear() Fields {
	f.Code = status.OK
	f.Body = nil

	return f
}
