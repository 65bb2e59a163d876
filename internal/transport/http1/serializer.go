package http1

import (
	"strconv"

	"github.com/indigo-web/simplehttp/http"
	"github.com/indigo-web/simplehttp/http/status"
)

const (
	protocol      = "HTTP/1.1 "
	contentLength = "Content-Length: "
)

// Serializer renders responses into its own buffer. It never writes anything
// anywhere, it's up to the caller to transmit the result.
type Serializer struct {
	buff []byte
}

func NewSerializer(buff []byte) *Serializer {
	return &Serializer{
		buff: buff[:0],
	}
}

// Serialize renders the status line, the Content-Length header computed from the
// body and the body itself. The returned slice is valid until the next call.
func (s *Serializer) Serialize(response *http.Response) []byte {
	fields := response.Reveal()
	s.buff = append(s.buff[:0], protocol...)
	s.buff = strconv.AppendUint(s.buff, uint64(fields.Code), 10)
	s.sp()
	s.buff = append(s.buff, status.Text(fields.Code)...)
	s.crlf()
	s.buff = strconv.AppendInt(append(s.buff, contentLength...), int64(len(fields.Body)), 10)
	s.crlf()
	s.crlf()
	s.buff = append(s.buff, fields.Body...)

	return s.buff
}

func (s *Serializer) sp() {
	s.buff = append(s.buff, ' ')
}

func (s *Serializer) crlf() {
	s.buff = append(s.buff, '\r', '\n')
}
