package httptest

import "strconv"

// Header is a single header line, kept as a pair to preserve order and duplicates.
type Header struct {
	Key, Value string
}

// SerializeRequest renders a request in the wire format. Content-Length is
// appended automatically when body isn't empty.
func SerializeRequest(method, path string, headers []Header, body string) string {
	var buff []byte

	buff = append(buff, method...)
	buff = space(buff)
	buff = append(buff, path...)
	buff = space(buff)
	buff = append(buff, "HTTP/1.1"...)
	buff = crlf(buff)

	for _, h := range headers {
		buff = header(buff, h)
	}

	if len(body) > 0 {
		buff = header(buff, Header{
			Key:   "Content-Length",
			Value: strconv.Itoa(len(body)),
		})
	}

	buff = crlf(buff)
	buff = append(buff, body...)

	return string(buff)
}

func space(b []byte) []byte {
	return append(b, ' ')
}

func crlf(b []byte) []byte {
	return append(b, '\r', '\n')
}

func header(b []byte, h Header) []byte {
	b = append(b, h.Key...)
	b = append(b, ':', ' ')
	b = append(b, h.Value...)

	return crlf(b)
}
