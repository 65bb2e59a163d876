package http1

import (
	"bytes"
	"strconv"
	"unicode/utf8"

	"github.com/indigo-web/simplehttp/http"
	"github.com/indigo-web/simplehttp/http/method"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

var (
	crlf       = []byte("\r\n")
	headEnding = []byte("\r\n\r\n")
)

// Parser decodes a whole request out of a single buffer. It does no I/O and keeps
// no state between calls: the data either contains a complete and valid request,
// or the call fails with an http.ParseError and no request at all.
type Parser struct {
	maxRequestSize int
}

func NewParser(maxRequestSize int) *Parser {
	return &Parser{
		maxRequestSize: maxRequestSize,
	}
}

// Parse returns either a complete request or an http.ParseError. Returned request
// doesn't reference data, so the buffer may be reused right after the call.
func (p *Parser) Parse(data []byte) (*http.Request, error) {
	if len(data) > p.maxRequestSize {
		return nil, http.NewParseError(http.RequestTooLarge, "")
	}

	headLength := bytes.Index(data, headEnding)
	if headLength == -1 {
		return nil, http.NewParseError(http.IncompleteRequest, "")
	}

	head, rest := data[:headLength], data[headLength+len(headEnding):]
	if !utf8.Valid(head) {
		return nil, http.NewParseError(http.InvalidEncoding, "")
	}

	requestLine, headers, _ := bytes.Cut(head, crlf)
	request, err := parseRequestLine(requestLine)
	if err != nil {
		return nil, err
	}

	contentLength := -1
	request.Headers = make(map[string]string)

	for len(headers) > 0 {
		var line []byte
		line, headers, _ = bytes.Cut(headers, crlf)

		key, value, err := parseHeader(line)
		if err != nil {
			return nil, err
		}

		if strcomp.EqualFold(uf.B2S(key), "content-length") {
			length, err := parseContentLength(value)
			if err != nil {
				return nil, err
			}

			if contentLength != -1 && contentLength != length {
				return nil, http.NewParseError(http.InvalidContentLength, string(value))
			}

			contentLength = length
		}

		request.Headers[string(key)] = string(value)
	}

	if contentLength == -1 {
		return request, nil
	}

	if len(rest) < contentLength {
		return nil, http.NewParseError(http.IncompleteRequest, "")
	}

	// bytes left after the body are dropped: the connection is closed after the
	// response anyway
	request.Body = append(make([]byte, 0, contentLength), rest[:contentLength]...)

	return request, nil
}

func parseRequestLine(line []byte) (*http.Request, error) {
	methodToken, rest, found := bytes.Cut(line, []byte{' '})
	if !found {
		return nil, http.NewParseError(http.InvalidRequest, string(line))
	}

	path, proto, found := bytes.Cut(rest, []byte{' '})
	if !found || len(methodToken) == 0 || len(path) == 0 || len(proto) == 0 ||
		bytes.IndexByte(proto, ' ') != -1 || hasControl(line) {
		return nil, http.NewParseError(http.InvalidRequest, string(line))
	}

	requestMethod := method.Parse(uf.B2S(methodToken))
	if requestMethod == method.Unknown {
		return nil, http.NewParseError(http.InvalidMethod, string(methodToken))
	}

	if !isProto(proto) {
		return nil, http.NewParseError(http.InvalidProtocol, string(proto))
	}

	return &http.Request{
		Method: requestMethod,
		Path:   string(path),
		Proto:  string(proto),
	}, nil
}

// parseHeader splits the line into the name and the value, stripping optional
// whitespaces around the value.
func parseHeader(line []byte) (key, value []byte, err error) {
	key, value, found := bytes.Cut(line, []byte{':'})
	if !found || len(key) == 0 || !isToken(key) {
		return nil, nil, http.NewParseError(http.InvalidHeader, string(line))
	}

	value = bytes.Trim(value, " \t")
	for _, char := range value {
		if char != '\t' && (char < 0x20 || char == 0x7f) {
			return nil, nil, http.NewParseError(http.InvalidHeader, string(line))
		}
	}

	return key, value, nil
}

func parseContentLength(value []byte) (int, error) {
	// unlike Atoi, ParseUint rejects signs
	length, err := strconv.ParseUint(uf.B2S(value), 10, strconv.IntSize-1)
	if err != nil {
		return 0, http.NewParseError(http.InvalidContentLength, string(value))
	}

	return int(length), nil
}

// isProto accepts HTTP/<digit>.<digit>
func isProto(proto []byte) bool {
	return len(proto) == len("HTTP/1.1") &&
		bytes.HasPrefix(proto, []byte("HTTP/")) &&
		isDigit(proto[5]) && proto[6] == '.' && isDigit(proto[7])
}

func isToken(b []byte) bool {
	for _, char := range b {
		if char <= ' ' || char == 0x7f {
			return false
		}
	}

	return true
}

func hasControl(b []byte) bool {
	for _, char := range b {
		if char < 0x20 || char == 0x7f {
			return true
		}
	}

	return false
}

func isDigit(char byte) bool {
	return char >= '0' && char <= '9'
}
