package httptest

import (
	"fmt"
	"strconv"
	"strings"
)

// Response is a raw response as it was seen by a client. Used to check what the
// server actually transmitted.
type Response struct {
	Proto   string
	Status  string
	Headers map[string]string
	Body    string
	Code    int
}

// ParseResponse decodes a response of the form the server renders. The body is
// required to be exactly as long as stated by Content-Length.
func ParseResponse(raw string) (response Response, err error) {
	var found bool
	response.Headers = make(map[string]string)

	response.Proto, raw, found = strings.Cut(raw, " ")
	if !found || len(raw) == 0 {
		return response, fmt.Errorf("bad response line: lacking code and status")
	}

	var code string
	code, raw, found = strings.Cut(raw, " ")
	if !found {
		return response, fmt.Errorf("bad response line: lacking status")
	}

	response.Code, err = strconv.Atoi(code)
	if err != nil {
		return response, err
	}

	response.Status, raw, found = strings.Cut(raw, "\r\n")
	if !found {
		return response, fmt.Errorf("bad response: only response line is presented")
	}

	for {
		var headerLine string
		headerLine, raw, found = strings.Cut(raw, "\r\n")
		if !found {
			return response, fmt.Errorf("bad header line %q: no breaking CRLF", headerLine)
		}

		if len(headerLine) == 0 {
			break
		}

		key, value, found := strings.Cut(headerLine, ": ")
		if !found {
			return response, fmt.Errorf("bad header %q: no value", headerLine)
		}

		if _, duplicate := response.Headers[key]; duplicate {
			return response, fmt.Errorf("duplicate header %q", key)
		}

		response.Headers[key] = value
	}

	contentLength, found := response.Headers["Content-Length"]
	if !found {
		return response, fmt.Errorf("bad response: no Content-Length")
	}

	length, err := strconv.Atoi(contentLength)
	if err != nil {
		return response, err
	}

	if len(raw) != length {
		return response, fmt.Errorf("bad response: Content-Length is %d, body is %d", length, len(raw))
	}

	response.Body = raw

	return response, nil
}
