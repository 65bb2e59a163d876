package http

import (
	"github.com/indigo-web/simplehttp/http/status"
	"github.com/indigo-web/simplehttp/internal/response"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// Response is a builder of the status code and the body. Every response is
// serialized with a single Content-Length header, which is computed from the body,
// so there's deliberately no way to set headers.
type Response struct {
	fields *response.Fields
}

// NewResponse returns a new instance of the Response object with status code set to 200 OK
// and no body.
func NewResponse() *Response {
	fields := response.Fields{}.Clear()

	return &Response{
		fields: &fields,
	}
}

// Code sets a Response code. Codes without a registered reason phrase are rendered
// with an empty one.
func (r *Response) Code(code status.Code) *Response {
	r.fields.Code = code
	return r
}

// String sets the response's body to the passed string
func (r *Response) String(body string) *Response {
	return r.Bytes(uf.S2B(body))
}

// Bytes sets the response's body to passed slice WITHOUT COPYING. Changing
// the passed slice later will affect the response by itself
func (r *Response) Bytes(body []byte) *Response {
	r.fields.Body = body
	return r
}

// Write implements io.Writer interface. It always returns n=len(b) and err=nil
func (r *Response) Write(b []byte) (n int, err error) {
	r.fields.Body = append(r.fields.Body, b...)
	return len(b), nil
}

// TryJSON receives a model (must be a pointer to the structure) and returns a new Response
// object and an error
func (r *Response) TryJSON(model any) (*Response, error) {
	// the body may be backed by a string, so it must not be reused
	r.fields.Body = nil
	stream := json.ConfigDefault.BorrowStream(r)
	stream.WriteVal(model)
	err := stream.Flush()
	json.ConfigDefault.ReturnStream(stream)

	return r, err
}

// JSON does the same as TryJSON does, except returned error is being implicitly wrapped
// by Error
func (r *Response) JSON(model any) *Response {
	resp, err := r.TryJSON(model)
	if err != nil {
		return r.Error(err)
	}

	return resp
}

// Error returns a response builder with an error set. If passed err is nil, nothing will happen.
// If an instance of status.HTTPError is passed, error code will be automatically set. Custom
// codes can be passed, however only first will be used. By default, the error is
// status.ErrInternalServerError
func (r *Response) Error(err error, code ...status.Code) *Response {
	if err == nil {
		return r
	}

	if http, ok := err.(status.HTTPError); ok {
		return r.
			Code(http.Code).
			String(http.Message)
	}

	c := status.InternalServerError
	if len(code) > 0 {
		// peek the first, ignore the rest
		c = code[0]
	}

	return r.
		Code(c).
		String(err.Error())
}

// Reveal returns a struct with values, filled by builder. Used mostly in internal purposes
func (r *Response) Reveal() response.Fields {
	return *r.fields
}

// Clear discards everything was done with Response object before
func (r *Response) Clear() *Response {
	*r.fields = r.fields.Clear()
	return r
}
