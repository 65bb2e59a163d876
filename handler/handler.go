package handler

import (
	"github.com/indigo-web/simplehttp/http"
	"github.com/indigo-web/simplehttp/http/status"
)

// Handler produces a response for every successfully decoded request. It is
// called from the accept loop itself, so a slow handler holds back all the
// following connections.
type Handler interface {
	HandleRequest(request *http.Request) *http.Response
	// PublicPath is the directory the handler serves from. It's informational
	// and is only logged on startup.
	PublicPath() string
}

// BadRequestHandler may be additionally implemented by a Handler in order to
// override the response sent when a request couldn't be decoded.
type BadRequestHandler interface {
	HandleBadRequest(err http.ParseError) *http.Response
}

// BadRequest is the default response to a malformed request: 400 Bad Request
// with the error message as a body.
func BadRequest(err http.ParseError) *http.Response {
	return http.NewResponse().
		Code(status.BadRequest).
		String(err.Error())
}

// Func turns a plain function into a Handler.
func Func(publicPath string, fn func(*http.Request) *http.Response) Handler {
	return funcHandler{
		publicPath: publicPath,
		fn:         fn,
	}
}

type funcHandler struct {
	publicPath string
	fn         func(*http.Request) *http.Response
}

func (f funcHandler) HandleRequest(request *http.Request) *http.Response {
	return f.fn(request)
}

func (f funcHandler) PublicPath() string {
	return f.publicPath
}
