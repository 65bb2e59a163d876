// Package inspect implements a debugging handler, answering every request with
// its own decoded form as JSON.
package inspect

import (
	"github.com/indigo-web/simplehttp/http"
	"github.com/indigo-web/simplehttp/http/status"
	"github.com/indigo-web/utils/strcomp"
)

const hiddenValue = "<hidden>"

type Options struct {
	// HideHeaders lists header names (case-insensitive) whose values are masked.
	HideHeaders []string `mapstructure:"hide_headers"`
}

type Handler struct {
	public string
	hide   []string
}

func New(publicPath string, opts Options) *Handler {
	return &Handler{
		public: publicPath,
		hide:   opts.HideHeaders,
	}
}

type requestDocument struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Proto   string            `json:"proto"`
	Headers map[string]string `json:"headers"`
	Body    *string           `json:"body,omitempty"`
}

type errorDocument struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Token string `json:"token,omitempty"`
}

func (h *Handler) PublicPath() string {
	return h.public
}

func (h *Handler) HandleRequest(request *http.Request) *http.Response {
	doc := requestDocument{
		Method:  request.Method.String(),
		Path:    request.Path,
		Proto:   request.Proto,
		Headers: make(map[string]string, len(request.Headers)),
	}

	for key, value := range request.Headers {
		if h.hidden(key) {
			value = hiddenValue
		}

		doc.Headers[key] = value
	}

	if request.Body != nil {
		body := string(request.Body)
		doc.Body = &body
	}

	return http.NewResponse().JSON(doc)
}

// HandleBadRequest replaces the default plain-text error with a JSON document.
func (h *Handler) HandleBadRequest(err http.ParseError) *http.Response {
	return http.NewResponse().
		Code(status.BadRequest).
		JSON(errorDocument{
			Error: err.Error(),
			Kind:  err.Kind.String(),
			Token: err.Token,
		})
}

func (h *Handler) hidden(key string) bool {
	for _, name := range h.hide {
		if strcomp.EqualFold(name, key) {
			return true
		}
	}

	return false
}
