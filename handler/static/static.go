// Package static serves files from a public directory.
package static

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/indigo-web/simplehttp/http"
	"github.com/indigo-web/simplehttp/http/method"
	"github.com/indigo-web/simplehttp/http/status"
)

const (
	defaultIndex       = "index.html"
	defaultMaxFileSize = 10 << 20
)

// errFileTooLarge is answered with 500. Files are read into memory at once,
// and the response buffer grows to the largest response ever sent.
var errFileTooLarge = errors.New("file exceeds the size limit")

type Options struct {
	// Index is the file served for the root and for directories.
	Index string `mapstructure:"index"`
	// MaxFileSize caps the size of served files in bytes. Defaults to 10MiB.
	MaxFileSize int64 `mapstructure:"max_file_size"`
}

type Handler struct {
	public      string
	fsys        fs.FS
	index       string
	maxFileSize int64
}

// New returns a handler serving files from the directory at publicPath.
func New(publicPath string, opts Options) (*Handler, error) {
	info, err := os.Stat(publicPath)
	if err != nil {
		return nil, fmt.Errorf("public path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("public path: %s is not a directory", publicPath)
	}

	return NewFS(publicPath, os.DirFS(publicPath), opts)
}

// NewFS serves files from fsys. The publicPath is only reported.
func NewFS(publicPath string, fsys fs.FS, opts Options) (*Handler, error) {
	index := opts.Index
	if index == "" {
		index = defaultIndex
	}

	if !fs.ValidPath(index) {
		return nil, fmt.Errorf("index: invalid file name %q", index)
	}

	maxFileSize := opts.MaxFileSize
	switch {
	case maxFileSize == 0:
		maxFileSize = defaultMaxFileSize
	case maxFileSize < 0:
		return nil, fmt.Errorf("max_file_size: must be positive, got %d", maxFileSize)
	}

	return &Handler{
		public:      publicPath,
		fsys:        fsys,
		index:       index,
		maxFileSize: maxFileSize,
	}, nil
}

func (h *Handler) PublicPath() string {
	return h.public
}

func (h *Handler) HandleRequest(request *http.Request) *http.Response {
	response := http.NewResponse()

	if request.Method != method.GET && request.Method != method.HEAD {
		return response.Error(status.ErrMethodNotAllowed)
	}

	name, ok := h.resolve(request.Path)
	if !ok {
		return response.Error(status.ErrNotFound)
	}

	content, err := h.read(name)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrInvalid):
		return response.Error(status.ErrNotFound)
	case errors.Is(err, fs.ErrPermission):
		return response.Error(status.ErrForbidden)
	default:
		return response.Error(status.ErrInternalServerError)
	}

	if request.Method == method.HEAD {
		return response
	}

	return response.Bytes(content)
}

// resolve maps the request path onto a name inside the public directory. Paths
// escaping the directory are rejected.
func (h *Handler) resolve(requestPath string) (string, bool) {
	requestPath, _, _ = strings.Cut(requestPath, "?")
	requestPath, _, _ = strings.Cut(requestPath, "#")

	decoded, err := url.PathUnescape(requestPath)
	if err != nil || !strings.HasPrefix(decoded, "/") {
		return "", false
	}

	name := strings.TrimPrefix(decoded, "/")
	switch {
	case len(name) == 0:
		return h.index, true
	case strings.HasSuffix(name, "/"):
		name += h.index
	}

	return name, fs.ValidPath(name)
}

func (h *Handler) read(name string) ([]byte, error) {
	info, err := fs.Stat(h.fsys, name)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		name = path.Join(name, h.index)
		if info, err = fs.Stat(h.fsys, name); err != nil {
			return nil, err
		}
	}

	if info.Size() > h.maxFileSize {
		return nil, errFileTooLarge
	}

	return fs.ReadFile(h.fsys, name)
}
