package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// --- Colors ---
var (
	colorRed    = paint(color.FgRed)
	colorGreen  = paint(color.FgGreen)
	colorYellow = paint(color.FgYellow)
	colorBlue   = paint(color.FgBlue)
	colorCyan   = paint(color.FgCyan)
)

// paint forces the escape codes on; WithColor decides whether they are used,
// not the terminal detection of the color package.
func paint(attr color.Attribute) *color.Color {
	c := color.New(attr)
	c.EnableColor()
	return c
}

type HandlerFunc func(http.ResponseWriter, *http.Request)

type route struct {
	method   string
	pattern  string
	segments []string
	handler  HandlerFunc
}

type Router struct {
	mux    *http.ServeMux
	routes map[string]HandlerFunc // key = METHOD:PATH, exact routes only
	order  []route                // wildcard routes in registration order
	paths  map[string]bool
	logger *zap.Logger
	color  bool
}

type Option func(*Router)

func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithColor toggles ANSI colors in the request log message
func WithColor(enabled bool) Option {
	return func(r *Router) { r.color = enabled }
}

func New(opts ...Option) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		routes: make(map[string]HandlerFunc),
		paths:  make(map[string]bool),
		logger: zap.NewNop(),
		color:  true,
	}
	for _, opt := range opts {
		opt(r)
	}

	// Catch-all handler dispatching the registered routes
	r.mux.Handle("/", r.logged(http.HandlerFunc(r.dispatch)))
	return r
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	if h, ok := r.routes[req.Method+":"+req.URL.Path]; ok {
		h(w, req)
		return
	}

	requestSegments := splitPath(req.URL.Path)
	pathExists := r.paths[req.URL.Path]
	for _, rt := range r.order {
		params, ok := matchSegments(requestSegments, rt.segments)
		if !ok {
			continue
		}
		if rt.method != req.Method {
			pathExists = true
			continue
		}
		rt.handler(w, req.WithContext(context.WithValue(req.Context(), paramsKey{}, params)))
		return
	}

	if pathExists {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	http.Error(w, "Not Found", http.StatusNotFound)
}

type paramsKey struct{}

// Params returns the path segments matched by the wildcards of the route, in
// order. A trailing "**" yields the remaining path joined by "/".
func Params(req *http.Request) []string {
	params, _ := req.Context().Value(paramsKey{}).([]string)
	return params
}

// Param returns the i-th wildcard value, or "" when there is none
func Param(req *http.Request, i int) string {
	params := Params(req)
	if i < 0 || i >= len(params) {
		return ""
	}
	return params[i]
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

// matchSegments checks a request path against a route pattern and collects
// the wildcard values. "*" matches one segment, a trailing "**" matches the
// rest of the path.
func matchSegments(requestSegments, routeSegments []string) ([]string, bool) {
	var params []string

	n := len(routeSegments)
	rest := n > 0 && routeSegments[n-1] == "**"
	if rest {
		if len(requestSegments) < n {
			return nil, false
		}
		n--
	} else if len(requestSegments) != n {
		return nil, false
	}

	for i := 0; i < n; i++ {
		if routeSegments[i] == "*" {
			if requestSegments[i] == "" {
				return nil, false
			}
			params = append(params, requestSegments[i])
			continue
		}
		if requestSegments[i] != routeSegments[i] {
			return nil, false
		}
	}
	if rest {
		params = append(params, strings.Join(requestSegments[n:], "/"))
	}
	return params, true
}

// --- Register paths ---
func (r *Router) register(method, path string, handler HandlerFunc) {
	r.paths[path] = true
	if !strings.Contains(path, "*") {
		r.routes[method+":"+path] = handler
		return
	}
	r.order = append(r.order, route{
		method:   method,
		pattern:  path,
		segments: splitPath(path),
		handler:  handler,
	})
}

func (r *Router) GET(path string, handler HandlerFunc)   { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)  { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)   { r.register(http.MethodPut, path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc) { r.register(http.MethodPatch, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Mount serves a prefix with a plain handler, still through the request log
func (r *Router) Mount(prefix string, h http.Handler) {
	r.mux.Handle(prefix, r.logged(h))
}

// Routes lists the registered patterns as METHOD:PATH
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.routes)+len(r.order))
	for key := range r.routes {
		out = append(out, key)
	}
	for _, rt := range r.order {
		out = append(out, rt.method+":"+rt.pattern)
	}
	return out
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Server builds an http.Server for addr around the router
func (r *Router) Server(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (r *Router) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, req)

		duration := time.Since(start)
		r.logger.Info(r.requestLine(req.Method, req.URL.Path, lrw.statusCode, duration),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", lrw.statusCode),
			zap.Duration("duration", duration),
		)
	})
}

func (r *Router) requestLine(method, path string, status int, duration time.Duration) string {
	if !r.color {
		return fmt.Sprintf("%s %s %d (%v)", method, path, status, duration)
	}
	return fmt.Sprintf("%s %s %s %s",
		methodColor(method).Sprint(method),
		path,
		statusColor(status).Sprint(status),
		colorBlue.Sprintf("(%v)", duration),
	)
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// --- Color helpers ---
func statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	default:
		return colorRed
	}
}

func methodColor(method string) *color.Color {
	switch method {
	case http.MethodGet:
		return colorGreen
	case http.MethodPost:
		return colorBlue
	case http.MethodPut, http.MethodPatch:
		return colorYellow
	case http.MethodDelete:
		return colorRed
	default:
		return colorCyan
	}
}
