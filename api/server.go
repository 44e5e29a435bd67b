// Package api serves the device HTTP API with fasthttp.
//
// Connections are handled on fasthttp goroutines, but every endpoint handler
// runs on the loop goroutine: the request is copied and handed over with
// System.Dispatch, so handlers may use the System without locking. The
// Server is itself a component and follows the link: it listens from the
// Reconnected edge until the Disconnecting edge.
package api

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/lixenwraith/iotcore"
	"github.com/lixenwraith/iotcore/compat"
	"github.com/lixenwraith/iotcore/formatter"
	"github.com/lixenwraith/iotcore/log"
	"github.com/lixenwraith/iotcore/timing"
)

const (
	// DefaultAddress is the default listen address
	DefaultAddress = ":8080"
	// DefaultTimeoutMs bounds the wait for the loop goroutine
	DefaultTimeoutMs = 5000
	// MetricsPath serves Prometheus metrics when a gatherer is set
	MetricsPath = "/metrics"

	allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
	callSamples    = 10
	maxBodySize    = 16 * 1024
)

// ListenFunc opens the listener for an address.
type ListenFunc func(address string) (net.Listener, error)

// Server is the HTTP API component, named "api".
type Server struct {
	system *iotcore.System
	logger log.Logger
	async  log.Logger
	listen ListenFunc

	address   string
	cors      atomic.Bool
	timeoutMs atomic.Uint32

	providers []Provider
	router    *router.Router
	endpoints int
	metrics   fasthttp.RequestHandler

	http      *fasthttp.Server
	calls     *timing.Statistics
	served    uint64
	rejected  atomic.Uint64
	listening bool
}

// Option configures a Server.
type Option func(*Server)

// WithAddress sets the listen address.
func WithAddress(address string) Option {
	return func(s *Server) {
		s.address = address
	}
}

// WithListen replaces net.Listen, e.g. with an in-memory listener.
func WithListen(listen ListenFunc) Option {
	return func(s *Server) {
		if listen != nil {
			s.listen = listen
		}
	}
}

// WithMetrics serves gatherer on MetricsPath. Scrapes do not go through the
// loop goroutine.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
}

// WithRequestTimeout bounds how long a request waits for the loop goroutine.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if ms := d.Milliseconds(); ms > 0 {
			s.timeoutMs.Store(uint32(ms))
		}
	}
}

// NewServer creates the API component for system.
func NewServer(system *iotcore.System, opts ...Option) *Server {
	s := &Server{
		system:  system,
		logger:  system.Logger("api"),
		address: DefaultAddress,
		calls:   timing.New(callSamples, system.Clock()),
		listen: func(address string) (net.Listener, error) {
			return net.Listen("tcp", address)
		},
	}
	s.async = s.logger.Async()
	s.cors.Store(true)
	s.timeoutMs.Store(DefaultTimeoutMs)
	for _, opt := range opts {
		opt(s)
	}

	s.router = router.New()
	s.router.GlobalOPTIONS = options
	s.router.NotFound = notFound
	s.router.MethodNotAllowed = methodNotAllowed
	if s.metrics != nil {
		s.router.GET(MetricsPath, s.metrics)
	}
	return s
}

// AddProvider registers a group of endpoints. Providers are set up with the
// component.
func (s *Server) AddProvider(p Provider) {
	s.providers = append(s.providers, p)
}

// On registers handler for method and pattern. A {name} segment captures one
// path segment, read back with Request.Param. Endpoints must be registered
// before the server first listens; a conflicting pattern panics.
func (s *Server) On(method, pattern string, handler HandlerFunc) {
	s.router.Handle(method, pattern, s.bridge(handler))
	s.endpoints++
}

// Name implements iotcore.Component.
func (s *Server) Name() string {
	return "api"
}

// Configure accepts "address" (applied at the next connect), "cors" and
// "timeout_ms".
func (s *Server) Configure(name, value string) bool {
	switch name {
	case "address":
		if value == "" {
			return false
		}
		s.address = value
	case "cors":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return false
		}
		s.cors.Store(enabled)
	case "timeout_ms":
		ms, err := strconv.ParseUint(value, 10, 32)
		if err != nil || ms == 0 {
			return false
		}
		s.timeoutMs.Store(uint32(ms))
	default:
		return false
	}
	return true
}

// GetConfig implements iotcore.Component.
func (s *Server) GetConfig(writer iotcore.ConfigWriter) {
	writer("address", s.address)
	writer("cors", strconv.FormatBool(s.cors.Load()))
	writer("timeout_ms", formatter.FormatInt(s.timeoutMs.Load()))
}

// GetDiagnostics reports the call timing of recent requests.
func (s *Server) GetDiagnostics(collector iotcore.DiagnosticsCollector) {
	collector.AddValue("listening", strconv.FormatBool(s.listening))
	collector.AddValue("served", formatter.FormatInt(s.served))
	collector.AddValue("rejected", formatter.FormatInt(s.rejected.Load()))
	iotcore.AddTimingValues(collector, "call", s.calls)
}

// Setup registers the endpoints of every provider.
func (s *Server) Setup(bool) {
	for _, p := range s.providers {
		p.SetupAPI(s)
	}
	s.logger.Debug("%d endpoints registered.", s.endpoints)
}

// Loop starts listening on the Reconnected edge and shuts down on the
// Disconnecting edge. Requests themselves are served at yield points.
func (s *Server) Loop(status iotcore.ConnectionStatus) {
	switch status {
	case iotcore.Reconnected:
		s.begin()
	case iotcore.Disconnecting:
		s.close()
	}
}

// Listening reports whether the server accepts connections.
func (s *Server) Listening() bool {
	return s.listening
}

// Close shuts the server down and waits for open connections.
func (s *Server) Close() error {
	srv := s.http
	s.http = nil
	s.listening = false
	if srv == nil {
		return nil
	}
	return srv.Shutdown()
}

func (s *Server) begin() {
	if s.http != nil {
		return
	}
	ln, err := s.listen(s.address)
	if err != nil {
		s.logger.Error("Failed to listen on %s: %v", s.address, err)
		return
	}

	srv := &fasthttp.Server{
		Handler:            s.handle,
		Name:               "iotcore",
		Logger:             compat.NewFastHTTPAdapter(s.async),
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: maxBodySize,
		CloseOnShutdown:    true,
	}
	s.http = srv
	s.listening = true

	go func() {
		if err := srv.Serve(ln); err != nil {
			s.async.Error("Server stopped: %v", err)
		}
	}()
	s.logger.Info("Listening on %s.", ln.Addr())
}

// close shuts down in the background: Shutdown waits for handlers, and
// handlers wait for the loop goroutine.
func (s *Server) close() {
	srv := s.http
	if srv == nil {
		return
	}
	s.http = nil
	s.listening = false

	go func() {
		if err := srv.Shutdown(); err != nil {
			s.async.Error("Shutdown failed: %v", err)
		}
	}()
	s.logger.Info("Closed.")
}

// handle runs on fasthttp goroutines.
func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	if s.cors.Load() {
		ctx.Response.Header.Set("Access-Control-Allow-Origin", "*")
	}
	s.router.Handler(ctx)
}

// bridge copies the request and runs handler on the loop goroutine. A job
// that reaches the loop after the request gave up is skipped, so a client
// answered 503 never sees its request applied.
func (s *Server) bridge(handler HandlerFunc) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		req := &Request{
			Method: string(ctx.Method()),
			Path:   string(ctx.Path()),
			Params: pathParams(ctx),
			Body:   bytes.Clone(ctx.PostBody()),
		}
		resp := newResponse()

		var claimed atomic.Bool
		done := make(chan struct{})
		wait, cancel := context.WithTimeout(ctx, time.Duration(s.timeoutMs.Load())*time.Millisecond)
		defer cancel()

		err := s.system.Dispatch(wait, func() {
			if !claimed.CompareAndSwap(false, true) {
				return
			}
			defer close(done)
			s.serve(handler, req, resp)
		})
		if err != nil && claimed.CompareAndSwap(false, true) {
			s.rejected.Add(1)
			s.async.Warn("%s %s not served: %v", req.Method, req.Path, err)
			fail(ctx, fasthttp.StatusServiceUnavailable)
			return
		}
		<-done

		ctx.SetStatusCode(resp.code)
		for _, h := range resp.headers {
			ctx.Response.Header.Set(h[0], h[1])
		}
		if resp.body.Len() > 0 {
			ctx.SetContentType(resp.contentType)
			ctx.SetBody(resp.body.Bytes())
		}
	}
}

// serve runs on the loop goroutine.
func (s *Server) serve(handler HandlerFunc, req *Request, resp *Response) {
	s.calls.Start()
	handler(req, resp)
	s.calls.Stop()
	s.served++
	s.logger.Debug("%s %s %d", req.Method, req.Path, resp.code)
}

// pathParams collects the segments captured by the router.
func pathParams(ctx *fasthttp.RequestCtx) map[string]string {
	var params map[string]string
	ctx.VisitUserValues(func(key []byte, value any) {
		if v, ok := value.(string); ok {
			if params == nil {
				params = make(map[string]string)
			}
			params[string(key)] = v
		}
	})
	return params
}

// options is the generic reply to make "pre-flight" checks work, for known
// and unknown paths alike.
func options(ctx *fasthttp.RequestCtx) {
	ctx.Response.Header.Set("Access-Control-Allow-Methods", allowedMethods)
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func notFound(ctx *fasthttp.RequestCtx) {
	if ctx.IsOptions() {
		options(ctx)
		return
	}
	fail(ctx, fasthttp.StatusNotFound)
}

func methodNotAllowed(ctx *fasthttp.RequestCtx) {
	fail(ctx, fasthttp.StatusMethodNotAllowed)
}

// fail answers with the status text, keeping headers already set.
func fail(ctx *fasthttp.RequestCtx, status int) {
	ctx.SetStatusCode(status)
	ctx.SetContentType(ContentTypeText)
	ctx.SetBodyString(fasthttp.StatusMessage(status))
}
