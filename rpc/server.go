// Package rpc serves a runtime over the Solana JSON-RPC API.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/rentchain/rentchain-go/metrics"
)

const (
	// DefaultMaxBodyBytes is the largest request body the server accepts.
	//
	// Reference: https://github.com/solana-labs/solana/blob/v1.9.5/rpc/src/rpc_service.rs#L49
	DefaultMaxBodyBytes = 50 * 1024

	requestIDHeader = "X-Request-Id"
	unknownMethod   = "unknown"
)

var (
	requestCounterVec = metrics.RegisterCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rentchain",
		Subsystem: "rpc",
		Name:      "requests",
		Help:      "Number of JSON-RPC requests served",
	}, []string{"method", "result"}))

	requestLatencyVec = metrics.RegisterHistogramVec(prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rentchain",
		Subsystem: "rpc",
		Name:      "request_duration_seconds",
		Help:      "Latency of JSON-RPC requests",
		Buckets:   metrics.LatencyBuckets,
	}, []string{"method"}))

	subscriptionGauge = metrics.Register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rentchain",
		Subsystem: "rpc",
		Name:      "log_subscriptions",
		Help:      "Number of active logs subscriptions",
	})).(prometheus.Gauge)

	subscriptionDropCounter = metrics.Register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rentchain",
		Subsystem: "rpc",
		Name:      "log_notifications_dropped",
		Help:      "Number of logs notifications dropped due to slow subscribers",
	})).(prometheus.Counter)
)

type requestIDKey struct{}

// RequestID returns the id assigned to the request carrying ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type opts struct {
	maxBodyBytes         int64
	subscriberBufferSize int
	accessLogging        bool
	allowedOrigins       []string
}

// Option configures a Server.
type Option func(o *opts)

// WithMaxBodyBytes configures the largest request body the server accepts.
func WithMaxBodyBytes(n int64) Option {
	return func(o *opts) {
		o.maxBodyBytes = n
	}
}

// WithSubscriberBufferSize configures the number of messages buffered per
// websocket connection.
func WithSubscriberBufferSize(n int) Option {
	return func(o *opts) {
		o.subscriberBufferSize = n
	}
}

// WithAccessLogging configures whether requests are written to the access
// log at debug level.
func WithAccessLogging(enabled bool) Option {
	return func(o *opts) {
		o.accessLogging = enabled
	}
}

// WithAllowedOrigins configures the origins allowed by CORS and by websocket
// upgrades. If unset, all origins are allowed.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *opts) {
		o.allowedOrigins = origins
	}
}

// Server serves a Ledger over HTTP JSON-RPC, and streams its logs over
// websockets.
type Server struct {
	log      *logrus.Entry
	ledger   Ledger
	opts     opts
	handlers map[string]handler
	hub      *hub
	upgrader websocket.Upgrader

	accessLog *io.PipeWriter
}

// New returns a Server for ledger. The server subscribes to the ledger's
// committed transactions for the lifetime of the ledger.
func New(ledger Ledger, options ...Option) *Server {
	o := opts{
		maxBodyBytes:         DefaultMaxBodyBytes,
		subscriberBufferSize: DefaultSubscriberBufferSize,
	}
	for _, opt := range options {
		opt(&o)
	}

	s := &Server{
		log:    logrus.StandardLogger().WithField("type", "rpc"),
		ledger: ledger,
		opts:   o,
		hub:    newHub(),
	}
	s.handlers = s.methods()
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	if o.accessLogging {
		s.accessLog = logrus.StandardLogger().WithField("type", "rpc/access").WriterLevel(logrus.DebugLevel)
	}

	ledger.AddListener(s.hub)

	return s
}

// Register installs the server's routes on r.
func (s *Server) Register(r *mux.Router) {
	r.Use(s.requestIDMiddleware)
	r.HandleFunc("/", s.serveHTTP).Methods(http.MethodPost)
	r.HandleFunc("/health", s.serveHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebsocket).Methods(http.MethodGet)
}

// Handler returns a standalone handler serving the server's routes.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.Register(r)

	var h http.Handler = r
	if len(s.opts.allowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.opts.allowedOrigins),
			handlers.AllowedMethods([]string{http.MethodPost, http.MethodGet}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(h)
	}

	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(s.log),
		handlers.PrintRecoveryStack(true),
	)(h)

	if s.accessLog != nil {
		h = handlers.CombinedLoggingHandler(s.accessLog, h)
	}

	return h
}

// Close closes all websocket connections.
func (s *Server) Close() {
	s.hub.close()
	if s.accessLog != nil {
		_ = s.accessLog.Close()
	}
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.opts.allowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.opts.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}

	return false
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

// serveHTTP serves single and batched JSON-RPC requests. Errors are
// reported in the response body; the HTTP status is always 200.
func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	log := s.log.WithField("request_id", RequestID(r.Context()))

	var out interface{}

	body, err := ioutil.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.maxBodyBytes))
	if err != nil {
		out = errorResponse(nil, &Error{Code: CodeInvalidRequest, Message: "Invalid request: body too large"})
	} else if body = bytes.TrimSpace(body); len(body) > 0 && body[0] == '[' {
		out = s.handleBatch(r.Context(), log, body)
	} else {
		out = s.handle(r.Context(), log, body)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.WithError(err).Debug("failed to write response")
	}
}

func (s *Server) handleBatch(ctx context.Context, log *logrus.Entry, body []byte) interface{} {
	var batch []json.RawMessage
	if err := json.Unmarshal(body, &batch); err != nil {
		return errorResponse(nil, &Error{Code: CodeParseError, Message: "Parse error"})
	}
	if len(batch) == 0 {
		return errorResponse(nil, &Error{Code: CodeInvalidRequest, Message: "Invalid request: empty batch"})
	}

	responses := make([]*response, len(batch))
	for i, raw := range batch {
		responses[i] = s.handle(ctx, log, raw)
	}

	return responses
}

func (s *Server) handle(ctx context.Context, log *logrus.Entry, raw []byte) *response {
	if !json.Valid(raw) {
		requestCounterVec.WithLabelValues(unknownMethod, "failure").Inc()
		return errorResponse(nil, &Error{Code: CodeParseError, Message: "Parse error"})
	}

	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		requestCounterVec.WithLabelValues(unknownMethod, "failure").Inc()
		return errorResponse(nil, &Error{Code: CodeInvalidRequest, Message: "Invalid request"})
	}
	if err := req.validate(); err != nil {
		requestCounterVec.WithLabelValues(unknownMethod, "failure").Inc()
		return errorResponse(req.ID, err)
	}

	h, ok := s.handlers[req.Method]
	if !ok {
		requestCounterVec.WithLabelValues(unknownMethod, "failure").Inc()
		return errorResponse(req.ID, &Error{Code: CodeMethodNotFound, Message: "Method not found"})
	}

	start := time.Now()
	defer func() {
		requestLatencyVec.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
	}()

	resp := newResponse(req.ID)

	p, err := parseParams(req.Params)
	if err != nil {
		requestCounterVec.WithLabelValues(req.Method, "failure").Inc()
		resp.Error = invalidParams("Invalid params: %v", err)
		return resp
	}

	result, err := h(ctx, p)
	if err == nil {
		resp.Result, err = json.Marshal(result)
	}
	if err != nil {
		if _, ok := err.(*Error); !ok {
			log.WithError(err).WithField("method", req.Method).Warn("rpc method failed")
		}

		requestCounterVec.WithLabelValues(req.Method, "failure").Inc()
		resp.Result = nil
		resp.Error = toError(err)
		return resp
	}

	requestCounterVec.WithLabelValues(req.Method, "success").Inc()
	return resp
}

// toError returns err as a JSON-RPC error, hiding the details of errors
// that are not already JSON-RPC errors.
func toError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Code: CodeInternalError, Message: "Internal error"}
}
