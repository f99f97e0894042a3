package testutil

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rentchain/rentchain-go/netutil"
)

// Server provides a local HTTP server that can be used for testing with no
// external dependencies.
type Server struct {
	closeFunc sync.Once

	sync.Mutex
	serv       bool
	url        string
	listener   net.Listener
	router     *mux.Router
	httpServer *http.Server
}

// NewServer creates a new Server listening on a free local port. The returned
// URL is the server's base URL.
func NewServer(opts ...ServerOption) (string, *Server, error) {
	port, err := netutil.GetAvailablePortForAddress("localhost")
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to find free port")
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return "", nil, errors.Wrapf(err, "failed to start listener")
	}

	var o serverOpts
	for _, opt := range opts {
		opt(&o)
	}

	r := mux.NewRouter()
	for _, m := range o.middleware {
		r.Use(m)
	}

	s := &Server{
		url:        fmt.Sprintf("http://localhost:%d", port),
		listener:   listener,
		router:     r,
		httpServer: &http.Server{Handler: r},
	}

	return s.url, s, nil
}

// RegisterHandlers registers HTTP handlers with Server.
func (s *Server) RegisterHandlers(registerFunc func(r *mux.Router)) {
	registerFunc(s.router)
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return s.url
}

// Serve asynchronously starts the server, provided it has not been previously
// started or stopped. Callers should use stopFunc to stop the server in order
// to cleanup the underlying resources.
func (s *Server) Serve() (stopFunc func(), err error) {
	s.Lock()
	defer s.Unlock()

	if s.serv {
		return
	}

	if s.httpServer == nil {
		return nil, errors.Errorf("testserver already stopped")
	}

	stopFunc = func() {
		s.closeFunc.Do(func() {
			s.Lock()
			defer s.Unlock()

			s.httpServer.Close()
			s.listener.Close()
			s.httpServer = nil
			s.listener = nil
		})
	}

	go func() {
		s.Lock()
		lis := s.listener
		serv := s.httpServer
		s.Unlock()

		if lis == nil || serv == nil {
			return
		}

		err := serv.Serve(lis)
		logrus.
			StandardLogger().
			WithField("type", "testutil/server").
			WithError(err).
			Debug("stopped")
		stopFunc()
	}()

	s.serv = true
	return stopFunc, nil
}
