package rpc

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/rentchain/rentchain-go/runtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024

	// DefaultSubscriberBufferSize is the number of messages buffered per
	// connection before notifications to it are dropped.
	DefaultSubscriberBufferSize = 256
)

// logsFilter selects the transactions a logs subscription is notified of.
// A nil mentions key matches every transaction.
type logsFilter struct {
	mentions ed25519.PublicKey
}

func (f logsFilter) matches(record *runtime.TransactionRecord) bool {
	return f.mentions == nil || mentions(record, f.mentions)
}

func parseLogsFilter(p params) (logsFilter, error) {
	if len(p) == 0 {
		return logsFilter{}, invalidParams("Invalid params: missing filter")
	}

	raw := bytes.TrimSpace(p[0])
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := p.decode(0, &s); err != nil {
			return logsFilter{}, err
		}
		switch s {
		case "all", "allWithVotes":
			return logsFilter{}, nil
		default:
			return logsFilter{}, invalidParams("Invalid params: unknown filter %q", s)
		}
	}

	var f struct {
		Mentions []string `json:"mentions"`
	}
	if err := p.decode(0, &f); err != nil {
		return logsFilter{}, err
	}
	if len(f.Mentions) != 1 {
		return logsFilter{}, invalidParams("Invalid Request: Only 1 address supported")
	}

	key, err := decodePublicKey(f.Mentions[0])
	if err != nil {
		return logsFilter{}, err
	}

	return logsFilter{mentions: key}, nil
}

type subscription struct {
	id     uint64
	filter logsFilter
	conn   *wsConn
}

// hub fans committed transactions out to logs subscriptions.
type hub struct {
	log    *logrus.Entry
	nextID uint64

	mu            sync.RWMutex
	subscriptions map[uint64]*subscription
	conns         map[*wsConn]struct{}
}

func newHub() *hub {
	return &hub{
		log:           logrus.StandardLogger().WithField("type", "rpc/websocket"),
		subscriptions: make(map[uint64]*subscription),
		conns:         make(map[*wsConn]struct{}),
	}
}

// OnTransaction implements runtime.Listener.
func (h *hub) OnTransaction(record *runtime.TransactionRecord) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscriptions {
		if !sub.filter.matches(record) {
			continue
		}

		b, err := logsNotification(sub.id, record)
		if err != nil {
			h.log.WithError(err).Warn("failed to marshal logs notification")
			continue
		}

		if !sub.conn.send(b) {
			subscriptionDropCounter.Inc()
			h.log.WithField("subscription", sub.id).Debug("subscriber buffer full, dropping notification")
		}
	}
}

func logsNotification(id uint64, record *runtime.TransactionRecord) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"jsonrpc": version,
		"method":  "logsNotification",
		"params": map[string]interface{}{
			"result": contextValue{
				Context: rpcContext{Slot: record.Slot},
				Value: map[string]interface{}{
					"signature": record.Signature.String(),
					"err":       errorValue(record.Err),
					"logs":      nonNilLogs(record.Logs),
				},
			},
			"subscription": id,
		},
	})
}

// subscribe allocates a subscription id. The subscription receives no
// notifications until activate is called.
func (h *hub) subscribe(c *wsConn, filter logsFilter) (id uint64, activate func()) {
	id = atomic.AddUint64(&h.nextID, 1) - 1

	return id, func() {
		h.mu.Lock()
		h.subscriptions[id] = &subscription{id: id, filter: filter, conn: c}
		h.mu.Unlock()

		subscriptionGauge.Inc()
	}
}

func (h *hub) unsubscribe(c *wsConn, id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.subscriptions[id]
	if !ok || sub.conn != c {
		return false
	}

	delete(h.subscriptions, id)
	subscriptionGauge.Dec()
	return true
}

func (h *hub) register(c *wsConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) unregister(c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, c)
	for id, sub := range h.subscriptions {
		if sub.conn == c {
			delete(h.subscriptions, id)
			subscriptionGauge.Dec()
		}
	}
}

func (h *hub) close() {
	h.mu.RLock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.close()
	}
}

// wsConn is a single websocket connection. All writes happen on the
// connection's write loop.
type wsConn struct {
	log  *logrus.Entry
	hub  *hub
	conn *websocket.Conn

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *wsConn) send(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.out <- b:
		return true
	default:
		return false
	}
}

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *wsConn) readLoop() {
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithError(err).Debug("websocket closed unexpectedly")
			}
			return
		}

		c.process(msg)
	}
}

// process handles msg and queues its response. Subscriptions are activated
// only once their response is queued.
func (c *wsConn) process(msg []byte) {
	resp, activate := c.handle(msg)

	b, err := json.Marshal(resp)
	if err != nil {
		c.log.WithError(err).Warn("failed to marshal websocket response")
		return
	}
	if !c.send(b) {
		c.log.Debug("subscriber buffer full, dropping response")
		return
	}

	if activate != nil {
		activate()
	}
}

func (c *wsConn) handle(msg []byte) (resp *response, activate func()) {
	var req request
	if err := json.Unmarshal(msg, &req); err != nil {
		return errorResponse(nil, &Error{Code: CodeParseError, Message: "Parse error"}), nil
	}
	if err := req.validate(); err != nil {
		return errorResponse(req.ID, err), nil
	}

	p, err := parseParams(req.Params)
	if err != nil {
		return errorResponse(req.ID, invalidParams("Invalid params: %v", err)), nil
	}

	var result interface{}
	switch req.Method {
	case "logsSubscribe":
		filter, err := parseLogsFilter(p)
		if err != nil {
			return errorResponse(req.ID, toError(err)), nil
		}
		result, activate = c.hub.subscribe(c, filter)
	case "logsUnsubscribe":
		var id uint64
		if err := p.require(0, &id); err != nil {
			return errorResponse(req.ID, toError(err)), nil
		}
		if !c.hub.unsubscribe(c, id) {
			return errorResponse(req.ID, invalidParams("Invalid subscription id.")), nil
		}
		result = true
	default:
		return errorResponse(req.ID, &Error{Code: CodeMethodNotFound, Message: "Method not found"}), nil
	}

	resp = newResponse(req.ID)
	resp.Result, _ = json.Marshal(result)
	return resp, activate
}

func (c *wsConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case b := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		s.log.WithError(err).Debug("failed to upgrade websocket")
		return
	}

	c := &wsConn{
		log:  s.log.WithField("remote", r.RemoteAddr),
		hub:  s.hub,
		conn: conn,
		out:  make(chan []byte, s.opts.subscriberBufferSize),
		done: make(chan struct{}),
	}
	s.hub.register(c)

	go c.writeLoop()
	go c.readLoop()
}
