package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/marketfeed/internal/relay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleWS upgrades the connection and runs a relay session for the
// requested symbol until the consumer disconnects or the server stops.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		http.Error(w, "missing symbol", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		s.logger.Warn("websocket upgrade failed", "symbol", symbol, "error", err)
		return
	}

	ctx := r.Context()
	if s.ctx != nil {
		ctx = s.ctx
	}

	tr := newWSTransport(conn, s.cfg.WriteTimeout)
	sess := relay.NewSession(symbol, s.bus, s.store, tr, s.cfg.Relay, s.logger)

	s.mu.Lock()
	s.stats.ActiveSessions++
	s.stats.TotalSessions++
	s.mu.Unlock()

	s.wg.Add(1)
	defer func() {
		s.mu.Lock()
		s.stats.ActiveSessions--
		s.mu.Unlock()
		s.wg.Done()
	}()

	tr.start()
	defer tr.stop()

	if err := sess.Run(ctx); err != nil {
		s.logger.Error("session failed to establish", "symbol", symbol, "error", err)
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "stream unavailable"),
			deadline)
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// wsTransport adapts a WebSocket connection to the relay transport.
type wsTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex
	closed  chan struct{}
	once    sync.Once
}

var _ relay.Transport = (*wsTransport)(nil)

func newWSTransport(conn *websocket.Conn, writeTimeout time.Duration) *wsTransport {
	return &wsTransport{
		conn:         conn,
		writeTimeout: writeTimeout,
		closed:       make(chan struct{}),
	}
}

// start launches the read pump. Inbound frames are discarded; the pump
// exists to observe the peer closing the connection.
func (t *wsTransport) start() {
	go func() {
		for {
			if _, _, err := t.conn.ReadMessage(); err != nil {
				t.markClosed()
				return
			}
		}
	}()
}

// stop tears the connection down and unblocks the read pump.
func (t *wsTransport) stop() {
	t.markClosed()
	t.conn.Close()
}

// Forward writes one payload as a text frame.
func (t *wsTransport) Forward(payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	if err := t.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.markClosed()
		return err
	}
	return nil
}

// CloseNotify is closed when the peer goes away or a write fails.
func (t *wsTransport) CloseNotify() <-chan struct{} {
	return t.closed
}

func (t *wsTransport) markClosed() {
	t.once.Do(func() { close(t.closed) })
}
