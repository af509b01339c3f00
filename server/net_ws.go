package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tileworld/protocol"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 20
	sendQueueSize  = 64
)

// ClientConn wraps a websocket with a bounded outbound queue drained by
// writePump. Enqueue never blocks; a full queue drops the message.
type ClientConn struct {
	ws      *websocket.Conn
	send    chan []byte
	done    chan struct{}
	metrics *Metrics

	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn, queue int, m *Metrics) *ClientConn {
	if queue < 1 {
		queue = sendQueueSize
	}
	if m == nil {
		m = &Metrics{}
	}
	return &ClientConn{
		ws:      ws,
		send:    make(chan []byte, queue),
		done:    make(chan struct{}),
		metrics: m,
	}
}

// Enqueue reports whether b was queued.
func (c *ClientConn) Enqueue(b []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		c.metrics.IncSendDropped()
		return false
	}
}

// EnqueueJSON encodes v and queues it.
func (c *ClientConn) EnqueueJSON(v any) bool {
	b, err := json.Marshal(v)
	if err != nil {
		Log.Errorf("encode %T: %v", v, err)
		return false
	}
	return c.Enqueue(b)
}

// Done is closed once the connection is closed.
func (c *ClientConn) Done() <-chan struct{} { return c.done }

// Close stops the pumps and closes the socket. Safe to call more than once.
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *ClientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump feeds client frames to handle until the socket fails or handle
// returns false.
func (c *ClientConn) readPump(handle func([]byte) bool) {
	defer c.Close()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugf("ws read: %v", err)
			}
			return
		}
		if !handle(payload) {
			return
		}
	}
}

// Server owns the websocket endpoints and the admin API for one Game.
type Server struct {
	game  *Game
	conns *ConnManager

	upgrader     websocket.Upgrader
	queue        int
	loopbackOnly bool
	archive      EventArchive
	staticDir    string
	historyLimit int
}

type ServerOpt func(*Server)

// WithArchive enables /api/events/archive.
func WithArchive(a EventArchive) ServerOpt {
	return func(s *Server) { s.archive = a }
}

// WithLoopbackOnly restricts the admin API and event stream to loopback peers.
func WithLoopbackOnly(on bool) ServerOpt {
	return func(s *Server) { s.loopbackOnly = on }
}

// WithStaticDir serves a web client from dir at /.
func WithStaticDir(dir string) ServerOpt {
	return func(s *Server) { s.staticDir = dir }
}

// WithHistoryLimit sets the default page size of /api/history.
func WithHistoryLimit(n int) ServerOpt {
	return func(s *Server) { s.historyLimit = n }
}

func WithSendQueue(n int) ServerOpt {
	return func(s *Server) { s.queue = n }
}

func NewServer(g *Game, opts ...ServerOpt) *Server {
	s := &Server{
		game:         g,
		conns:        NewConnManager(),
		queue:        sendQueueSize,
		historyLimit: defaultEventLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Conns() *ConnManager { return s.conns }

// HandleGameWS serves /ws/game: one Session per socket.
func (s *Server) HandleGameWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	conn := NewClientConn(ws, s.queue, s.game.metrics)
	sess := NewSession(s.game)
	updates := s.game.SubscribeUpdates()
	connID := s.conns.Add(conn)
	Log.Debugf("game socket opened: conn=%s remote=%s", connID, r.RemoteAddr)

	var cleanup sync.Once
	finish := func() {
		cleanup.Do(func() {
			conn.Close()
			updates.Close()
			sess.Close()
			s.conns.Remove(connID)
		})
	}

	go func() {
		conn.writePump()
		finish()
	}()
	go func() {
		defer finish()
		for {
			select {
			case <-conn.Done():
				return
			case u, ok := <-updates.C():
				if !ok {
					return
				}
				if upd, ok := u.For(sess.UpdateTarget()); ok {
					conn.EnqueueJSON(upd)
				}
			}
		}
	}()
	go func() {
		conn.readPump(func(frame []byte) bool {
			replies, err := sess.HandleFrame(frame)
			for _, m := range replies {
				conn.EnqueueJSON(m)
			}
			// Tick updates only start once the login replies are queued.
			sess.StartUpdates()
			switch {
			case errors.Is(err, ErrSessionClosed):
				return false
			case err != nil:
				Log.Debugf("conn=%s intent rejected: %v", connID, err)
			}
			return true
		})
		finish()
	}()
}

// HandleEventStream serves /api/events/stream: every GameEvent, externally
// tagged JSON, one per frame.
func (s *Server) HandleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.loopbackOnly && !isLoopbackRemote(r.RemoteAddr) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("upgrade error: %v", err)
		return
	}

	conn := NewClientConn(ws, s.queue, s.game.metrics)
	sub := s.game.SubscribeEvents()
	connID := s.conns.Add(conn)

	go conn.writePump()
	go conn.readPump(func([]byte) bool { return true })
	go func() {
		defer func() {
			sub.Close()
			conn.Close()
			s.conns.Remove(connID)
		}()
		for {
			select {
			case <-conn.Done():
				return
			case ev, ok := <-sub.C():
				if !ok {
					return
				}
				b, err := protocol.MarshalEvent(ev)
				if err != nil {
					Log.Errorf("encode %s: %v", ev.Kind(), err)
					continue
				}
				conn.Enqueue(b)
			}
		}
	}()
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
