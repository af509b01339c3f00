// Package relay runs an embedded NATS broker and republishes game events
// on it so out-of-process observers can follow the world without holding a
// websocket. Each event goes to "<subject>.<Kind>" encoded with msgpack.
package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"tileworld/hub"
	"tileworld/protocol"
)

const DefaultSubject = "tileworld.events"

type Relay struct {
	ns   *server.Server
	conn *nats.Conn
	log  *zap.SugaredLogger

	startupTimeout time.Duration
	host           string
	port           int
	subject        string
}

type Opt func(*Relay)

// WithStartTimeout sets how long Start waits for the broker.
func WithStartTimeout(d time.Duration) Opt {
	return func(r *Relay) { r.startupTimeout = d }
}

func WithHost(host string) Opt {
	return func(r *Relay) { r.host = host }
}

// WithPort sets the broker port; -1 picks a random free port.
func WithPort(port int) Opt {
	return func(r *Relay) { r.port = port }
}

func WithSubject(subject string) Opt {
	return func(r *Relay) { r.subject = subject }
}

func WithLogger(log *zap.SugaredLogger) Opt {
	return func(r *Relay) { r.log = log }
}

func New(opts ...Opt) (*Relay, error) {
	r := &Relay{
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		subject:        DefaultSubject,
		log:            zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}

	ns, err := server.NewServer(&server.Options{
		Host:   r.host,
		Port:   r.port,
		NoSigs: true,
		NoLog:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}
	r.ns = ns
	return r, nil
}

// Start boots the broker and the internal publishing connection.
func (r *Relay) Start() error {
	r.ns.Start()
	if !r.ns.ReadyForConnections(r.startupTimeout) {
		r.ns.Shutdown()
		return fmt.Errorf("nats server not ready for connections")
	}
	conn, err := nats.Connect(r.ns.ClientURL())
	if err != nil {
		r.ns.Shutdown()
		return fmt.Errorf("creating nats client connection: %w", err)
	}
	r.conn = conn
	r.log.Infof("relay listening on %s subject=%s.>", r.ns.ClientURL(), r.subject)
	return nil
}

// ClientURL is where observers connect.
func (r *Relay) ClientURL() string { return r.ns.ClientURL() }

// Subject returns the subject an event of the given kind is published on.
func (r *Relay) Subject(kind string) string { return r.subject + "." + kind }

// Publish encodes ev and sends it to its kind's subject.
func (r *Relay) Publish(ev protocol.GameEvent) error {
	if r.conn == nil {
		return fmt.Errorf("relay not started")
	}
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	return r.conn.Publish(r.Subject(ev.Kind()), data)
}

// Run forwards every event from sub until ctx is done or sub is closed,
// then stops the broker.
func (r *Relay) Run(ctx context.Context, sub *hub.Subscription[protocol.GameEvent]) {
	defer func() {
		sub.Close()
		r.Shutdown()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			if err := r.Publish(ev); err != nil {
				r.log.Warnf("relay publish %s: %v", ev.Kind(), err)
			}
		}
	}
}

// Shutdown drains the internal connection and stops the broker.
func (r *Relay) Shutdown() {
	if r.conn != nil {
		_ = r.conn.Drain()
		r.conn = nil
	}
	r.ns.Shutdown()
	r.ns.WaitForShutdown()
}

// Encode renders ev in the relay's wire format.
func Encode(ev protocol.GameEvent) ([]byte, error) {
	data, err := msgpack.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Kind(), err)
	}
	return data, nil
}

// Decode parses a payload received on the subject for kind.
func Decode(kind string, data []byte) (protocol.GameEvent, error) {
	ev, err := protocol.NewEvent(kind)
	if err != nil {
		return nil, err
	}
	if err := msgpack.Unmarshal(data, ev); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return protocol.Elem(ev), nil
}

// Subscribe connects to a relay at url and calls handle for every event.
// The returned function unsubscribes and closes the connection.
func Subscribe(url, subject string, handle func(protocol.GameEvent)) (func(), error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	prefix := subject + "."
	sub, err := conn.Subscribe(prefix+">", func(msg *nats.Msg) {
		kind := msg.Subject[len(prefix):]
		ev, err := Decode(kind, msg.Data)
		if err != nil {
			return
		}
		handle(ev)
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		conn.Close()
		return nil, err
	}
	return func() {
		_ = sub.Unsubscribe()
		conn.Close()
	}, nil
}
