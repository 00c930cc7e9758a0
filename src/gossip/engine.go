package gossip

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"

	"github.com/vertexchain/vertex/src/events"
)

// readBufSize bounds the size of a single inbound datagram.
const readBufSize = 65535

// Message is the gossip wire envelope, msgpack-encoded on the wire.
type Message struct {
	Kind    events.Kind
	Payload []byte
	Source  string
}

func encodeMessage(m *Message) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, new(codec.MsgpackHandle))
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf, nil
}

func decodeMessage(data []byte) (*Message, error) {
	var m Message
	dec := codec.NewDecoderBytes(data, new(codec.MsgpackHandle))
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// BroadcastEngine owns the gossip UDP socket. Outbound messages are sent to
// every known peer; inbound messages are republished onto the router
// through the shared event sender, so the rest of the node consumes remote
// events exactly like local ones.
type BroadcastEngine struct {
	conn     *net.UDPConn
	eventsTx chan<- events.DirectedEvent
	logger   *logrus.Entry

	listening  int32
	listenDone chan struct{}

	peersLock sync.Mutex
	peers     []*net.UDPAddr
}

// NewBroadcastEngine binds the gossip socket. Binding is fallible and a
// failure here is a fatal startup error; the engine never substitutes a
// different address.
func NewBroadcastEngine(
	bindAddr string,
	bootstrapAddrs []string,
	eventsTx chan<- events.DirectedEvent,
	logger *logrus.Entry,
) (*BroadcastEngine, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve gossip address %q: %v", bindAddr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("bind gossip socket %q: %v", bindAddr, err)
	}

	engine := &BroadcastEngine{
		conn:       conn,
		eventsTx:   eventsTx,
		listenDone: make(chan struct{}),
		logger:     logger.WithField("this", "broadcast-engine"),
	}

	for _, addr := range bootstrapAddrs {
		if err := engine.AddPeer(addr); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return engine, nil
}

// LocalAddr returns the socket's resolved local address. When the
// configured address used port 0, this carries the OS-assigned port.
func (e *BroadcastEngine) LocalAddr() *net.UDPAddr {
	return e.conn.LocalAddr().(*net.UDPAddr)
}

// AddPeer registers a peer address as a broadcast target.
func (e *BroadcastEngine) AddPeer(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("resolve peer address %q: %v", addr, err)
	}

	e.peersLock.Lock()
	defer e.peersLock.Unlock()

	for _, known := range e.peers {
		if known.String() == udpAddr.String() {
			return nil
		}
	}

	e.peers = append(e.peers, udpAddr)
	e.logger.WithField("peer", udpAddr.String()).Debug("added gossip peer")

	return nil
}

// PeerCount returns the number of known peers.
func (e *BroadcastEngine) PeerCount() int {
	e.peersLock.Lock()
	defer e.peersLock.Unlock()
	return len(e.peers)
}

// Broadcast sends a message to every known peer.
func (e *BroadcastEngine) Broadcast(m *Message) error {
	data, err := encodeMessage(m)
	if err != nil {
		return err
	}

	e.peersLock.Lock()
	peers := make([]*net.UDPAddr, len(e.peers))
	copy(peers, e.peers)
	e.peersLock.Unlock()

	for _, peer := range peers {
		if _, err := e.conn.WriteToUDP(data, peer); err != nil {
			e.logger.WithError(err).WithField("peer", peer.String()).Warn("broadcast failed")
		}
	}

	return nil
}

// Listen reads inbound datagrams and republishes them on the router until
// the socket is closed. It is a blocking call, meant to run in its own
// goroutine.
func (e *BroadcastEngine) Listen() {
	atomic.StoreInt32(&e.listening, 1)
	defer close(e.listenDone)

	buf := make([]byte, readBufSize)

	for {
		n, remote, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			// Closed socket; the engine is shutting down.
			e.logger.Debug("gossip socket closed")
			return
		}

		m, err := decodeMessage(buf[:n])
		if err != nil {
			e.logger.WithError(err).WithField("remote", remote.String()).Warn("dropping undecodable datagram")
			continue
		}

		e.republish(m)
	}
}

// republish maps an inbound gossip message onto the topic its payload
// belongs to. Remote events are deliberately not republished on the
// Network topic: the gossip module broadcasts everything it receives
// there, and reflecting remote events back at it would loop them through
// the network forever.
func (e *BroadcastEngine) republish(m *Message) {
	ev := events.Event{Kind: m.Kind, Payload: m.Payload, Source: m.Source}

	switch m.Kind {
	case events.NewTxn, events.TxnValidated, events.TxnRejected, events.BlockConfirmed:
		e.eventsTx <- events.DirectedEvent{Topic: events.Storage, Event: ev}
	case events.PeerJoined:
		e.eventsTx <- events.DirectedEvent{Topic: events.Network, Event: ev}
	default:
		e.logger.WithField("kind", m.Kind.String()).Debug("ignoring gossip message")
	}
}

// Close shuts the socket down, which also terminates Listen, and waits for
// the receive loop to wind down so that no republish races the router's
// teardown.
func (e *BroadcastEngine) Close() error {
	err := e.conn.Close()

	if atomic.LoadInt32(&e.listening) == 1 {
		<-e.listenDone
	}

	return err
}
