package miner

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/events"
	"github.com/vertexchain/vertex/src/mempool"
)

// DefaultBlockSize is the number of validated transactions folded into one
// block.
const DefaultBlockSize = 5

// Block is the unit the miner cuts from validated transactions,
// msgpack-encoded on BlockConfirmed events.
type Block struct {
	Miner     string
	Timestamp int64
	Txns      [][]byte
}

// EncodeBlock serializes a block with msgpack.
func EncodeBlock(b *Block) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, new(codec.MsgpackHandle))
	if err := enc.Encode(b); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeBlock deserializes a msgpack-encoded block.
func DecodeBlock(data []byte) (*Block, error) {
	var b Block
	dec := codec.NewDecoderBytes(data, new(codec.MsgpackHandle))
	if err := dec.Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Module collects validated transactions from the Consensus topic and cuts
// a block every BlockSize transactions. Blocks are announced on the Storage
// topic, where the state store bumps the chain height, and on the Network
// topic for the gossip module to spread.
type Module struct {
	actor.Core

	nodeID    string
	blockSize int
	pending   [][]byte
	seen      map[string]bool
	eventsTx  chan<- events.DirectedEvent
	logger    *logrus.Entry
}

// ModuleConfig carries the dependencies of a miner Module.
type ModuleConfig struct {
	NodeID    string
	BlockSize int
	EventsTx  chan<- events.DirectedEvent
	Logger    *logrus.Entry
}

// NewModule returns a miner module.
func NewModule(cfg ModuleConfig) *Module {
	blockSize := cfg.BlockSize
	if blockSize < 1 {
		blockSize = DefaultBlockSize
	}

	return &Module{
		Core:      actor.NewCore("miner"),
		nodeID:    cfg.NodeID,
		blockSize: blockSize,
		seen:      make(map[string]bool),
		eventsTx:  cfg.EventsTx,
		logger:    cfg.Logger.WithField("module", "miner"),
	}
}

// PendingCount returns the number of transactions waiting for the next
// block.
func (m *Module) PendingCount() int {
	return len(m.pending)
}

// Handle implements actor.Actor.
func (m *Module) Handle(ev events.Event) (actor.State, error) {
	switch ev.Kind {
	case events.Stop:
		m.logger.WithField("pending", len(m.pending)).Info("miner received stop signal")
		return actor.Terminating, nil

	case events.TxnValidated:
		digest := mempool.Digest(ev.Payload)
		if m.seen[digest] {
			break
		}
		m.seen[digest] = true
		m.pending = append(m.pending, ev.Payload)

		if len(m.pending) >= m.blockSize {
			if err := m.cutBlock(); err != nil {
				return actor.Terminating, err
			}
		}
	}

	return actor.Running, nil
}

func (m *Module) cutBlock() error {
	block := &Block{
		Miner:     m.nodeID,
		Timestamp: time.Now().UnixNano(),
		Txns:      m.pending,
	}

	data, err := EncodeBlock(block)
	if err != nil {
		return err
	}

	m.pending = nil

	m.logger.WithField("txns", len(block.Txns)).Info("cut block")

	m.eventsTx <- events.DirectedEvent{
		Topic: events.Storage,
		Event: events.NewEvent(events.BlockConfirmed, data),
	}
	m.eventsTx <- events.DirectedEvent{
		Topic: events.Network,
		Event: events.NewEvent(events.BlockConfirmed, data),
	}

	return nil
}
