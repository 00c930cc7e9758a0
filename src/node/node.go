package node

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/config"
	"github.com/vertexchain/vertex/src/crypto/keys"
	"github.com/vertexchain/vertex/src/events"
	"github.com/vertexchain/vertex/src/mempool"
	"github.com/vertexchain/vertex/src/statestore"
)

// Per-topic subscriber queue capacities. Control and State are
// single-slot so that a slow consumer exerts backpressure immediately;
// the data-plane topics absorb bursts.
const (
	controlTopicCap   = 1
	stateTopicCap     = 1
	networkTopicCap   = 100
	consensusTopicCap = 100
	storageTopicCap   = 100
)

// Node ties the router, the control channel and the module handles
// together and drives them through the lifecycle.
type Node struct {
	conf     *config.Config
	nodeType config.NodeType
	keypair  *keys.Keypair
	logger   *logrus.Entry

	controlCh  <-chan events.Event
	eventsTx   chan events.DirectedEvent
	routerDone chan struct{}

	comps *runtimeComponents

	status uint32
}

// Start builds and runs a node from the given config. The controlCh is the
// caller's stop signal: the first event received on it triggers shutdown.
//
// Startup is strictly ordered: validate the config, settle the identity,
// declare the router's topics, subscribe every enabled module, bootstrap
// the modules, then start dispatching. Any failure before dispatch leaves
// no running goroutines behind.
func Start(conf *config.Config, controlCh <-chan events.Event) (*Node, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	// Work on a copy so resolved addresses don't mutate the caller's
	// config behind its back.
	confCopy := *conf
	conf = &confCopy

	nodeType, err := config.ParseNodeType(conf.NodeType)
	if err != nil {
		return nil, err
	}

	if conf.Keypair == nil {
		kp, err := keys.Generate()
		if err != nil {
			return nil, fmt.Errorf("generate node keypair: %v", err)
		}
		conf.Keypair = kp
	}
	if conf.ID == "" {
		conf.ID = conf.Keypair.PublicKeyHex()
	}

	logger := conf.Logger().WithFields(logrus.Fields{
		"node": conf.Moniker,
		"type": nodeType.String(),
	})

	n := &Node{
		conf:       conf,
		nodeType:   nodeType,
		keypair:    conf.Keypair,
		logger:     logger,
		controlCh:  controlCh,
		eventsTx:   make(chan events.DirectedEvent, conf.EventBuffer),
		routerDone: make(chan struct{}),
		status:     uint32(actor.Starting),
	}

	router := events.NewRouter(logger)
	topics := []struct {
		topic    events.Topic
		capacity int
	}{
		{events.Control, controlTopicCap},
		{events.State, stateTopicCap},
		{events.Network, networkTopicCap},
		{events.Consensus, consensusTopicCap},
		{events.Storage, storageTopicCap},
	}
	for _, t := range topics {
		if err := router.AddTopic(t.topic, t.capacity); err != nil {
			return nil, err
		}
	}

	roster := enabled(conf, nodeType)

	subs, err := subscribeModules(router, roster)
	if err != nil {
		return nil, err
	}

	comps, err := setupRuntimeComponents(conf, nodeType, roster, n.eventsTx, subs, logger)
	if err != nil {
		return nil, err
	}
	n.comps = comps

	go func() {
		router.Start(n.eventsTx)
		close(n.routerDone)
	}()

	atomic.StoreUint32(&n.status, uint32(actor.Running))

	logger.WithFields(logrus.Fields{
		"id":      conf.ID,
		"gossip":  conf.GossipAddr,
		"rpc":     conf.JSONRPCAddr,
		"service": conf.ServiceAddr,
	}).Info("node started")

	return n, nil
}

// Wait blocks until a stop signal arrives on the control channel, then
// shuts the node down: it publishes Stop on the Control topic, joins every
// module handle in order, closes the outbound event sender and waits for
// the router to drain and exit. It returns the first module error
// encountered, or nil on a clean shutdown.
//
// The joins are sequential and unbounded. Modules that publish from their
// own goroutines quiesce those goroutines before their join completes, so
// closing the event sender afterwards is safe.
func (n *Node) Wait() error {
	<-n.controlCh

	atomic.StoreUint32(&n.status, uint32(actor.Terminating))
	n.logger.Info("stop signal received, shutting down")

	n.eventsTx <- events.DirectedEvent{
		Topic: events.Control,
		Event: events.StopEvent(),
	}

	var firstErr error
	join := func(h *actor.Handle) {
		if h == nil {
			return
		}
		if err := h.Join(); err != nil {
			n.logger.WithError(err).WithField("module", h.Label()).Error("module stopped with error")
			if firstErr == nil {
				firstErr = err
			}
		} else {
			n.logger.WithField("module", h.Label()).Debug("module stopped")
		}
	}

	// The mempool joins last: it consumes the Storage topic alongside the
	// state store, and keeping it alive until every producer is joined
	// means nothing it forwards is lost.
	join(n.comps.stateHandle)
	join(n.comps.minerHandle)
	join(n.comps.gossipHandle)
	join(n.comps.validatorHandle)
	join(n.comps.rpcHandle)
	join(n.comps.serviceHandle)
	join(n.comps.mempoolHandle)

	close(n.eventsTx)
	<-n.routerDone

	atomic.StoreUint32(&n.status, uint32(actor.Stopped))
	n.logger.Info("node stopped")

	return firstErr
}

// ID returns the node's identifier.
func (n *Node) ID() string {
	return n.conf.ID
}

// Moniker returns the node's friendly name.
func (n *Node) Moniker() string {
	return n.conf.Moniker
}

// NodeIdx returns the node's index within its quorum.
func (n *Node) NodeIdx() uint16 {
	return n.conf.Idx
}

// NodeType returns the node's role.
func (n *Node) NodeType() config.NodeType {
	return n.nodeType
}

// IsBootstrap reports whether this node plays the bootstrap role.
func (n *Node) IsBootstrap() bool {
	return n.nodeType == config.Bootstrap
}

// Status returns the node's lifecycle state.
func (n *Node) Status() actor.State {
	return actor.State(atomic.LoadUint32(&n.status))
}

// Keypair returns the node's keypair.
func (n *Node) Keypair() *keys.Keypair {
	return n.keypair
}

// GossipAddr returns the resolved gossip address, or the configured one if
// gossip is disabled.
func (n *Node) GossipAddr() string {
	return n.conf.GossipAddr
}

// JSONRPCAddr returns the resolved JSON-RPC address.
func (n *Node) JSONRPCAddr() string {
	return n.conf.JSONRPCAddr
}

// ServiceAddr returns the resolved HTTP service address.
func (n *Node) ServiceAddr() string {
	return n.conf.ServiceAddr
}

// BootstrapAddrs returns the configured bootstrap peer addresses.
func (n *Node) BootstrapAddrs() []string {
	return n.conf.BootstrapAddrs
}

// MempoolRead returns the mempool's read handle, or nil when the mempool
// is disabled.
func (n *Node) MempoolRead() *mempool.ReadHandle {
	return n.comps.mempoolRead
}

// StateRead returns the state store's read handle, or nil when the state
// store is disabled.
func (n *Node) StateRead() *statestore.ReadHandle {
	return n.comps.stateRead
}
