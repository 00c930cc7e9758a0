package node

import (
	"io"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/vertexchain/vertex/src/actor"
	"github.com/vertexchain/vertex/src/config"
	"github.com/vertexchain/vertex/src/events"
	"github.com/vertexchain/vertex/src/gossip"
	"github.com/vertexchain/vertex/src/mempool"
	"github.com/vertexchain/vertex/src/miner"
	"github.com/vertexchain/vertex/src/rpc"
	"github.com/vertexchain/vertex/src/service"
	"github.com/vertexchain/vertex/src/statestore"
	"github.com/vertexchain/vertex/src/validator"
)

// subscriptions holds every receiving endpoint created before the router's
// dispatch loop starts. A nil channel means the corresponding module is
// disabled by configuration.
type subscriptions struct {
	mempoolControl, mempoolStorage       <-chan events.Event
	stateControl, stateStorage           <-chan events.Event
	gossipControl, gossipNetwork         <-chan events.Event
	validatorControl, validatorConsensus <-chan events.Event
	minerControl, minerConsensus         <-chan events.Event
	rpcControl                           <-chan events.Event
	serviceControl                       <-chan events.Event
}

// enabledModules derives the module roster from the config.
type enabledModules struct {
	mempool, statestore, validator bool
	miner, gossip, rpc, service    bool
}

func enabled(conf *config.Config, nodeType config.NodeType) enabledModules {
	light := nodeType == config.Light

	return enabledModules{
		mempool:    !light,
		statestore: !light,
		validator:  !light,
		miner:      nodeType == config.Miner,
		gossip:     !conf.NoGossip,
		rpc:        !conf.NoJSONRPC,
		service:    !conf.NoService,
	}
}

// subscribeModules registers every endpoint the enabled modules will
// consume. It must complete before the router starts dispatching.
func subscribeModules(router *events.Router, roster enabledModules) (*subscriptions, error) {
	subs := &subscriptions{}

	sub := func(dst *<-chan events.Event, topic events.Topic) error {
		ch, err := router.Subscribe(topic)
		if err != nil {
			return err
		}
		*dst = ch
		return nil
	}

	type binding struct {
		enabled bool
		dst     *<-chan events.Event
		topic   events.Topic
	}

	bindings := []binding{
		{roster.mempool, &subs.mempoolControl, events.Control},
		{roster.mempool, &subs.mempoolStorage, events.Storage},
		{roster.statestore, &subs.stateControl, events.Control},
		{roster.statestore, &subs.stateStorage, events.Storage},
		{roster.gossip, &subs.gossipControl, events.Control},
		{roster.gossip, &subs.gossipNetwork, events.Network},
		{roster.validator, &subs.validatorControl, events.Control},
		{roster.validator, &subs.validatorConsensus, events.Consensus},
		{roster.miner, &subs.minerControl, events.Control},
		{roster.miner, &subs.minerConsensus, events.Consensus},
		{roster.rpc, &subs.rpcControl, events.Control},
		{roster.service, &subs.serviceControl, events.Control},
	}

	for _, b := range bindings {
		if !b.enabled {
			continue
		}
		if err := sub(b.dst, b.topic); err != nil {
			return nil, err
		}
	}

	return subs, nil
}

// runtimeComponents is what the bootstrapper hands back to the
// orchestrator: one handle per enabled module, the shared read handles,
// and the addresses resolved while binding sockets.
type runtimeComponents struct {
	mempoolHandle   *actor.Handle
	stateHandle     *actor.Handle
	gossipHandle    *actor.Handle
	validatorHandle *actor.Handle
	minerHandle     *actor.Handle
	rpcHandle       *actor.Handle
	serviceHandle   *actor.Handle

	mempoolRead *mempool.ReadHandle
	stateRead   *statestore.ReadHandle
	gossipAddr  *net.UDPAddr
}

// setupRuntimeComponents builds every enabled module against its
// subscriptions, spawns their run loops, and merges resolved addresses
// back into conf. Construction is all-or-nothing: the first failure closes
// everything built so far and no module is spawned.
func setupRuntimeComponents(
	conf *config.Config,
	nodeType config.NodeType,
	roster enabledModules,
	eventsTx chan events.DirectedEvent,
	subs *subscriptions,
	logger *logrus.Entry,
) (*runtimeComponents, error) {
	comps := &runtimeComponents{}

	// Resources to tear down if a later construction fails.
	var cleanup []io.Closer
	fail := func(err error) (*runtimeComponents, error) {
		for _, c := range cleanup {
			c.Close()
		}
		return nil, err
	}

	var mempoolModule *mempool.Module
	if roster.mempool {
		pool := mempool.NewPool()
		mempoolModule = mempool.NewModule(pool, mempool.ModuleConfig{
			EventsTx: eventsTx,
			Logger:   logger,
		})
		rh := pool.ReadHandle()
		comps.mempoolRead = &rh
	}

	var stateModule *statestore.Module
	if roster.statestore {
		store, err := statestore.NewStore(conf.DatabaseDir, logger)
		if err != nil {
			return fail(err)
		}
		cleanup = append(cleanup, store)

		stateModule = statestore.NewModule(store, statestore.ModuleConfig{
			EventsTx: eventsTx,
			Logger:   logger,
		})
		rh := store.ReadHandle()
		comps.stateRead = &rh
	}

	var validatorModule *validator.Module
	if roster.validator {
		validatorModule = validator.NewModule(validator.ModuleConfig{
			EventsTx: eventsTx,
			Logger:   logger,
		})
	}

	var minerModule *miner.Module
	if roster.miner {
		minerModule = miner.NewModule(miner.ModuleConfig{
			NodeID:   conf.ID,
			EventsTx: eventsTx,
			Logger:   logger,
		})
	}

	var gossipModule *gossip.Module
	if roster.gossip {
		var err error
		gossipModule, err = gossip.NewModule(gossip.ModuleConfig{
			BindAddr:       conf.GossipAddr,
			BootstrapAddrs: conf.BootstrapAddrs,
			NodeID:         conf.ID,
			EventsTx:       eventsTx,
			Logger:         logger,
		})
		if err != nil {
			return fail(err)
		}
		cleanup = append(cleanup, gossipModule)

		comps.gossipAddr = gossipModule.LocalAddr()
		conf.GossipAddr = comps.gossipAddr.String()
	}

	var rpcModule *rpc.Module
	if roster.rpc {
		server, err := rpc.NewServer(rpc.ServerConfig{
			BindAddr:    conf.JSONRPCAddr,
			NodeID:      conf.ID,
			NodeType:    nodeType.String(),
			EventsTx:    eventsTx,
			MempoolRead: comps.mempoolRead,
			StateRead:   comps.stateRead,
			Logger:      logger,
		})
		if err != nil {
			return fail(err)
		}
		cleanup = append(cleanup, server)

		conf.JSONRPCAddr = server.Addr().String()
		rpcModule = rpc.NewModule(server, logger)
	}

	var serviceModule *service.Module
	if roster.service {
		svc, err := service.NewService(conf.ServiceAddr, service.NodeInfo{
			ID:         conf.ID,
			Moniker:    conf.Moniker,
			NodeType:   nodeType.String(),
			GossipAddr: conf.GossipAddr,
		}, comps.mempoolRead, comps.stateRead, logger)
		if err != nil {
			return fail(err)
		}

		conf.ServiceAddr = svc.Addr().String()
		serviceModule = service.NewModule(svc, logger)
	}

	// Everything bound; spawn the run loops.
	if mempoolModule != nil {
		comps.mempoolHandle = actor.Spawn(mempoolModule, subs.mempoolControl, subs.mempoolStorage, logger)
	}
	if stateModule != nil {
		comps.stateHandle = actor.Spawn(stateModule, subs.stateControl, subs.stateStorage, logger)
	}
	if validatorModule != nil {
		comps.validatorHandle = actor.Spawn(validatorModule, subs.validatorControl, subs.validatorConsensus, logger)
	}
	if minerModule != nil {
		comps.minerHandle = actor.Spawn(minerModule, subs.minerControl, subs.minerConsensus, logger)
	}
	if gossipModule != nil {
		go gossipModule.Listen()
		comps.gossipHandle = actor.Spawn(gossipModule, subs.gossipControl, subs.gossipNetwork, logger)
	}
	if rpcModule != nil {
		go rpcModule.Server().Serve()
		comps.rpcHandle = actor.Spawn(rpcModule, subs.rpcControl, nil, logger)
	}
	if serviceModule != nil {
		go serviceModule.Service().Serve()
		comps.serviceHandle = actor.Spawn(serviceModule, subs.serviceControl, nil, logger)
	}

	return comps, nil
}
