// Package gossip implements the node's broadcast layer: a UDP engine that
// fans node events out to known peers and republishes inbound peer events
// onto the router, plus the actor module that bridges the two.
//
// The wire envelope is a msgpack-encoded Message carrying the event kind,
// its payload and the originating node id. The origin id is how broadcast
// loops are avoided: a module only rebroadcasts events it originated
// itself, and the engine never republishes remote events on the Network
// topic.
package gossip
