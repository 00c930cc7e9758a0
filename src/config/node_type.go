package config

import "fmt"

// NodeType is the role a node plays in the network.
type NodeType uint8

const (
	// Full nodes validate and store the full state.
	Full NodeType = iota
	// Miner nodes additionally run the mining module.
	Miner
	// Bootstrap nodes seed peer discovery for joining nodes.
	Bootstrap
	// Light nodes keep no local state store.
	Light
)

// String ...
func (n NodeType) String() string {
	switch n {
	case Full:
		return "full"
	case Miner:
		return "miner"
	case Bootstrap:
		return "bootstrap"
	case Light:
		return "light"
	default:
		return "unknown"
	}
}

// ParseNodeType converts a config string into a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "full", "":
		return Full, nil
	case "miner":
		return Miner, nil
	case "bootstrap":
		return Bootstrap, nil
	case "light":
		return Light, nil
	default:
		return Full, fmt.Errorf("unknown node type %q", s)
	}
}
