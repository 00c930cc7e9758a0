// Package config defines the immutable configuration snapshot consumed by
// a vertex node at startup, along with its default values and the logger
// factory.
//
// A Config is assembled once, from defaults, a config file and command-line
// flags (cf the cmd package), and is not mutated after the node starts
// running. The one exception is addresses resolved during startup: when a
// listen address uses port 0, the bootstrapper writes the OS-assigned port
// back into the config exactly once before the Node object is finalized.
package config
