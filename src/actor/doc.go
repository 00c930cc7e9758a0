// Package actor defines the lifecycle contract shared by every
// long-running module of a vertex node.
//
// A module implements the Actor interface: a label and unique id fixed at
// construction, an atomically readable State, and a Handle method that
// processes one event at a time and returns the resulting state. The
// orchestrator never calls Handle directly; it spawns the module's run loop
// with Spawn and keeps the returned Handle, whose Join method reports how
// the loop ended.
//
// The contract every Handle implementation must honour: a Stop event
// returns Terminating with no further side effects; any other event
// returns Running to continue, or Terminating with an error to
// self-terminate on an unrecoverable fault. A fault surfaced this way is
// distinguishable from a clean shutdown only through the error returned by
// Join.
package actor
