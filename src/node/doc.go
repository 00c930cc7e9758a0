// Package node implements the vertex node orchestrator.
//
// The orchestrator owns the event router, the control channel and the
// handles of every spawned module, and drives the node through its
// lifecycle: Starting, Running, Terminating, Stopped.
//
// Startup order matters and is fixed: the router's topics are declared
// first, then every module subscribes to its topics, then the modules are
// bootstrapped, and only then does the router's dispatch loop start. A
// subscription registered after dispatch has started silently misses
// events, so Start never reorders these steps.
//
// Shutdown is triggered by a single external stop signal on the control
// channel. Wait publishes Stop on the Control topic, joins the module
// handles sequentially in a fixed order, closes the outbound event sender
// (which terminates the router once its inbound stream drains), and waits
// for the router to exit. There is no timeout around the joins: a module
// that never terminates blocks shutdown forever, favouring no-loss
// delivery over bounded termination. Callers needing a deadline must wrap
// Wait themselves.
package node
