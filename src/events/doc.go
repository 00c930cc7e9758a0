// Package events implements the typed event model and the topic-based
// router at the heart of a vertex node.
//
// Every long-running module in the node communicates exclusively through
// the Router: producers publish DirectedEvents (a Topic paired with an
// Event) into a single inbound channel, and the router's dispatch loop
// copies each event into the bounded queue of every subscriber registered
// on that topic.
//
// The router makes three guarantees that the rest of the node silently
// relies on:
//
// - Delivery is FIFO per (topic, subscriber) pair. Nothing is guaranteed
// across topics, or between two producers racing to publish.
//
// - Nothing is dropped. Subscriber queues are bounded and a full queue
// blocks the dispatch loop, so a stalled module throttles the whole node
// instead of losing events.
//
// - Events published before a subscription existed are never replayed.
// All subscriptions must therefore be registered before the dispatch loop
// starts.
package events
