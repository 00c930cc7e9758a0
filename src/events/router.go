package events

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	// ErrTopicNotFound is returned when subscribing to an undeclared topic.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrRouterStarted is returned when a topic is declared after the
	// dispatch loop has started.
	ErrRouterStarted = errors.New("router already started")
)

// Router is the single fan-out point between modules. Producers send
// DirectedEvents into one inbound channel; the dispatch loop copies each
// event to every subscriber of its topic.
//
// All topics and subscriptions must be registered before Start. Subscriber
// queues are bounded; when one is full the dispatch loop blocks until the
// subscriber drains it, so a slow consumer throttles every producer rather
// than losing events. Delivery is FIFO per topic and subscriber. No order is
// guaranteed across topics.
type Router struct {
	mu          sync.Mutex
	capacities  map[Topic]int
	subscribers map[Topic][]chan Event
	started     bool
	logger      *logrus.Entry
}

// NewRouter returns an empty router with no topics declared.
func NewRouter(logger *logrus.Entry) *Router {
	if logger == nil {
		log := logrus.New()
		log.Level = logrus.DebugLevel
		logger = logrus.NewEntry(log)
	}

	return &Router{
		capacities:  make(map[Topic]int),
		subscribers: make(map[Topic][]chan Event),
		logger:      logger.WithField("this", "router"),
	}
}

// AddTopic declares a topic and the queue capacity applied to each of its
// subscribers. Declaring a topic after Start is a programming error and is
// rejected.
func (r *Router) AddTopic(topic Topic, capacity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrRouterStarted
	}

	if capacity < 1 {
		capacity = 1
	}

	r.capacities[topic] = capacity

	return nil
}

// Subscribe registers a new subscriber queue on topic and returns its
// consuming end. Each call creates an independent queue with its own
// backlog. Subscriptions registered after Start are never delivered to, so
// all of them must exist before the dispatch loop runs.
func (r *Router) Subscribe(topic Topic) (<-chan Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	capacity, ok := r.capacities[topic]
	if !ok {
		return nil, fmt.Errorf("subscribe %s: %w", topic, ErrTopicNotFound)
	}

	ch := make(chan Event, capacity)
	r.subscribers[topic] = append(r.subscribers[topic], ch)

	return ch, nil
}

// Start runs the dispatch loop until the inbound channel is closed. It is a
// blocking call, meant to run in its own goroutine. A Stop event is a
// payload like any other: it is forwarded to subscribers and does not
// terminate the loop. When the loop exits, all subscriber channels are
// closed.
func (r *Router) Start(in <-chan DirectedEvent) {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()

	r.logger.Debug("event router started")

	for de := range in {
		r.mu.Lock()
		subs := r.subscribers[de.Topic]
		r.mu.Unlock()

		if len(subs) == 0 {
			// No subscribers; events published before anyone subscribed
			// are dropped, never replayed.
			continue
		}

		for _, sub := range subs {
			sub <- de.Event
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, subs := range r.subscribers {
		for _, sub := range subs {
			close(sub)
		}
	}

	r.logger.Debug("event router stopped")
}
