package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
)

// Broker is the part of the broker session the Router needs. *Client
// implements it; tests substitute an in-memory fake.
type Broker interface {
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Message is an inbound message after JSON decoding.
type Message struct {
	// Topic is the concrete topic the message arrived on.
	Topic string

	// Payload is the raw JSON body.
	Payload []byte

	// Value is Payload decoded into generic JSON values.
	Value any
}

// Decode unmarshals the raw payload into v.
func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Payload, v)
}

// Handler processes one message. Errors are logged by the Router and do
// not stop other handlers.
type Handler func(ctx context.Context, msg Message) error

// TopicHandler is a handler bound to a topic template.
type TopicHandler interface {
	Template() Template
	Handle(ctx context.Context, msg Message) error
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// HistorySize is the number of payloads kept per topic (default 5).
	HistorySize int

	// QoS is used for broker subscriptions.
	QoS byte

	// InboundBuffer bounds the queue between broker callbacks and Run (default 256).
	InboundBuffer int

	Logger Logger
}

const defaultInboundBuffer = 256

// Router is the topic router shared by every publisher and subscriber.
//
// Inbound messages from the broker are queued and handled by a single
// receive loop (Run): each message is decoded, appended to the topic's
// history and handed to the handlers of every matching pattern, one after
// another in registration order. Messages on the same topic are therefore
// processed in arrival order.
//
// Thread Safety:
//   - Subscribe, Publish, LastMessage and LastMessages are safe for
//     concurrent use.
//   - Handlers never run concurrently with each other.
type Router struct {
	broker  Broker
	qos     byte
	history *History
	logger  Logger

	// subscribeMu serialises broker subscriptions so a pattern is only
	// subscribed once.
	subscribeMu sync.Mutex

	mu       sync.RWMutex
	patterns []string
	handlers map[string][]Handler

	inbound chan inboundMessage
	stopped chan struct{}
	stopMu  sync.Once
	running atomic.Bool
}

type inboundMessage struct {
	topic   string
	payload []byte
}

// NewRouter creates a Router over an established broker session.
func NewRouter(broker Broker, opts RouterOptions) *Router {
	if opts.InboundBuffer < 1 {
		opts.InboundBuffer = defaultInboundBuffer
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	return &Router{
		broker:   broker,
		qos:      opts.QoS,
		history:  NewHistory(opts.HistorySize),
		logger:   opts.Logger,
		handlers: make(map[string][]Handler),
		inbound:  make(chan inboundMessage, opts.InboundBuffer),
		stopped:  make(chan struct{}),
	}
}

// Subscribe appends handler to pattern. The pattern is subscribed on the
// broker the first time it is seen.
//
// Returns:
//   - error: ErrNotConnected if the broker session is down, ErrInvalidTopic
//     for an empty pattern, or the broker's subscribe error
func (r *Router) Subscribe(pattern string, handler Handler) error {
	if pattern == "" {
		return ErrInvalidTopic
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !r.broker.IsConnected() {
		return ErrNotConnected
	}

	r.subscribeMu.Lock()
	defer r.subscribeMu.Unlock()

	r.mu.RLock()
	_, known := r.handlers[pattern]
	r.mu.RUnlock()

	if !known {
		if err := r.broker.Subscribe(pattern, r.qos, r.enqueue); err != nil {
			return fmt.Errorf("subscribing %s: %w", pattern, err)
		}
	}

	r.mu.Lock()
	if !known {
		r.patterns = append(r.patterns, pattern)
	}
	r.handlers[pattern] = append(r.handlers[pattern], handler)
	r.mu.Unlock()

	r.logger.Debug("handler subscribed", "pattern", pattern)
	return nil
}

// SubscribeHandler subscribes h on the wildcard form of its template.
func (r *Router) SubscribeHandler(h TopicHandler) error {
	return r.Subscribe(h.Template().Wildcard(), h.Handle)
}

// Publish JSON-encodes payload and publishes it to topic.
func (r *Router) Publish(topic string, payload any, qos byte, retain bool) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload for %s: %w", topic, err)
	}
	return r.broker.Publish(topic, data, qos, retain)
}

// enqueue is the broker callback. It copies the payload and hands it to
// the receive loop, blocking while the queue is full.
func (r *Router) enqueue(topic string, payload []byte) error {
	msg := inboundMessage{topic: topic, payload: append([]byte(nil), payload...)}
	select {
	case r.inbound <- msg:
		return nil
	case <-r.stopped:
		return ErrRouterStopped
	}
}

// Run is the receive loop. It dispatches queued messages one at a time
// until ctx is cancelled, then returns after the message in progress
// finishes. Messages still queued at that point are discarded.
func (r *Router) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrRouterRunning
	}
	defer r.stopMu.Do(func() { close(r.stopped) })

	r.logger.Info("router started", "patterns", r.PatternCount())

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("router stopped", "pending", len(r.inbound))
			return nil
		case msg := <-r.inbound:
			r.Dispatch(ctx, msg.topic, msg.payload)
		}
	}
}

// Dispatch handles one inbound message: decode, record history, then call
// the handlers of every matching pattern in registration order.
// Payloads that are not valid JSON are logged and dropped.
func (r *Router) Dispatch(ctx context.Context, topic string, raw []byte) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		r.logger.Warn("dropping undecodable message", "topic", topic, "error", err)
		return
	}

	r.history.Append(topic, value)

	msg := Message{Topic: topic, Payload: raw, Value: value}
	for _, pattern := range r.matching(topic) {
		for _, h := range r.handlersFor(pattern) {
			r.call(ctx, pattern, h, msg)
		}
	}
}

func (r *Router) matching(topic string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, p := range r.patterns {
		if Match(p, topic) {
			out = append(out, p)
		}
	}
	return out
}

func (r *Router) handlersFor(pattern string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Handler(nil), r.handlers[pattern]...)
}

func (r *Router) call(ctx context.Context, pattern string, h Handler, msg Message) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panic recovered", "pattern", pattern, "topic", msg.Topic, "panic", rec)
		}
	}()

	if err := h(ctx, msg); err != nil {
		r.logger.Warn("handler failed", "pattern", pattern, "topic", msg.Topic, "error", err)
	}
}

// LastMessage returns the newest decoded payload on topic, or ErrNoMessage.
func (r *Router) LastMessage(topic string) (any, error) {
	v, ok := r.history.Last(topic)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoMessage, topic)
	}
	return v, nil
}

// LastMessages returns up to HistorySize payloads on topic, oldest first.
func (r *Router) LastMessages(topic string) []any {
	return r.history.Snapshot(topic)
}

// PatternCount returns the number of distinct subscribed patterns.
func (r *Router) PatternCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}
