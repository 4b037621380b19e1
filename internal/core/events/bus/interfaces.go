package bus

import "time"

// Event types published by the script host.
const (
	DomainCreated  = "domain.created"
	DomainUnloaded = "domain.unloaded"
	DomainReloaded = "domain.reloaded"
	TypeRegistered = "type.registered"
	EntitySpawned  = "entity.spawned"
	EntityRemoved  = "entity.removed"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

// EventBus is a thread-safe, in-process pub/sub bus.
//
// Delivery is synchronous: Publish runs handlers in the caller goroutine, so a
// handler must not publish back into the bus while holding locks the publisher needs.
// Handler errors are joined and returned from Publish.
type EventBus interface {
	// Publish delivers the event to the subscribers of its type and to wildcard subscribers.
	Publish(event Event) error
	// PublishBatch publishes events in order and joins errors across them.
	PublishBatch(events ...Event) error
	// Subscribe registers a handler for eventType, or for every type with Wildcard.
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	// Unsubscribe cancels sub. A nil subscription is a no-op.
	Unsubscribe(sub Subscription) error

	AddObserver(obs EventBusObserver)
	RemoveObserver(obs EventBusObserver)
	// GetMetrics returns counters collected while at least one observer is registered.
	GetMetrics() EventBusMetrics
}

// Event is an immutable notification about the script domain.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	// Generation is the domain generation the event belongs to.
	Generation() uint64
	Data() any
}

type (
	EventHandler func(event Event) error
	EventFilter  func(event Event) bool
)

// Subscription is a registered handler. Cancel is safe to call more than once.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

// EventBusObserver is notified about deliveries. Observers should return quickly.
type EventBusObserver interface {
	OnPublish(eventType string, event Event)
	OnDelivered(eventType string, handlers int, err error, duration time.Duration)
}

type EventBusMetrics struct {
	Published         uint64 `json:"published"`
	DeliveredHandlers uint64 `json:"delivered_handlers"`
	Errors            uint64 `json:"errors"`
	SubscribersActive uint64 `json:"subscribers_active"`
}
