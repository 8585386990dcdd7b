package netlink

// EventType identifies a link driver notification.
type EventType uint8

const (
	// EventStarted indicates the link driver has started and is ready
	// to associate with the network.
	EventStarted EventType = iota

	// EventDisconnected indicates the link lost its association.
	EventDisconnected

	// EventAddressAcquired indicates the link obtained a local address.
	EventAddressAcquired
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "STARTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventAddressAcquired:
		return "ADDRESS_ACQUIRED"
	default:
		return "UNKNOWN"
	}
}

// Event is a single link driver notification.
// LocalAddr and GatewayAddr are populated only for EventAddressAcquired.
type Event struct {
	Type        EventType
	LocalAddr   string
	GatewayAddr string
}

// Handler receives link notifications. Drivers invoke the handler from
// their own context; handlers must never block and must be safe to call
// concurrently with every other worker in the process.
type Handler func(Event)

// Driver abstracts the wireless link hardware.
type Driver interface {
	// Start brings the link up and begins delivering notifications to
	// the handler. A Start failure is fatal to the process: a doorbell
	// that cannot initialize its own networking has no recovery path.
	Start(h Handler) error

	// Associate requests (re)association with the network.
	// It must return without blocking; association completes
	// asynchronously and surfaces as driver notifications.
	Associate()

	// Stop shuts the driver down and stops notification delivery.
	Stop()
}
