// Package doorbell is the top-level controller: it supervises the
// telephony session against link state and routes session events to the
// bell button loop and the door strike actuator.
//
// Three long-lived contexts cooperate here. The link driver delivers
// connectivity notifications on its own context and never blocks. The
// session lifecycle worker owns the session handle: it waits for link
// readiness, applies address configuration, initializes the session and
// then drives its processing loop. The button loop worker runs
// independently and talks to the session only through non-blocking
// hand-offs.
package doorbell
