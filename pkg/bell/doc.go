// Package bell runs the doorbell button loop: it turns physical button
// presses into ring requests against the telephony session, enforces a
// ring timeout, and tracks call state fed back from the session.
//
// The loop runs on its own worker. Session-side notifications arrive
// through non-blocking methods so the session worker never stalls on
// the button loop.
package bell
