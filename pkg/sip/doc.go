// Package sip implements the doorbell's telephony session: a minimal
// SIP user agent over UDP.
//
// The client registers with a SIP server (MD5 digest authentication),
// places an outgoing call when the bell button is pressed, and surfaces
// session-level events - call started, cancelled, ended, incoming invite
// and phone keypad presses relayed as DTMF INFO - to a single handler.
//
// # Threading model
//
// The client is driven cooperatively from exactly one worker: Init,
// SetEventHandler and Run are called from the session lifecycle
// goroutine, and all dialog state is owned by that goroutine. Requests
// from other workers (ring start/cancel from the button loop) enter
// through a bounded command queue serviced inside Run and never touch
// dialog state directly.
//
// Deinit is the one exception: it is safe to call from any context
// concurrently with an in-progress Run, and causes that Run to return
// promptly by closing the socket.
//
// Media transport is out of scope; the INVITE carries a static SDP
// offer so PBXes accept the call.
package sip
