package doorbell

import "github.com/sipdoor/sipdoor-go/pkg/sip"

// Session is the telephony session handle the lifecycle manager owns.
// Exactly one instance exists for the process lifetime; it cycles
// between uninitialized and ready as the link comes and goes.
//
// Init, SetEventHandler and Run are called only from the lifecycle
// worker. Deinit is required to be idempotent and safe to invoke from
// any context concurrently with an in-progress Run, causing that Run to
// return promptly. The address setters are safe from the link driver
// context.
//
// *sip.Client satisfies this contract.
type Session interface {
	Init() error
	Deinit()
	IsInitialized() bool
	SetEventHandler(sip.Handler)
	Run()
	SetServerAddress(addr string)
	SetLocalAddress(addr string)
}
