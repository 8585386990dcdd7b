package eventlog

// MultiLogger fans each event out to several sinks in order. The daemon
// combines the trace file with console output and the usage counters.
type MultiLogger []Logger

// NewMultiLogger combines the given sinks into one Logger.
// Nil entries are skipped.
func NewMultiLogger(loggers ...Logger) MultiLogger {
	return MultiLogger(loggers)
}

// Log sends the event to every sink.
func (m MultiLogger) Log(event Event) {
	for _, l := range m {
		if l != nil {
			l.Log(event)
		}
	}
}

// Compile-time interface satisfaction check.
var _ Logger = MultiLogger(nil)
