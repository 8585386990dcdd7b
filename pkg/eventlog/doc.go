// Package eventlog provides structured event capture for the doorbell.
//
// It is separate from operational logging (slog): the event log is a
// complete machine-readable trace of link, session, button and actuator
// activity, suitable for diagnosing missed rings and door releases after
// the fact.
//
// # Basic Usage
//
// Components accept a Logger; pass NoopLogger to disable capture:
//
//	// Development: mirror events into the console via slog
//	capture := eventlog.NewSlogAdapter(slog.Default())
//
//	// Production: write a binary trace
//	capture, _ := eventlog.NewFileLogger("/var/lib/sipdoor/trace.dlog")
//
//	// Both at once
//	capture = eventlog.NewMultiLogger(
//	    eventlog.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with integer keys,
// conventionally using the .dlog extension. The sipdoor-log CLI reads,
// filters and summarizes them.
package eventlog
