// Package netlink supervises the wireless link for the doorbell.
//
// This package handles:
//   - Link readiness signalling between the driver context and the
//     session lifecycle worker
//   - Translation of raw driver notifications into teardown, reassociation
//     and address configuration
//   - A polling interface driver for Linux hosts
//
// # Readiness
//
// Readiness is a blocking-wait signal with set/clear edges, not a polled
// flag. The connectivity monitor sets it when an address is acquired and
// clears it on disconnect; the session lifecycle worker blocks in Wait
// until the link is usable.
//
// # Address hand-off
//
// Acquired addresses cross from the driver context to the session worker
// as messages through a single-consumer, latest-wins queue. The consumer
// drains the queue immediately before each session init attempt, so init
// always binds the most recently known address.
package netlink
