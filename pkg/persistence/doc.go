// Package persistence stores the doorbell's durable state in a JSON
// file: boot counter, last known addresses and usage counters. The
// state survives restarts; losing it is harmless.
package persistence
