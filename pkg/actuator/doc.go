// Package actuator drives the door strike: a single output line pulsed
// for a configured duration when an authorized open request arrives.
package actuator
