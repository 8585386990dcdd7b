// Package gpio provides minimal sysfs GPIO access for the doorbell's
// two pins: the strike output line and the bell button input.
//
// Lines are constructed from a value-file path rather than a pin
// number, so tests can back them with plain files.
package gpio
