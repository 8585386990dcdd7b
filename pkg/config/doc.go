// Package config loads the doorbell configuration: a YAML file layered
// with environment variable overrides (SIPDOOR_* keys), with a .env
// file honored for development setups.
package config
