// Package config provides the YAML bridge configuration and a small
// persisted registry of devices the CLI has seen.
package config
