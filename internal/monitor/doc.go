// Package monitor implements the live terminal dashboard shown by the
// monitor command.
package monitor
