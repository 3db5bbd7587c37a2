// Package logging provides structured logging for the AmbiSense bridge.
//
// Logging is silent by default so CLI output stays clean. Set the
// AMBISENSE_LOG_LEVEL environment variable (debug, info, warn, error) or
// pass an explicit level to Initialize to enable output.
package logging
