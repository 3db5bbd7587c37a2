// Package mqtt republishes bridge snapshots to an MQTT broker and maps
// command topics back onto the update orchestrator. Discovery payloads
// follow the Home Assistant MQTT discovery convention so the device
// appears without manual configuration.
package mqtt
