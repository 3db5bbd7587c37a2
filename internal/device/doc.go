// Package device provides the HTTP client for an AmbiSense LED controller.
//
// The device exposes a small query-string driven HTTP surface:
//
//   - GET /distance returns the radar distance reading as plain integer text
//   - GET /settings returns a JSON object with the current lighting/motion
//     parameters (wire keys, a subset depending on firmware revision)
//   - GET /set?k=v&... applies a batch of generic parameter writes
//   - GET /setEffectSpeed, /setLightMode, /setMotionSmoothing, ... apply a
//     single specialized parameter each
//
// Every call carries an independent timeout (the firmware HTTP server is
// single-threaded and slow) and failures are mapped into a typed
// DeviceError taxonomy: Timeout, ConnectionRefused, DNS, Network, HTTP,
// Parse. The client performs no retries; the poll scheduler's fixed
// interval is the retry policy.
package device
