// Package params maps semantic parameter names onto the device wire
// protocol.
//
// A static descriptor table (Fields) defines, for every parameter, its
// wire name, value kind, documented range, write precision and endpoint
// routing. The translator built on that table handles the protocol's
// quirks: rgb_color expands into three independent wire values, booleans
// encode as "1"/"0" on the generic /set path but "true"/"false" on the
// specialized endpoints, and settings parsing reads the device's own JSON
// keys rather than re-deriving them from the /set names.
package params
