package params

import "fmt"

// Light mode codes. The wire contract is the numeric code; the names are
// a display table. Firmware revisions have used both representations, so
// parsing accepts either and writing always sends the code.
const (
	ModeMoving = 0
	ModeStatic = 1
	ModeEffect = 2
)

var lightModeNames = map[int]string{
	ModeMoving: "moving",
	ModeStatic: "static",
	ModeEffect: "effect",
}

var lightModeCodes = func() map[string]int {
	m := make(map[string]int, len(lightModeNames))
	for code, name := range lightModeNames {
		m[name] = code
	}
	return m
}()

// LightModeName returns the display name for a mode code. Unknown codes
// (newer firmware) are rendered as "mode N" rather than rejected.
func LightModeName(code int) string {
	if name, ok := lightModeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("mode %d", code)
}

// LightModeCode resolves a mode name to its numeric code.
func LightModeCode(name string) (int, bool) {
	code, ok := lightModeCodes[name]
	return code, ok
}

// LightModeOptions returns the known mode names in code order.
func LightModeOptions() []string {
	return []string{
		lightModeNames[ModeMoving],
		lightModeNames[ModeStatic],
		lightModeNames[ModeEffect],
	}
}
