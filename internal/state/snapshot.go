package state

// Settings holds the reconciled settings portion of the device state,
// expressed with semantic field grouping rather than wire names.
type Settings struct {
	// Geometry
	MinDistanceCm   int // Detection range lower bound (cm)
	MaxDistanceCm   int // Detection range upper bound (cm)
	MovingLightSpan int // Number of LEDs in the moving light span
	NumLeds         int // Total LEDs on the strip
	CenterShift     int // Shift of the light center relative to position
	TrailLength     int // Fade-out trail length in LEDs

	// Color and brightness
	Brightness int // 0-255
	Red        int // 0-255
	Green      int // 0-255
	Blue       int // 0-255

	// Modes
	BackgroundMode   bool // Dim background illumination outside the span
	DirectionalLight bool // Light follows movement direction
	LightMode        int  // Numeric mode code, see params.LightModeName

	// Effects
	EffectSpeed     int // 1-100
	EffectIntensity int // 1-100

	// Motion smoothing
	MotionSmoothingEnabled  bool
	PositionSmoothingFactor float64 // 0-1
	VelocitySmoothingFactor float64 // 0-1
	PredictionFactor        float64 // 0-1
	PositionPGain           float64 // 0-1
	PositionIGain           float64 // 0-0.1
}

// Snapshot is the bridge's cached, reconciled view of device state at a
// point in time. It is replaced wholesale on every successful poll cycle
// and never persisted: the device itself is the source of truth.
type Snapshot struct {
	DistanceCm int
	Settings   Settings
}

// DefaultSettings returns the documented default for every settings field.
// Defaults substitute for keys the device omits from its /settings
// response; firmware revisions differ in which fields they report.
func DefaultSettings() Settings {
	return Settings{
		MinDistanceCm:   30,
		MaxDistanceCm:   300,
		MovingLightSpan: 40,
		NumLeds:         300,
		CenterShift:     0,
		TrailLength:     5,

		Brightness: 255,
		Red:        255,
		Green:      255,
		Blue:       255,

		BackgroundMode:   false,
		DirectionalLight: false,
		LightMode:        0,

		EffectSpeed:     50,
		EffectIntensity: 100,

		MotionSmoothingEnabled:  false,
		PositionSmoothingFactor: 0.2,
		VelocitySmoothingFactor: 0.1,
		PredictionFactor:        0.5,
		PositionPGain:           0.1,
		PositionIGain:           0.01,
	}
}

// EmptySnapshot returns the snapshot used at bridge startup, before the
// first poll cycle has completed.
func EmptySnapshot() Snapshot {
	return Snapshot{
		DistanceCm: 0,
		Settings:   DefaultSettings(),
	}
}
