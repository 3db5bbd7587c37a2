package params

// Kind describes the value type of a parameter field.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindEnum
	KindColor
)

// Routing describes which device endpoint a field write goes to.
//
// Most fields batch into one generic /set?k=v&... call. Fields with a
// dedicated firmware path are routed individually to that path. The two
// families evolved independently in firmware, which is why they also
// encode booleans differently (generic: "1"/"0", specialized:
// "true"/"false").
type Routing int

const (
	// RouteGeneric batches the field into the generic /set call
	RouteGeneric Routing = iota
	// RouteEffectSpeed routes to GET /setEffectSpeed?value=N
	RouteEffectSpeed
	// RouteEffectIntensity routes to GET /setEffectIntensity?value=N
	RouteEffectIntensity
	// RouteLightMode routes to GET /setLightMode?mode=N
	RouteLightMode
	// RouteDirectionalLight routes to GET /setDirectionalLight?enabled={true|false}
	RouteDirectionalLight
	// RouteBackgroundMode routes to GET /setBackgroundMode?enabled={true|false}
	RouteBackgroundMode
	// RouteCenterShift routes to GET /setCenterShift?value=N
	RouteCenterShift
	// RouteTrailLength routes to GET /setTrailLength?value=N
	RouteTrailLength
	// RouteMotionEnable routes to GET /setMotionSmoothing?enabled={true|false}
	RouteMotionEnable
	// RouteMotionParam routes to GET /setMotionSmoothingParam?param=NAME&value=X.XXX
	RouteMotionParam
)

// Field describes one semantic parameter: its wire name, value type,
// documented range, write precision, and endpoint routing. The table
// below drives both the translator and validation; there is no runtime
// capability probing.
type Field struct {
	Semantic  string
	Wire      string
	Kind      Kind
	Min       float64
	Max       float64
	Precision int // decimal places when formatting float values
	Routing   Routing
}

// Semantic field names accepted by the update contract.
const (
	FieldMinDistance             = "min_distance"
	FieldMaxDistance             = "max_distance"
	FieldBrightness              = "brightness"
	FieldLightSpan               = "light_span"
	FieldNumLeds                 = "num_leds"
	FieldRGBColor                = "rgb_color"
	FieldCenterShift             = "center_shift"
	FieldTrailLength             = "trail_length"
	FieldBackgroundMode          = "background_mode"
	FieldDirectionalLight        = "directional_light"
	FieldLightMode               = "light_mode"
	FieldEffectSpeed             = "effect_speed"
	FieldEffectIntensity         = "effect_intensity"
	FieldMotionSmoothing         = "motion_smoothing"
	FieldPositionSmoothingFactor = "position_smoothing_factor"
	FieldVelocitySmoothingFactor = "velocity_smoothing_factor"
	FieldPredictionFactor        = "prediction_factor"
	FieldPositionPGain           = "position_p_gain"
	FieldPositionIGain           = "position_i_gain"
)

// Fields is the static descriptor table. Ranges come from the device's
// documented limits; values outside a range are clamped at translation
// time rather than forwarded.
var Fields = []Field{
	{Semantic: FieldMinDistance, Wire: "minDist", Kind: KindInt, Min: 0, Max: 200, Routing: RouteGeneric},
	{Semantic: FieldMaxDistance, Wire: "maxDist", Kind: KindInt, Min: 50, Max: 500, Routing: RouteGeneric},
	{Semantic: FieldBrightness, Wire: "brightness", Kind: KindInt, Min: 0, Max: 255, Routing: RouteGeneric},
	{Semantic: FieldLightSpan, Wire: "lightSpan", Kind: KindInt, Min: 1, Max: 100, Routing: RouteGeneric},
	{Semantic: FieldNumLeds, Wire: "numLeds", Kind: KindInt, Min: 1, Max: 2000, Routing: RouteGeneric},
	{Semantic: FieldRGBColor, Wire: "", Kind: KindColor, Min: 0, Max: 255, Routing: RouteGeneric},
	{Semantic: FieldCenterShift, Wire: "centerShift", Kind: KindInt, Min: -100, Max: 100, Routing: RouteCenterShift},
	{Semantic: FieldTrailLength, Wire: "trailLength", Kind: KindInt, Min: 0, Max: 100, Routing: RouteTrailLength},
	{Semantic: FieldBackgroundMode, Wire: "backgroundMode", Kind: KindBool, Routing: RouteBackgroundMode},
	{Semantic: FieldDirectionalLight, Wire: "directionLight", Kind: KindBool, Routing: RouteDirectionalLight},
	{Semantic: FieldLightMode, Wire: "lightMode", Kind: KindEnum, Min: 0, Max: 10, Routing: RouteLightMode},
	{Semantic: FieldEffectSpeed, Wire: "effectSpeed", Kind: KindInt, Min: 1, Max: 100, Routing: RouteEffectSpeed},
	{Semantic: FieldEffectIntensity, Wire: "effectIntensity", Kind: KindInt, Min: 1, Max: 100, Routing: RouteEffectIntensity},
	{Semantic: FieldMotionSmoothing, Wire: "motionSmoothingEnabled", Kind: KindBool, Routing: RouteMotionEnable},
	{Semantic: FieldPositionSmoothingFactor, Wire: "positionSmoothingFactor", Kind: KindFloat, Min: 0, Max: 1, Precision: 2, Routing: RouteMotionParam},
	{Semantic: FieldVelocitySmoothingFactor, Wire: "velocitySmoothingFactor", Kind: KindFloat, Min: 0, Max: 1, Precision: 2, Routing: RouteMotionParam},
	{Semantic: FieldPredictionFactor, Wire: "predictionFactor", Kind: KindFloat, Min: 0, Max: 1, Precision: 2, Routing: RouteMotionParam},
	{Semantic: FieldPositionPGain, Wire: "positionPGain", Kind: KindFloat, Min: 0, Max: 1, Precision: 2, Routing: RouteMotionParam},
	{Semantic: FieldPositionIGain, Wire: "positionIGain", Kind: KindFloat, Min: 0, Max: 0.1, Precision: 3, Routing: RouteMotionParam},
}

// fieldsBySemantic is built once from the table above.
var fieldsBySemantic = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.Semantic] = f
	}
	return m
}()

// Lookup returns the descriptor for a semantic field name.
func Lookup(semantic string) (Field, bool) {
	f, ok := fieldsBySemantic[semantic]
	return f, ok
}

// EndpointPath returns the device path for a specialized routing.
// RouteGeneric has no dedicated path and returns "/set".
func (r Routing) EndpointPath() string {
	switch r {
	case RouteEffectSpeed:
		return "/setEffectSpeed"
	case RouteEffectIntensity:
		return "/setEffectIntensity"
	case RouteLightMode:
		return "/setLightMode"
	case RouteDirectionalLight:
		return "/setDirectionalLight"
	case RouteBackgroundMode:
		return "/setBackgroundMode"
	case RouteCenterShift:
		return "/setCenterShift"
	case RouteTrailLength:
		return "/setTrailLength"
	case RouteMotionEnable:
		return "/setMotionSmoothing"
	case RouteMotionParam:
		return "/setMotionSmoothingParam"
	default:
		return "/set"
	}
}
