package params

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/techposts/ambisense-bridge/internal/logging"
	"github.com/techposts/ambisense-bridge/internal/state"
)

// ToWireParams translates a batch of semantic fields into generic /set
// query parameters.
//
// Unknown semantic keys and uncoercible values are dropped with a warning
// and never forwarded to the device. Numeric values are clamped to the
// documented range here, at the point of translation, rather than passed
// through out-of-range. Booleans encode as "1"/"0" on this path; the
// specialized endpoints use literal "true"/"false" instead (see
// SpecializedValue).
func ToWireParams(fields map[string]any) map[string]string {
	wire := make(map[string]string)

	for semantic, value := range fields {
		f, ok := Lookup(semantic)
		if !ok {
			logging.Warn("Dropping unknown parameter",
				zap.String("field", semantic))
			continue
		}

		if f.Kind == KindColor {
			rgb, err := toRGB(value)
			if err != nil {
				logging.Warn("Dropping invalid color value",
					zap.String("field", semantic), zap.Error(err))
				continue
			}
			wire["redValue"] = strconv.Itoa(clampInt(rgb[0], 0, 255))
			wire["greenValue"] = strconv.Itoa(clampInt(rgb[1], 0, 255))
			wire["blueValue"] = strconv.Itoa(clampInt(rgb[2], 0, 255))
			continue
		}

		encoded, err := encodeGeneric(f, value)
		if err != nil {
			logging.Warn("Dropping invalid parameter value",
				zap.String("field", semantic), zap.Error(err))
			continue
		}
		wire[f.Wire] = encoded
	}

	return wire
}

// SpecializedValue encodes a field value for its dedicated endpoint.
// Booleans become the literal strings "true"/"false" (the specialized
// firmware path predates the 1/0 convention of /set and must stay split).
func SpecializedValue(f Field, value any) (string, error) {
	switch f.Kind {
	case KindBool:
		b, err := toBool(value)
		if err != nil {
			return "", err
		}
		if b {
			return "true", nil
		}
		return "false", nil
	default:
		return encodeGeneric(f, value)
	}
}

// encodeGeneric encodes a non-color value for a query string, clamping
// numerics to the field's documented range.
func encodeGeneric(f Field, value any) (string, error) {
	switch f.Kind {
	case KindInt:
		n, err := toInt(value)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(clampInt(n, int(f.Min), int(f.Max))), nil

	case KindFloat:
		v, err := toFloat(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(clampFloat(v, f.Min, f.Max), 'f', f.Precision, 64), nil

	case KindBool:
		b, err := toBool(value)
		if err != nil {
			return "", err
		}
		if b {
			return "1", nil
		}
		return "0", nil

	case KindEnum:
		code, err := toModeCode(value)
		if err != nil {
			return "", err
		}
		return strconv.Itoa(clampInt(code, int(f.Min), int(f.Max))), nil

	default:
		return "", fmt.Errorf("unsupported field kind %d", f.Kind)
	}
}

// FromWireSettings parses a raw /settings payload into the settings
// portion of a snapshot, substituting the documented default for every
// absent key. Unrecognized keys in the payload are ignored.
//
// This is deliberately not the inverse of ToWireParams: the device reads
// writes under /set wire names (minDist) but reports state under its own
// JSON keys (minDistance).
func FromWireSettings(raw map[string]any) state.Settings {
	d := state.DefaultSettings()

	s := state.Settings{
		MinDistanceCm:   intOr(raw, "minDistance", d.MinDistanceCm),
		MaxDistanceCm:   intOr(raw, "maxDistance", d.MaxDistanceCm),
		MovingLightSpan: intOr(raw, "movingLightSpan", d.MovingLightSpan),
		NumLeds:         intOr(raw, "numLeds", d.NumLeds),
		CenterShift:     intOr(raw, "centerShift", d.CenterShift),
		TrailLength:     intOr(raw, "trailLength", d.TrailLength),

		Brightness: intOr(raw, "brightness", d.Brightness),
		Red:        intOr(raw, "redValue", d.Red),
		Green:      intOr(raw, "greenValue", d.Green),
		Blue:       intOr(raw, "blueValue", d.Blue),

		BackgroundMode: boolOr(raw, "backgroundMode", d.BackgroundMode),

		EffectSpeed:     intOr(raw, "effectSpeed", d.EffectSpeed),
		EffectIntensity: intOr(raw, "effectIntensity", d.EffectIntensity),

		MotionSmoothingEnabled:  boolOr(raw, "motionSmoothingEnabled", d.MotionSmoothingEnabled),
		PositionSmoothingFactor: floatOr(raw, "positionSmoothingFactor", d.PositionSmoothingFactor),
		VelocitySmoothingFactor: floatOr(raw, "velocitySmoothingFactor", d.VelocitySmoothingFactor),
		PredictionFactor:        floatOr(raw, "predictionFactor", d.PredictionFactor),
		PositionPGain:           floatOr(raw, "positionPGain", d.PositionPGain),
		PositionIGain:           floatOr(raw, "positionIGain", d.PositionIGain),
	}

	// Older firmware reports directionLightEnabled, newer directionalLight
	if _, ok := raw["directionalLight"]; ok {
		s.DirectionalLight = boolOr(raw, "directionalLight", d.DirectionalLight)
	} else {
		s.DirectionalLight = boolOr(raw, "directionLightEnabled", d.DirectionalLight)
	}

	// lightMode has shipped as both a numeric code and a mode name
	if v, ok := raw["lightMode"]; ok {
		if code, err := toModeCode(v); err == nil {
			s.LightMode = code
		} else {
			logging.Warn("Ignoring unrecognized lightMode value", zap.Any("value", v))
			s.LightMode = d.LightMode
		}
	} else {
		s.LightMode = d.LightMode
	}

	return s
}

// SemanticFields reconstructs the full semantic field set from a
// settings snapshot, for the "apply all current settings" operation.
func SemanticFields(s state.Settings) map[string]any {
	return map[string]any{
		FieldMinDistance:             s.MinDistanceCm,
		FieldMaxDistance:             s.MaxDistanceCm,
		FieldBrightness:              s.Brightness,
		FieldLightSpan:               s.MovingLightSpan,
		FieldNumLeds:                 s.NumLeds,
		FieldRGBColor:                []int{s.Red, s.Green, s.Blue},
		FieldCenterShift:             s.CenterShift,
		FieldTrailLength:             s.TrailLength,
		FieldBackgroundMode:          s.BackgroundMode,
		FieldDirectionalLight:        s.DirectionalLight,
		FieldLightMode:               s.LightMode,
		FieldEffectSpeed:             s.EffectSpeed,
		FieldEffectIntensity:         s.EffectIntensity,
		FieldMotionSmoothing:         s.MotionSmoothingEnabled,
		FieldPositionSmoothingFactor: s.PositionSmoothingFactor,
		FieldVelocitySmoothingFactor: s.VelocitySmoothingFactor,
		FieldPredictionFactor:        s.PredictionFactor,
		FieldPositionPGain:           s.PositionPGain,
		FieldPositionIGain:           s.PositionIGain,
	}
}

// Coercion helpers. Values arrive from JSON (float64, bool, string),
// YAML, CLI flags and Go callers, so each accepts the common encodings.

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case float32:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", value)
	}
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}

func toBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case float64:
		return v != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "on", "yes":
			return true, nil
		case "false", "0", "off", "no":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", v)
	default:
		return false, fmt.Errorf("cannot convert %T to boolean", value)
	}
}

func toModeCode(value any) (int, error) {
	if s, ok := value.(string); ok {
		if code, found := LightModeCode(strings.TrimSpace(s)); found {
			return code, nil
		}
		// Fall through for numeric strings like "2"
	}
	return toInt(value)
}

func toRGB(value any) ([3]int, error) {
	var rgb [3]int

	switch v := value.(type) {
	case []int:
		if len(v) != 3 {
			return rgb, fmt.Errorf("rgb_color needs 3 components, got %d", len(v))
		}
		copy(rgb[:], v)
		return rgb, nil
	case [3]int:
		return v, nil
	case []any:
		if len(v) != 3 {
			return rgb, fmt.Errorf("rgb_color needs 3 components, got %d", len(v))
		}
		for i, c := range v {
			n, err := toInt(c)
			if err != nil {
				return rgb, fmt.Errorf("rgb_color component %d: %w", i, err)
			}
			rgb[i] = n
		}
		return rgb, nil
	default:
		return rgb, fmt.Errorf("cannot convert %T to rgb triple", value)
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Raw map read helpers used when parsing /settings payloads. The device
// has emitted booleans as true/false, 0/1 and "true"/"false" across
// firmware revisions, so all three are accepted.

func intOr(raw map[string]any, key string, fallback int) int {
	v, ok := raw[key]
	if !ok {
		return fallback
	}
	n, err := toInt(v)
	if err != nil {
		return fallback
	}
	return n
}

func floatOr(raw map[string]any, key string, fallback float64) float64 {
	v, ok := raw[key]
	if !ok {
		return fallback
	}
	f, err := toFloat(v)
	if err != nil {
		return fallback
	}
	return f
}

func boolOr(raw map[string]any, key string, fallback bool) bool {
	v, ok := raw[key]
	if !ok {
		return fallback
	}
	b, err := toBool(v)
	if err != nil {
		return fallback
	}
	return b
}
