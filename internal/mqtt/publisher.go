package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/techposts/ambisense-bridge/internal/config"
	"github.com/techposts/ambisense-bridge/internal/logging"
	"github.com/techposts/ambisense-bridge/internal/params"
	"github.com/techposts/ambisense-bridge/internal/state"
)

const (
	connectTimeout = 10 * time.Second

	payloadOnline  = "online"
	payloadOffline = "offline"
)

// CommandHandler receives semantic field batches decoded from MQTT
// command payloads.
type CommandHandler func(fields map[string]any)

// Publisher republishes bridge snapshots to an MQTT broker and exposes
// command topics that feed the update orchestrator. Discovery payloads
// let Home Assistant pick the device up without manual configuration.
type Publisher struct {
	client     paho.Client
	cfg        config.MQTTConfig
	deviceName string
	onCommand  CommandHandler

	stateMu sync.Mutex
	// Last non-zero brightness seen in a snapshot; an ON command
	// without an explicit level restores this.
	lastOnBrightness int
}

// New creates a publisher for one device. deviceName becomes part of
// every topic and unique ID, so it must be stable across restarts.
func New(cfg config.MQTTConfig, deviceName string, onCommand CommandHandler) *Publisher {
	p := &Publisher{
		cfg:              cfg,
		deviceName:       deviceName,
		onCommand:        onCommand,
		lastOnBrightness: 255,
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID("ambisense-bridge-" + deviceName).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetWill(p.availabilityTopic(), payloadOffline, 0, true).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	return p
}

// Connect establishes the broker connection. Discovery payloads and
// command subscriptions are (re)published from the connect handler so
// they survive broker restarts.
func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("timed out connecting to MQTT broker %s", p.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker %s: %w", p.cfg.Broker, err)
	}
	return nil
}

// Close marks the device offline and disconnects.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.publish(p.availabilityTopic(), payloadOffline, true)
		p.client.Disconnect(250)
	}
}

func (p *Publisher) onConnect(_ paho.Client) {
	logging.Info("Connected to MQTT broker", zap.String("broker", p.cfg.Broker))

	p.publishDiscovery()
	p.publish(p.availabilityTopic(), payloadOnline, true)

	// Generic command topic: JSON object of semantic fields
	token := p.client.Subscribe(p.commandTopic(), 0, func(_ paho.Client, msg paho.Message) {
		var fields map[string]any
		if err := json.Unmarshal(msg.Payload(), &fields); err != nil {
			logging.Warn("Ignoring malformed command payload", zap.Error(err))
			return
		}
		if p.onCommand != nil {
			p.onCommand(fields)
		}
	})
	if token.WaitTimeout(connectTimeout) && token.Error() != nil {
		logging.Error("Failed to subscribe to command topic", zap.Error(token.Error()))
	}

	// Light command topic: Home Assistant JSON-schema light payloads
	token = p.client.Subscribe(p.lightCommandTopic(), 0, func(_ paho.Client, msg paho.Message) {
		fields, err := decodeLightCommand(msg.Payload(), p.restoreBrightness())
		if err != nil {
			logging.Warn("Ignoring malformed light command", zap.Error(err))
			return
		}
		if p.onCommand != nil {
			p.onCommand(fields)
		}
	})
	if token.WaitTimeout(connectTimeout) && token.Error() != nil {
		logging.Error("Failed to subscribe to light command topic", zap.Error(token.Error()))
	}
}

// PublishState publishes the snapshot and availability. Called from the
// bridge's poll-cycle subscription.
func (p *Publisher) PublishState(snap state.Snapshot, available bool) {
	if snap.Settings.Brightness > 0 {
		p.stateMu.Lock()
		p.lastOnBrightness = snap.Settings.Brightness
		p.stateMu.Unlock()
	}

	if !p.client.IsConnected() {
		return
	}

	availability := payloadOffline
	if available {
		availability = payloadOnline
	}
	p.publish(p.availabilityTopic(), availability, true)

	statePayload, err := json.Marshal(StatePayload(snap))
	if err != nil {
		logging.Error("Failed to marshal state payload", zap.Error(err))
		return
	}
	p.publish(p.stateTopic(), string(statePayload), true)

	lightPayload, err := json.Marshal(LightStatePayload(snap.Settings))
	if err != nil {
		logging.Error("Failed to marshal light state payload", zap.Error(err))
		return
	}
	p.publish(p.lightStateTopic(), string(lightPayload), true)
}

func (p *Publisher) publish(topic, payload string, retained bool) {
	token := p.client.Publish(topic, 0, retained, payload)
	if token.WaitTimeout(connectTimeout) && token.Error() != nil {
		logging.Error("MQTT publish failed",
			zap.String("topic", topic), zap.Error(token.Error()))
	}
}

// StatePayload builds the JSON state document published on the state
// topic: the full snapshot under semantic names, plus the display name
// for the light mode.
func StatePayload(snap state.Snapshot) map[string]any {
	s := snap.Settings
	return map[string]any{
		"distance_cm":               snap.DistanceCm,
		"min_distance":              s.MinDistanceCm,
		"max_distance":              s.MaxDistanceCm,
		"light_span":                s.MovingLightSpan,
		"num_leds":                  s.NumLeds,
		"center_shift":              s.CenterShift,
		"trail_length":              s.TrailLength,
		"brightness":                s.Brightness,
		"rgb_color":                 []int{s.Red, s.Green, s.Blue},
		"background_mode":           s.BackgroundMode,
		"directional_light":         s.DirectionalLight,
		"light_mode":                params.LightModeName(s.LightMode),
		"effect_speed":              s.EffectSpeed,
		"effect_intensity":          s.EffectIntensity,
		"motion_smoothing":          s.MotionSmoothingEnabled,
		"position_smoothing_factor": s.PositionSmoothingFactor,
		"velocity_smoothing_factor": s.VelocitySmoothingFactor,
		"prediction_factor":         s.PredictionFactor,
		"position_p_gain":           s.PositionPGain,
		"position_i_gain":           s.PositionIGain,
	}
}

// LightStatePayload builds the Home Assistant JSON-schema light state.
// Brightness 0 reports the light as off, matching the device's own
// convention for "off".
func LightStatePayload(s state.Settings) map[string]any {
	st := "ON"
	if s.Brightness == 0 {
		st = "OFF"
	}
	return map[string]any{
		"state":      st,
		"brightness": s.Brightness,
		"color_mode": "rgb",
		"color": map[string]int{
			"r": s.Red,
			"g": s.Green,
			"b": s.Blue,
		},
	}
}

// restoreBrightness returns the level an ON command without an explicit
// brightness should bring the light back to.
func (p *Publisher) restoreBrightness() int {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.lastOnBrightness
}

// decodeLightCommand translates a Home Assistant JSON-schema light
// command into semantic fields. OFF maps to brightness 0; ON without a
// brightness restores the last level the light was on at.
func decodeLightCommand(payload []byte, onBrightness int) (map[string]any, error) {
	var cmd struct {
		State      string `json:"state"`
		Brightness *int   `json:"brightness"`
		Color      *struct {
			R int `json:"r"`
			G int `json:"g"`
			B int `json:"b"`
		} `json:"color"`
	}
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	switch cmd.State {
	case "OFF":
		fields[params.FieldBrightness] = 0
	case "ON":
		if cmd.Brightness != nil {
			fields[params.FieldBrightness] = *cmd.Brightness
		} else {
			fields[params.FieldBrightness] = onBrightness
		}
	}
	if cmd.Color != nil {
		fields[params.FieldRGBColor] = []int{cmd.Color.R, cmd.Color.G, cmd.Color.B}
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("light command carries no actionable fields")
	}
	return fields, nil
}

// Topic layout

func (p *Publisher) baseTopic() string {
	return p.cfg.TopicPrefix + "/" + p.deviceName
}

func (p *Publisher) availabilityTopic() string { return p.baseTopic() + "/availability" }
func (p *Publisher) stateTopic() string        { return p.baseTopic() + "/state" }
func (p *Publisher) commandTopic() string      { return p.baseTopic() + "/set" }
func (p *Publisher) lightStateTopic() string   { return p.baseTopic() + "/light/state" }
func (p *Publisher) lightCommandTopic() string { return p.baseTopic() + "/light/set" }
