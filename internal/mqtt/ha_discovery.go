package mqtt

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/techposts/ambisense-bridge/internal/logging"
)

const (
	manufacturer = "TechPosts Media"
	model        = "AmbiSense Radar-Controlled LED System"
)

// deviceInfo returns the shared device block for Home Assistant
// discovery payloads, so all entities group under one device.
func (p *Publisher) deviceInfo() map[string]any {
	return map[string]any{
		"identifiers":  []string{"ambisense_" + p.deviceName},
		"name":         p.deviceName,
		"manufacturer": manufacturer,
		"model":        model,
	}
}

// discoveryBase creates a discovery payload with the fields common to
// every entity.
func (p *Publisher) discoveryBase(name, uniqueID string) map[string]any {
	return map[string]any{
		"name":               name,
		"unique_id":          uniqueID,
		"availability_topic": p.availabilityTopic(),
		"device":             p.deviceInfo(),
	}
}

// publishDiscovery announces the distance sensor and the LED light to
// Home Assistant. Payloads are retained so entities survive HA restarts.
func (p *Publisher) publishDiscovery() {
	// Radar distance sensor reading off the state topic
	sensor := p.discoveryBase(p.deviceName+" Distance", "ambisense_"+p.deviceName+"_distance")
	sensor["state_topic"] = p.stateTopic()
	sensor["value_template"] = "{{ value_json.distance_cm }}"
	sensor["unit_of_measurement"] = "cm"
	sensor["state_class"] = "measurement"
	p.publishDiscoveryPayload("sensor", "distance", sensor)

	// The LED strip as a JSON-schema light with brightness and RGB
	light := p.discoveryBase(p.deviceName+" Light", "ambisense_"+p.deviceName+"_light")
	light["schema"] = "json"
	light["state_topic"] = p.lightStateTopic()
	light["command_topic"] = p.lightCommandTopic()
	light["brightness"] = true
	light["supported_color_modes"] = []string{"rgb"}
	p.publishDiscoveryPayload("light", "light", light)
}

func (p *Publisher) publishDiscoveryPayload(component, object string, payload map[string]any) {
	topic := p.cfg.DiscoveryPrefix + "/" + component + "/ambisense_" + p.deviceName + "/" + object + "/config"

	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal discovery payload",
			zap.String("topic", topic), zap.Error(err))
		return
	}
	p.publish(topic, string(data), true)
}
