package homeassistant

// Device groups every sensor under one Home Assistant device entry.
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// DiscoveryConfig is the MQTT discovery payload for one sensor entity.
type DiscoveryConfig struct {
	Name                string  `json:"name"`
	UniqueID            string  `json:"unique_id"`
	StateTopic          string  `json:"state_topic"`
	JSONAttributesTopic string  `json:"json_attributes_topic,omitempty"`
	AvailabilityTopic   string  `json:"availability_topic,omitempty"`
	UnitOfMeasurement   string  `json:"unit_of_measurement,omitempty"`
	Icon                string  `json:"icon,omitempty"`
	StateClass          string  `json:"state_class,omitempty"`
	Device              *Device `json:"device,omitempty"`
}
