package mqtt

// TopicPrefixSystem is the base for the core's own status topics.
const TopicPrefixSystem = "gardencore/system"

// TopicSystemStatus is the retained core online/offline topic, also used
// as the last will.
const TopicSystemStatus = TopicPrefixSystem + "/status"

// Device topic templates. Every board is addressed by its MAC-like
// broker identity in the first segment; parse one with MustTemplate and
// address a board with Concrete:
//
//	control := mqtt.MustTemplate(mqtt.TemplateDeviceControl)
//	topic, err := control.Concrete(map[string]string{"mac": "AA:BB"})
//	// topic: "AA:BB/device/control"
const (
	// Device -> Core
	TemplateStatus        = "{mac}/status"
	TemplateConn          = "{mac}/conn"
	TemplateDeviceSensor  = "{mac}/device/sensor"
	TemplateDeviceConfirm = "{mac}/device/confirm"

	// Core -> Device
	TemplateDeviceControl = "{mac}/device/control"
	TemplateReset         = "{mac}/reset"
	TemplateStop          = "{mac}/stop"
	TemplateResume        = "{mac}/resume"
)
