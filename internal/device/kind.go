package device

import (
	"fmt"
	"strings"
)

// Kind identifies what a device measures or drives.
// Values are the names stored in the devices table.
type Kind string

// Sensor kinds.
const (
	KindLightSensor          Kind = "LIGHT_SENSOR"
	KindAirHumiditySensor    Kind = "AIR_HUMIDITY_SENSOR"
	KindSoilMoistureSensor   Kind = "SOIL_MOISTURE_SENSOR"
	KindAirTemperatureSensor Kind = "AIR_TEMPERATURE_SENSOR"
	// KindSignalStrength keeps the spelling deployed boards and databases use.
	KindSignalStrength Kind = "SIGNAL_STRENGHT"
	KindBattery        Kind = "BATTERY"
)

// Actuator kinds.
const (
	KindWaterer  Kind = "WATERER"
	KindFanner   Kind = "FANNER"
	KindAtomizer Kind = "ATOMIZER"
	KindHeater   Kind = "HEATER"
)

// AllKinds lists every kind in a stable order.
var AllKinds = []Kind{
	KindLightSensor, KindAirHumiditySensor, KindSoilMoistureSensor,
	KindAirTemperatureSensor, KindSignalStrength, KindBattery,
	KindWaterer, KindFanner, KindAtomizer, KindHeater,
}

// ParseKind validates a stored kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k.IsSensor() || k.IsActuator()
}

// IsSensor reports whether k produces readings.
func (k Kind) IsSensor() bool {
	switch k {
	case KindLightSensor, KindAirHumiditySensor, KindSoilMoistureSensor,
		KindAirTemperatureSensor, KindSignalStrength, KindBattery:
		return true
	default:
		return false
	}
}

// IsActuator reports whether k accepts on/off commands.
func (k Kind) IsActuator() bool {
	switch k {
	case KindWaterer, KindFanner, KindAtomizer, KindHeater:
		return true
	default:
		return false
	}
}

// SensorKind maps the "sensor" field of a {mac}/device/sensor payload.
func SensorKind(wire string) (Kind, error) {
	switch wire {
	case "light":
		return KindLightSensor, nil
	case "air_humidity":
		return KindAirHumiditySensor, nil
	case "soil_moisture":
		return KindSoilMoistureSensor, nil
	case "air_temperature":
		return KindAirTemperatureSensor, nil
	case "signal_strenght":
		return KindSignalStrength, nil
	case "battery":
		return KindBattery, nil
	default:
		return "", fmt.Errorf("%w: sensor %q", ErrUnknownKind, wire)
	}
}

// ActuatorKind maps the "device" field of a {mac}/device/confirm payload.
func ActuatorKind(wire string) (Kind, error) {
	switch wire {
	case "water":
		return KindWaterer, nil
	case "fan":
		return KindFanner, nil
	case "atomize":
		return KindAtomizer, nil
	case "heating_mat":
		return KindHeater, nil
	default:
		return "", fmt.Errorf("%w: actuator %q", ErrUnknownKind, wire)
	}
}

// ActionKind is the requested or confirmed state of an actuator.
type ActionKind string

// Actions.
const (
	ActionOn  ActionKind = "on"
	ActionOff ActionKind = "off"
)

// ParseAction validates an action string.
func ParseAction(s string) (ActionKind, error) {
	switch ActionKind(s) {
	case ActionOn, ActionOff:
		return ActionKind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// Enabled is an actuator's confirmed state. It starts Unknown and only
// moves to On or Off when the board confirms a command.
type Enabled int

// Actuator states.
const (
	EnabledUnknown Enabled = iota
	EnabledOn
	EnabledOff
)

// EnabledFor returns the state a confirmed action leaves the actuator in.
func EnabledFor(action ActionKind) Enabled {
	if action == ActionOn {
		return EnabledOn
	}
	return EnabledOff
}

func (e Enabled) String() string {
	switch e {
	case EnabledOn:
		return "enabled"
	case EnabledOff:
		return "disabled"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state using its String form.
func (e Enabled) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// ControlCode is the numeric action id boards understand on {mac}/device/control.
type ControlCode int

// Control codes.
const (
	ControlWaterOn ControlCode = iota
	ControlWaterOff
	ControlAtomizeOn
	ControlAtomizeOff
	ControlFanOn
	ControlFanOff
	ControlHeatingMatOn
	ControlHeatingMatOff
)

// Control is the command sent to a board for one (kind, action) pair.
type Control struct {
	// Path is the command's short name, such as "water/on".
	Path string
	Code ControlCode
}

// ControlFor returns the command for switching an actuator kind on or off.
// Sensors and unknown kinds return ErrUnsupportedAction.
func ControlFor(kind Kind, action ActionKind) (Control, error) {
	on := action == ActionOn
	if !on && action != ActionOff {
		return Control{}, fmt.Errorf("%w: %s %q", ErrUnsupportedAction, kind, action)
	}

	switch kind {
	case KindWaterer:
		if on {
			return Control{"water/on", ControlWaterOn}, nil
		}
		return Control{"water/off", ControlWaterOff}, nil
	case KindAtomizer:
		if on {
			return Control{"atomizer/on", ControlAtomizeOn}, nil
		}
		return Control{"atomizer/off", ControlAtomizeOff}, nil
	case KindFanner:
		if on {
			return Control{"fan/on", ControlFanOn}, nil
		}
		return Control{"fan/off", ControlFanOff}, nil
	case KindHeater:
		if on {
			return Control{"heating-mat/on", ControlHeatingMatOn}, nil
		}
		return Control{"heating-mat/off", ControlHeatingMatOff}, nil
	default:
		return Control{}, fmt.Errorf("%w: %s %q", ErrUnsupportedAction, kind, action)
	}
}

// ParseControlPath is the inverse of ControlFor: "fan/off" -> (KindFanner, ActionOff).
func ParseControlPath(path string) (Kind, ActionKind, error) {
	target, act, ok := strings.Cut(path, "/")
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedAction, path)
	}

	action, err := ParseAction(act)
	if err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedAction, path)
	}

	var kind Kind
	switch target {
	case "water":
		kind = KindWaterer
	case "atomizer":
		kind = KindAtomizer
	case "fan":
		kind = KindFanner
	case "heating-mat":
		kind = KindHeater
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedAction, path)
	}
	return kind, action, nil
}
