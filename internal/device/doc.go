// Package device models Garden Core's controller boards and the sensors and
// actuators mounted on them.
//
// An ESP board is addressed on the broker by its MAC. Each board carries at
// most one device per Kind. Sensors report readings; actuators accept
// on/off commands and report their state back through a confirmation.
//
// # Key Types
//
//   - Kind: what a device measures or drives, with exhaustive wire mappings
//     (SensorKind, ActuatorKind, ControlFor, ParseControlPath)
//   - Enabled: an actuator's confirmed tri-state (unknown, on, off)
//   - Store / Notifier: the entity storage the rest of the core depends on
//   - SQLiteStore: the reference Store over the embedded migrations
//   - Commander: publishes {mac}/device/control and board lifecycle commands
//
// # Usage
//
//	store := device.NewSQLiteStore(db.DB)
//	cmd := device.NewCommander(router, store, cfg.MQTT.QoS)
//	cmd.SetLogger(log)
//
//	esps, err := store.ESPsByGarden(ctx, gardenID)
//	if err != nil {
//	    return err
//	}
//	if err := cmd.ControlDevice(ctx, esps, device.KindWaterer, device.ActionOn); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// SQLiteStore and Commander are safe for concurrent use.
package device
