// Package esp handles the messages garden controller boards publish.
//
// Each inbound message family has one handler bound to a topic template:
//
//	{mac}/device/sensor   SensorHandler   readings -> store, mirror, new_reading event
//	{mac}/device/confirm  ConfirmHandler  actuator state -> store, alert, actuator_confirm event
//	{mac}/conn            ConnHandler     pairing handshake -> bind board to account
//	{mac}/status          StatusHandler   online flag -> store, mirror
//
// Payloads are inspected with gjson. A message with an unknown sensor or
// actuator name, a missing field, or no matching board or device is
// rejected with an error the router logs; nothing else happens.
//
// # Usage
//
//	emitter := esp.NewEmitter(store, hub)
//	deps := esp.Deps{Store: store, Notifier: store, Emitter: emitter, Mirror: influx, Logger: log}
//	if err := esp.Register(router, esp.Handlers(deps)...); err != nil {
//	    return err
//	}
package esp
