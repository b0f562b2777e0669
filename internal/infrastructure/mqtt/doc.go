// Package mqtt provides the broker session and topic router for Garden Core.
//
// This package manages:
//   - One paho session to the broker with auto-reconnect and mutual TLS
//   - Last Will and Testament on gardencore/system/status
//   - Topic templates ({mac}/device/sensor) for subscribing and addressing
//   - Wildcard matching and a bounded per-topic message history
//   - A Router that runs every handler from a single receive loop
//
// # Architecture
//
// ESP boards publish sensor readings, actuator confirmations, pairing
// handshakes and online status to topics keyed by their MAC. The core owns
// exactly one broker session; the Router built on top of it is constructed
// once in main and passed to every component that publishes or subscribes.
//
//	ESP boards <-> MQTT Broker <-> Client <-> Router <-> handlers
//
// # Security Considerations
//
//   - TLS with client certificates is expected in production
//     (cfg.Broker.TLS plus cfg.Broker.TLSFiles)
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err // fatal: the core cannot run without the broker
//	}
//	defer client.Close()
//
//	router := mqtt.NewRouter(client, mqtt.RouterOptions{HistorySize: cfg.MQTT.HistorySize})
//	err = router.Subscribe("+/status", func(ctx context.Context, msg mqtt.Message) error {
//	    return nil
//	})
//	go router.Run(ctx)
//
//	control := mqtt.MustTemplate(mqtt.TemplateDeviceControl)
//	topic, _ := control.Concrete(map[string]string{"mac": mac})
//	router.Publish(topic, payload, 0, false)
package mqtt
