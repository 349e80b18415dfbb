// Package mqtt provides MQTT client connectivity for the Plugwise bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// The stick transport, the bridge and the home-automation core never talk
// to each other directly. Each publishes to and subscribes from the broker:
//
//	Stick transport ↔ MQTT Broker ↔ Plugwise bridge ↔ MQTT Broker ↔ Core
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	err = client.Subscribe(topics.BridgeWildcard(mqtt.CategoryField, "plugwise"), 1, handler)
//	err = client.PublishJSON(topics.BridgeState("plugwise", mac), state, true)
package mqtt
