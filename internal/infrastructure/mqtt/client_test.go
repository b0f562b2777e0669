package mqtt

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/nerrad567/gardencore/internal/infrastructure/config"
)

// Tests in this file need a Mosquitto broker on 127.0.0.1:1883.
// They are skipped with -short or when nothing is listening.

func testConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		HistorySize: DefaultHistorySize,
	}
}

func requireBroker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping broker test in short mode")
	}
	conn, err := net.DialTimeout("tcp", "127.0.0.1:1883", 500*time.Millisecond)
	if err != nil {
		t.Skipf("no MQTT broker on 127.0.0.1:1883: %v", err)
	}
	conn.Close()
}

func connectTest(t *testing.T, clientID string) *Client {
	t.Helper()
	requireBroker(t)

	client, err := Connect(testConfig(clientID))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // test cleanup
	return client
}

func TestIsConnected_ZeroClient(t *testing.T) {
	client := &Client{}
	if client.IsConnected() {
		t.Error("IsConnected() = true for zero Client, want false")
	}
}

func TestClose_ZeroClient(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestConnect(t *testing.T) {
	client := connectTest(t, "gardencore-test-connect")

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestPublish_Validation(t *testing.T) {
	client := connectTest(t, "gardencore-test-validation")

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("{}"), 0, ErrInvalidTopic},
		{"bad qos", "AA:BB/device/control", []byte("{}"), 3, ErrInvalidQoS},
		{"oversized", "AA:BB/device/control", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublish_AfterClose(t *testing.T) {
	client := connectTest(t, "gardencore-test-closed")
	client.Close() //nolint:errcheck // testing post-close behaviour

	if err := client.Publish("AA:BB/reset", []byte("{}"), 0, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := client.Subscribe("+/status", 0, func(string, []byte) error { return nil }); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestRouter_OverBroker(t *testing.T) {
	pub := connectTest(t, "gardencore-test-pub")
	sub := connectTest(t, "gardencore-test-sub")

	router := NewRouter(sub, RouterOptions{QoS: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go router.Run(ctx) //nolint:errcheck // stopped by cancel

	received := make(chan Message, 1)
	err := router.Subscribe(MustTemplate(TemplateStatus).Wildcard(), func(_ context.Context, msg Message) error {
		received <- msg
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if sub.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", sub.SubscriptionCount())
	}

	time.Sleep(100 * time.Millisecond)

	if err := pub.Publish("AA:BB/status", []byte(`{"online":true}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-received:
		if msg.Topic != "AA:BB/status" {
			t.Errorf("Topic = %q, want %q", msg.Topic, "AA:BB/status")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for routed message")
	}
}
