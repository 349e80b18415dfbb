//go:build integration

package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// Integration tests against a live broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -count=1 -v ./internal/infrastructure/mqtt/...

func connectTest(t *testing.T, clientID string) *Client {
	t.Helper()
	cfg := testConfig()
	cfg.Broker.ClientID = clientID

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect(%s) error = %v", clientID, err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

func TestIntegration_Connect(t *testing.T) {
	client := connectTest(t, "plugwise-int-connect")

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(t.Context()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19998

	_, err := Connect(cfg)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestIntegration_Close(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "plugwise-int-close"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.Publish("graylogic/int/closed", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() after Close() error = %v, want ErrNotConnected", err)
	}
}

func TestIntegration_SubscriptionTracking(t *testing.T) {
	client := connectTest(t, "plugwise-int-sub-track")
	handler := func(string, []byte) error { return nil }

	topics := []string{
		Topics{}.BridgeWildcard(CategoryField, "plugwise"),
		Topics{}.BridgeWildcard(CategoryCalibration, "plugwise"),
		Topics{}.BridgeWildcard(CategoryCommand, "plugwise"),
	}
	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, handler); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", topic, err)
		}
	}
	if client.SubscriptionCount() != len(topics) {
		t.Errorf("SubscriptionCount() = %d, want %d", client.SubscriptionCount(), len(topics))
	}

	if err := client.Unsubscribe(topics[0]); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if client.HasSubscription(topics[0]) {
		t.Error("HasSubscription() = true after Unsubscribe()")
	}
}

func TestIntegration_WildcardRoundtrip(t *testing.T) {
	pub := connectTest(t, "plugwise-int-pub")
	sub := connectTest(t, "plugwise-int-sub")

	var mu sync.Mutex
	received := make(map[string]string)
	done := make(chan struct{})
	macs := []string{"000D6F0000B1B64B", "000D6F0000B1B64C"}

	err := sub.Subscribe(Topics{}.BridgeWildcard(CategoryState, "plugwise"), 1, func(topic string, payload []byte) error {
		mu.Lock()
		defer mu.Unlock()
		received[topic] = string(payload)
		if len(received) == len(macs) {
			close(done)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	for _, mac := range macs {
		if err := pub.PublishJSON(Topics{}.BridgeState("plugwise", mac), map[string]string{"mac": mac}, false); err != nil {
			t.Fatalf("PublishJSON() error = %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for state messages")
	}

	mu.Lock()
	defer mu.Unlock()
	for _, mac := range macs {
		want := `{"mac":"` + mac + `"}`
		if got := received[Topics{}.BridgeState("plugwise", mac)]; got != want {
			t.Errorf("payload for %s = %q, want %q", mac, got, want)
		}
	}
}

func TestIntegration_HandlerErrorLogged(t *testing.T) {
	client := connectTest(t, "plugwise-int-handler-err")
	logger := &mockLogger{}
	client.SetLogger(logger)

	called := make(chan struct{}, 1)
	topic := "graylogic/int/handler-error"
	err := client.Subscribe(topic, 1, func(string, []byte) error {
		called <- struct{}{}
		return errors.New("handler error")
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := client.Publish(topic, []byte("x"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case <-called:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}

	// The warning is logged after the handler returns.
	time.Sleep(50 * time.Millisecond)
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) == 0 {
		t.Error("handler error was not logged")
	}
}
