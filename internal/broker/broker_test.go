package broker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tessro/entrance/internal/config"
)

func TestNewRequiresAuth(t *testing.T) {
	if _, err := New(zap.NewNop(), config.MQTTConfig{}); err == nil {
		t.Fatal("New() error = nil, want auth error")
	}

	tests := []struct {
		name string
		cfg  config.MQTTConfig
	}{
		{name: "anonymous", cfg: config.MQTTConfig{AllowAnonymous: true}},
		{name: "ledger", cfg: config.MQTTConfig{Username: "sniffer", Password: "s3cret", TopicBase: "entrance"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(nil, tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if b.cfg.Listen != DefaultListen {
				t.Errorf("Listen = %q, want %q", b.cfg.Listen, DefaultListen)
			}
		})
	}
}

func TestInlinePublishSubscribe(t *testing.T) {
	server, err := newServer(zap.NewNop(), config.MQTTConfig{AllowAnonymous: true})
	if err != nil {
		t.Fatalf("newServer() error = %v", err)
	}

	received := make(chan packets.Packet, 1)
	handler := func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
		received <- pk
	}
	if err := server.Subscribe("entrance/#", 1, handler); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := server.Publish("entrance/dhcp", []byte(`{"mac":"aa:bb:cc:dd:ee:ff"}`), false, 0); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case pk := <-received:
		if string(pk.Payload) != `{"mac":"aa:bb:cc:dd:ee:ff"}` {
			t.Errorf("payload = %s", pk.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestURL(t *testing.T) {
	if got := URL("127.0.0.1:1883", false); got != "tcp://127.0.0.1:1883" {
		t.Errorf("URL() = %q", got)
	}
	if got := URL("0.0.0.0:8883", true); got != "ssl://0.0.0.0:8883" {
		t.Errorf("URL(tls) = %q", got)
	}
}

func TestSlogBridge(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := newSlogLogger(zap.New(core)).With("listener", "t1")

	log.Warn("client rejected", "client", "c1")
	log.Error("read failed", "error", "EOF")
	log.LogAttrs(context.Background(), slog.LevelDebug, "noise")

	entries := logs.AllUntimed()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Level != zap.WarnLevel || entries[0].ContextMap()["listener"] != "t1" || entries[0].ContextMap()["client"] != "c1" {
		t.Errorf("warn entry = %+v", entries[0])
	}
	if entries[1].Level != zap.DebugLevel || entries[1].Message != "client connection closed" {
		t.Errorf("EOF entry = %+v", entries[1])
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	b, err := New(zap.NewNop(), config.MQTTConfig{AllowAnonymous: true, Listen: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
