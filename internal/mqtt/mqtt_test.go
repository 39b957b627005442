package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/config"
	"github.com/tessro/entrance/internal/entrance"
)

type recordingPublisher struct {
	topic   string
	payload []byte
	err     error
}

func (p *recordingPublisher) Publish(topic string, _ byte, _ bool, payload []byte) error {
	p.topic = topic
	p.payload = payload
	return p.err
}

func TestAnnouncer(t *testing.T) {
	pub := &recordingPublisher{}
	a := NewAnnouncer(pub, "home/entrance")

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	err := a.Announce(context.Background(), entrance.Announcement{
		ID: "r1", Owner: "austin", Title: "Dirty Deeds Done Dirt Cheap", URI: "spotify:track:dd", At: at,
	})
	if err != nil {
		t.Fatalf("Announce() error = %v", err)
	}
	if pub.topic != "home/entrance/announce" {
		t.Errorf("topic = %q", pub.topic)
	}

	var got map[string]any
	if err := json.Unmarshal(pub.payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got["owner"] != "austin" || got["uri"] != "spotify:track:dd" || got["at"] != "2024-03-01T09:00:00Z" {
		t.Errorf("payload = %s", pub.payload)
	}
}

func TestAnnouncerErrors(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("not connected")}
	a := NewAnnouncer(pub, "entrance")

	if err := a.Announce(context.Background(), entrance.Announcement{}); err == nil {
		t.Error("Announce() error = nil, want publish error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Announce(ctx, entrance.Announcement{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Announce() error = %v, want context.Canceled", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.MQTTConfig{Broker: "tcp://10.0.0.2:1883", ClientID: "entrance", Username: "u"}, zap.NewNop())
	if opts.BrokerURL != "tcp://10.0.0.2:1883" || opts.ClientID != "entrance" || opts.Username != "u" {
		t.Errorf("options = %+v", opts)
	}
}

func TestBuildTLSConfig(t *testing.T) {
	cfg, err := BuildTLSConfig("", "", "")
	if err != nil || cfg != nil {
		t.Errorf("BuildTLSConfig(empty) = %v, %v; want nil, nil", cfg, err)
	}
	if _, err := BuildTLSConfig("", "cert.pem", ""); err == nil {
		t.Error("BuildTLSConfig(cert only) error = nil")
	}
	if _, err := BuildTLSConfig("/does/not/exist.pem", "", ""); err == nil {
		t.Error("BuildTLSConfig(missing CA) error = nil")
	}
}
