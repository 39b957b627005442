package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sort"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/arrival"
)

// Subscriber is the part of mqtt.Client the source needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler paho.MessageHandler) error
	Unsubscribe(topic string) error
}

// MQTTSource receives DHCP requests that a sniffer elsewhere publishes as
// JSON, for example
//
//	{"mac": "aa:bb:cc:dd:ee:ff", "options": {"hostname": "phone", "requested_addr": "10.0.0.23"}}
type MQTTSource struct {
	sub   Subscriber
	topic string
	log   *zap.Logger
}

// NewMQTTSource creates a source listening on topic.
func NewMQTTSource(sub Subscriber, topic string, log *zap.Logger) *MQTTSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &MQTTSource{sub: sub, topic: topic, log: log.Named("mqtt-capture")}
}

// Run implements Source.
func (s *MQTTSource) Run(ctx context.Context, sink Sink) error {
	handler := func(_ paho.Client, msg paho.Message) {
		ev, err := DecodeMQTTEvent(msg.Payload())
		if err != nil {
			s.log.Warn("dropping malformed DHCP event", zap.String("topic", msg.Topic()), zap.Error(err))
			return
		}
		deliver(ctx, sink, ev, s.log)
	}
	if err := s.sub.Subscribe(s.topic, 1, handler); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.topic, err)
	}
	s.log.Info("listening for DHCP events", zap.String("topic", s.topic))

	<-ctx.Done()
	if err := s.sub.Unsubscribe(s.topic); err != nil {
		s.log.Debug("unsubscribe failed", zap.Error(err))
	}
	return nil
}

type wireEvent struct {
	MAC     string            `json:"mac"`
	Options map[string]string `json:"options"`
}

// DecodeMQTTEvent parses a published DHCP event. The MAC must be valid.
func DecodeMQTTEvent(payload []byte) (arrival.Event, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return arrival.Event{}, fmt.Errorf("decode event: %w", err)
	}
	hw, err := net.ParseMAC(w.MAC)
	if err != nil {
		return arrival.Event{}, fmt.Errorf("decode event: %w", err)
	}

	ev := arrival.Event{SourceMAC: hw.String()}
	keys := make([]string, 0, len(w.Options))
	for k := range w.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Options = append(ev.Options, arrival.Option{Key: k, Value: w.Options[k]})
	}
	return ev, nil
}
