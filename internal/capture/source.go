// Package capture produces arrival events from DHCP traffic, either by
// sniffing an interface or by listening to sniffers that publish over MQTT.
package capture

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/arrival"
	"github.com/tessro/entrance/internal/config"
	"github.com/tessro/entrance/internal/mqtt"
)

// Source names accepted in [capture] source.
const (
	SourcePcap = "pcap"
	SourceMQTT = "mqtt"
)

// Sink receives decoded events. Errors are logged by the source and do not
// stop capture.
type Sink func(ctx context.Context, ev arrival.Event) error

// Source delivers DHCP request events to a sink until ctx is done.
type Source interface {
	Run(ctx context.Context, sink Sink) error
}

// New builds the configured source. sub is only used by the mqtt source and
// may be nil otherwise.
func New(cfg *config.Config, sub Subscriber, log *zap.Logger) (Source, error) {
	switch cfg.Capture.Source {
	case SourcePcap, "":
		return NewPcapSource(cfg.Capture.Interface, cfg.Capture.Snaplen, log), nil
	case SourceMQTT:
		if sub == nil {
			return nil, fmt.Errorf("capture source %q needs an MQTT connection", SourceMQTT)
		}
		return NewMQTTSource(sub, mqtt.Topic(cfg.MQTT.TopicBase, mqtt.TopicDHCP), log), nil
	default:
		return nil, fmt.Errorf("unknown capture source %q", cfg.Capture.Source)
	}
}

func deliver(ctx context.Context, sink Sink, ev arrival.Event, log *zap.Logger) {
	log.Info("DHCP request",
		zap.String("mac", ev.SourceMAC),
		zap.String("requested_addr", ev.RequestedAddr()),
		zap.String("hostname", ev.Hostname()))
	if err := sink(ctx, ev); err != nil {
		log.Error("handling arrival failed", zap.String("mac", ev.SourceMAC), zap.Error(err))
	}
}
