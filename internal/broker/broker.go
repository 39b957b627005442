// Package broker runs an MQTT broker inside the daemon so DHCP sniffers on
// other hosts have somewhere to publish without extra infrastructure.
package broker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/config"
	"github.com/tessro/entrance/internal/mqtt"
)

// DefaultListen is used when no listen address is configured.
const DefaultListen = "127.0.0.1:1883"

// Broker is an embedded mochi-mqtt server.
type Broker struct {
	log    *zap.Logger
	server *mochi.Server
	cfg    config.MQTTConfig

	started bool
}

// New builds a broker from the [mqtt] config section. Either anonymous
// access or a username must be configured.
func New(log *zap.Logger, cfg config.MQTTConfig) (*Broker, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("broker")
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = DefaultListen
	}

	server, err := newServer(log, cfg)
	if err != nil {
		return nil, err
	}
	return &Broker{log: log, server: server, cfg: cfg}, nil
}

// Start binds the listener and begins serving in the background.
func (b *Broker) Start() error {
	if b.started {
		return nil
	}
	listenerConfig := listeners.Config{ID: "entrance-tcp", Address: b.cfg.Listen}
	tlsConfig, err := mqtt.BuildTLSConfig(b.cfg.TLSCA, b.cfg.TLSCert, b.cfg.TLSKey)
	if err != nil {
		return err
	}
	listenerConfig.TLSConfig = tlsConfig

	if err := b.server.AddListener(listeners.NewTCP(listenerConfig)); err != nil {
		return fmt.Errorf("broker listen %s: %w", b.cfg.Listen, err)
	}
	if err := b.server.Serve(); err != nil {
		return fmt.Errorf("broker: %w", err)
	}
	b.started = true
	b.log.Info("embedded broker listening", zap.String("addr", b.cfg.Listen), zap.Bool("tls", tlsConfig != nil))
	return nil
}

// Run starts the broker if needed and serves until ctx is cancelled.
func (b *Broker) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return b.server.Close()
}

// URL is the address local clients should dial.
func (b *Broker) URL() string {
	return URL(b.cfg.Listen, b.cfg.TLSCert != "")
}

// URL returns a paho broker URL for a listen address.
func URL(listen string, tlsEnabled bool) string {
	scheme := "tcp"
	if tlsEnabled {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s", scheme, listen)
}

func newServer(log *zap.Logger, cfg config.MQTTConfig) (*mochi.Server, error) {
	server := mochi.New(&mochi.Options{InlineClient: true, Logger: newSlogLogger(log)})

	switch {
	case cfg.AllowAnonymous:
		if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
			return nil, err
		}
	case cfg.Username != "":
		ledger := &auth.Ledger{
			Auth: auth.AuthRules{{Username: auth.RString(cfg.Username), Password: auth.RString(cfg.Password), Allow: true}},
			ACL:  auth.ACLRules{{Username: auth.RString(cfg.Username), Filters: auth.Filters{auth.RString(cfg.TopicBase + "/#"): auth.ReadWrite}}},
		}
		if err := server.AddHook(new(auth.Hook), &auth.Options{Ledger: ledger}); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("embedded broker requires allow_anonymous or a username")
	}

	return server, nil
}
