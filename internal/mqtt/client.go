// Package mqtt connects entrance to an MQTT broker, both to receive DHCP
// events from outside sniffers and to announce entrances.
package mqtt

import (
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/config"
)

// Topic suffixes under the configured base.
const (
	TopicDHCP     = "dhcp"
	TopicAnnounce = "announce"
)

// Topic joins base and suffix.
func Topic(base, suffix string) string {
	return base + "/" + suffix
}

// Options configures the MQTT client.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	TLSCA     string
	TLSCert   string
	TLSKey    string
	Timeout   time.Duration
	Logger    *zap.Logger
}

// OptionsFromConfig maps the [mqtt] config section to client options.
func OptionsFromConfig(cfg config.MQTTConfig, log *zap.Logger) Options {
	return Options{
		BrokerURL: cfg.Broker,
		ClientID:  cfg.ClientID,
		Username:  cfg.Username,
		Password:  cfg.Password,
		TLSCA:     cfg.TLSCA,
		TLSCert:   cfg.TLSCert,
		TLSKey:    cfg.TLSKey,
		Logger:    log,
	}
}

// Client wraps a paho connection.
type Client struct {
	client paho.Client
	log    *zap.Logger
}

// NewClient connects to MQTT.
func NewClient(opts Options) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	log := opts.Logger.Named("mqtt")

	clientOpts := paho.NewClientOptions().AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)
	clientOpts.SetConnectTimeout(opts.Timeout)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Warn("mqtt connection lost", zap.Error(err))
	})
	clientOpts.SetOnConnectHandler(func(paho.Client) {
		log.Info("mqtt connected", zap.String("broker", opts.BrokerURL))
	})

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	tlsConfig, err := BuildTLSConfig(opts.TLSCA, opts.TLSCert, opts.TLSKey)
	if err != nil {
		return nil, err
	}
	if tlsConfig != nil {
		clientOpts.SetTLSConfig(tlsConfig)
	}

	client := paho.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return &Client{client: client, log: log}, nil
}

// Publish publishes a message.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	c.log.Debug("mqtt publish", zap.String("topic", topic), zap.Int("bytes", len(payload)))
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Subscribe subscribes to a topic.
func (c *Client) Subscribe(topic string, qos byte, handler paho.MessageHandler) error {
	c.log.Debug("mqtt subscribe", zap.String("topic", topic))
	wrapped := func(client paho.Client, msg paho.Message) {
		c.log.Debug("mqtt message", zap.String("topic", msg.Topic()), zap.Int("bytes", len(msg.Payload())))
		handler(client, msg)
	}
	token := c.client.Subscribe(topic, qos, wrapped)
	token.Wait()
	return token.Error()
}

// Unsubscribe unsubscribes from a topic.
func (c *Client) Unsubscribe(topic string) error {
	c.log.Debug("mqtt unsubscribe", zap.String("topic", topic))
	token := c.client.Unsubscribe(topic)
	token.Wait()
	return token.Error()
}

// Close disconnects, giving in-flight messages a moment to drain.
func (c *Client) Close() {
	c.client.Disconnect(250)
}
