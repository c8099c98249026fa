// Package mqtt exports printer status snapshots to an MQTT broker as retained
// JSON messages on <prefix>/<entry_id>/state.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"thermal_printer/internal/logger"
	"thermal_printer/internal/models"
)

// ErrNotConnected is returned by PublishStatus while the client is offline.
var ErrNotConnected = errors.New("mqtt client not connected")

const (
	defaultConnectTimeout = 10 * time.Second
	disconnectQuiesceMs   = 250
)

type Config struct {
	Broker         string
	ClientID       string
	TopicPrefix    string
	Username       string
	Password       string
	QoS            byte
	ConnectTimeout time.Duration
}

// Publisher implements service.StatusPublisher over a paho client.
type Publisher struct {
	client         paho.Client
	prefix         string
	qos            byte
	connectTimeout time.Duration
	log            *logger.Logger
}

// New builds a publisher for cfg. Call Start to connect.
func New(cfg Config, log *logger.Logger) *Publisher {
	log = logger.OrNop(log).Named("mqtt")

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.OnConnect = func(paho.Client) {
		log.Infow("mqtt_connected", "broker", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Warnw("mqtt_connection_lost", "broker", cfg.Broker, "err", err)
	}

	p := NewWithClient(paho.NewClient(opts), cfg.TopicPrefix, cfg.QoS, log)
	if cfg.ConnectTimeout > 0 {
		p.connectTimeout = cfg.ConnectTimeout
	}
	return p
}

// NewWithClient wraps an existing client.
func NewWithClient(client paho.Client, prefix string, qos byte, log *logger.Logger) *Publisher {
	return &Publisher{
		client:         client,
		prefix:         strings.Trim(prefix, "/"),
		qos:            qos,
		connectTimeout: defaultConnectTimeout,
		log:            logger.OrNop(log),
	}
}

// Start connects to the broker. With connect retry enabled the client keeps
// trying in the background after a timeout, so a timeout is only logged.
func (p *Publisher) Start() error {
	token := p.client.Connect()
	if !token.WaitTimeout(p.connectTimeout) {
		p.log.Warnw("mqtt_connect_pending", "timeout", p.connectTimeout.String())
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

// Stop disconnects from the broker.
func (p *Publisher) Stop() {
	p.client.Disconnect(disconnectQuiesceMs)
}

// Topic returns the state topic of one printer.
func (p *Publisher) Topic(entryID string) string {
	if p.prefix == "" {
		return entryID + "/state"
	}
	return p.prefix + "/" + entryID + "/state"
}

// PublishStatus publishes st as a retained message and waits for delivery
// or ctx.
func (p *Publisher) PublishStatus(ctx context.Context, st models.PrinterStatus) error {
	if !p.client.IsConnected() {
		return ErrNotConnected
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}

	token := p.client.Publish(p.Topic(st.EntryID), p.qos, true, payload)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish %s: %w", p.Topic(st.EntryID), err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
