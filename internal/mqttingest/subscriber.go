// Package mqttingest lets the device publish readings over MQTT instead of
// POSTing them.
package mqttingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"weather_relay/internal/logger"
	"weather_relay/internal/models"
	"weather_relay/internal/service"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout    = 10 * time.Second
	subscribeTimeout  = 5 * time.Second
	disconnectQuiesce = 250 // ms
)

type Ingester interface {
	Ingest(ctx context.Context, in service.SensorInput) (models.Snapshot, error)
}

type Options struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	QoS      byte
}

type Subscriber struct {
	opts   Options
	ingest Ingester
	log    *logger.Logger
	client mqtt.Client
}

func New(opts Options, ingest Ingester, log *logger.Logger) *Subscriber {
	if log == nil {
		log = logger.Nop()
	}
	s := &Subscriber{opts: opts, ingest: ingest, log: log}

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	co.SetUsername(opts.Username)
	co.SetPassword(opts.Password)
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetOrderMatters(false)
	// subscriptions do not survive a clean-session reconnect
	co.SetOnConnectHandler(func(c mqtt.Client) {
		if err := s.subscribe(c); err != nil {
			s.log.Errorw("mqtt_subscribe_failed", "err", err, "topic", opts.Topic)
		}
	})
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.log.Warnw("mqtt_connection_lost", "err", err)
	})
	s.client = mqtt.NewClient(co)
	return s
}

// Start connects to the broker. Subscription happens in the connect handler.
func (s *Subscriber) Start() error {
	tok := s.client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect to %s: timed out", s.opts.Broker)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", s.opts.Broker, err)
	}
	s.log.Infow("mqtt_connected", "broker", s.opts.Broker, "topic", s.opts.Topic)
	return nil
}

func (s *Subscriber) Stop() {
	if s.client.IsConnected() {
		s.client.Unsubscribe(s.opts.Topic).WaitTimeout(subscribeTimeout)
	}
	s.client.Disconnect(disconnectQuiesce)
}

func (s *Subscriber) subscribe(c mqtt.Client) error {
	tok := c.Subscribe(s.opts.Topic, s.opts.QoS, s.handle)
	if !tok.WaitTimeout(subscribeTimeout) {
		return errors.New("subscribe timed out")
	}
	return tok.Error()
}

func (s *Subscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	if err := s.process(context.Background(), msg.Payload()); err != nil {
		s.log.Warnw("mqtt_reading_rejected", "err", err, "topic", msg.Topic())
	}
}

// process decodes a JSON reading ({"light":..,"temp":..,"humidity":..}) and ingests it.
func (s *Subscriber) process(ctx context.Context, payload []byte) error {
	var in service.SensorInput
	if err := json.Unmarshal(payload, &in); err != nil {
		return fmt.Errorf("%w: %v", service.ErrValidation, err)
	}
	_, err := s.ingest.Ingest(ctx, in)
	return err
}
