// Command devicesim stands in for the ESP32 weather station. It posts
// synthetic readings to the relay over HTTP or publishes them over MQTT.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/charmbracelet/log"
)

const (
	transportHTTP = "http"
	transportMQTT = "mqtt"
)

type sender interface {
	send(ctx context.Context, r reading) error
	close()
}

type httpSender struct {
	url    string
	client *http.Client
}

func (s *httpSender) send(ctx context.Context, r reading) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("relay answered %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

func (s *httpSender) close() {}

type mqttSender struct {
	client mqtt.Client
	topic  string
	qos    byte
}

func newMQTTSender(broker, clientID, topic string, qos byte) (*mqttSender, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &mqttSender{client: client, topic: topic, qos: qos}, nil
}

func (s *mqttSender) send(_ context.Context, r reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	token := s.client.Publish(s.topic, s.qos, false, payload)
	token.Wait()
	return token.Error()
}

func (s *mqttSender) close() { s.client.Disconnect(250) }

func main() {
	var (
		level     string
		transport string
		target    string
		broker    string
		topic     string
		clientID  string
		qos       int
		interval  time.Duration
		count     int
		seed      int64
	)
	flag.StringVar(&level, "level", "info", "Log level")
	flag.StringVar(&transport, "transport", transportHTTP, "http or mqtt")
	flag.StringVar(&target, "url", "http://localhost:8080/sensor-data", "Relay ingest URL (http transport)")
	flag.StringVar(&broker, "broker", "tcp://localhost:1883", "MQTT broker (mqtt transport)")
	flag.StringVar(&topic, "topic", "weather/readings", "MQTT topic (mqtt transport)")
	flag.StringVar(&clientID, "client-id", "weather-devicesim", "MQTT client id")
	flag.IntVar(&qos, "qos", 1, "MQTT QoS")
	flag.DurationVar(&interval, "interval", 10*time.Second, "Time between readings")
	flag.IntVar(&count, "count", 0, "Stop after this many readings (0 runs until interrupted)")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	if lvl, err := log.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.Fatal("failed to parse log level", "level", level, "err", err)
	}

	var s sender
	switch transport {
	case transportHTTP:
		s = &httpSender{url: target, client: &http.Client{Timeout: 5 * time.Second}}
	case transportMQTT:
		ms, err := newMQTTSender(broker, clientID, topic, byte(qos))
		if err != nil {
			log.Fatal("error connecting to MQTT broker", "broker", broker, "err", err)
		}
		log.Info("connected to MQTT broker", "broker", broker, "topic", topic)
		s = ms
	default:
		log.Fatal("unknown transport", "transport", transport)
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := newGenerator(seed)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for sent := 0; count == 0 || sent < count; {
		r := gen.next()
		if err := s.send(ctx, r); err != nil {
			log.Error("send failed", "transport", transport, "err", err)
		} else {
			sent++
			log.Debug("reading sent", "light", r.Light, "temp", r.Temp, "humidity", r.Humidity)
		}
		if count != 0 && sent >= count {
			break
		}
		select {
		case <-ctx.Done():
			log.Info("received interrupt, stopping")
			return
		case <-ticker.C:
		}
	}
	log.Info("done", "count", count)
}
