package main

import (
	// stdlib
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"time"

	// internal
	"github.com/Robogera/follow/pkg/config"

	// external
	mqtt "github.com/soypat/natiu-mqtt"
)

// mqttclient publishes target events (acquired/switched) so other
// systems on the site bus can react to who the rig is following
func mqttclient(
	ctx context.Context,
	parent_logger *slog.Logger,
	cfg *config.ConfigFile,
	events_chan <-chan Event,
) error {

	logger := parent_logger.With("coroutine", "mqttclient")

	client := mqtt.NewClient(
		mqtt.ClientConfig{
			Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, cfg.Mqtt.BufferBytes)},
			OnPub: func(pubHead mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
				message, err := io.ReadAll(r)
				if err != nil {
					return err
				}
				logger.Debug("Received", "header", pubHead.String(), "message", message)
				return nil
			},
		})

	connection, err := net.Dial("tcp", cfg.Mqtt.Broker)
	if err != nil {
		logger.Error("Can't reach broker", "broker", cfg.Mqtt.Broker, "error", err)
		return err
	}

	connection_ctx, cancel := context.WithTimeout(
		ctx, time.Second*time.Duration(cfg.Mqtt.TimeoutSec))
	defer cancel()
	err = client.Connect(connection_ctx, connection, &mqtt.VariablesConnect{
		ClientID:  []byte(cfg.Mqtt.ClientId),
		KeepAlive: uint16(cfg.Mqtt.KeepaliveSec),
	})
	if err != nil {
		logger.Error("Can't connect to broker", "broker", cfg.Mqtt.Broker, "error", err)
		return err
	}
	logger.Info("Connected", "broker", cfg.Mqtt.Broker, "topic", cfg.Mqtt.Topic)

	pub_flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return err
	}

	var packet_id uint16 = 1

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cancelled by context")
			return context.Canceled
		case event := <-events_chan:
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Warn("Can't marshal event", "error", err)
				continue
			}
			err = client.PublishPayload(pub_flags, mqtt.VariablesPublish{
				TopicName:        []byte(cfg.Mqtt.Topic),
				PacketIdentifier: packet_id,
			}, payload)
			if err != nil {
				// the site bus going down must not stop tracking
				logger.Warn("Can't publish event", "error", err)
				continue
			}
			packet_id++
			logger.Debug("Published", "event", event.Kind, "id", event.Id)
		}
	}
}

// drainevents keeps the pipeline moving when mqtt is disabled
func drainevents(ctx context.Context, events_chan <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case <-events_chan:
		}
	}
}
