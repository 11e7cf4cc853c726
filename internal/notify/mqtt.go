// Package notify publishes mission lifecycle events over MQTT so
// downstream dashboards can react to created, completed and deleted
// missions without polling the API.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/oussamahamdaoui220-104003/ocp-suivi-mission/internal/mission"
)

const (
	eventTopic     = "missions/events"
	connectTimeout = 5 * time.Second
	publishQoS     = 0
)

// Publisher sends mission events to an MQTT broker. Publishing is
// fire-and-forget: a broker outage is logged, never surfaced to the
// caller, so the mission workflow does not depend on the broker.
type Publisher struct {
	client mqtt.Client
}

// Connect dials the broker and returns a ready publisher.
func Connect(brokerURL, clientID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timeout", brokerURL)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", brokerURL, err)
	}
	log.WithField("broker", brokerURL).Info("connected to MQTT broker")
	return &Publisher{client: client}, nil
}

// PublishMissionEvent serializes the event as JSON and publishes it on
// the shared mission topic.
func (p *Publisher) PublishMissionEvent(ev mission.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.WithError(err).Warn("failed to encode mission event")
		return
	}
	token := p.client.Publish(eventTopic, publishQoS, false, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			log.WithError(err).WithField("action", ev.Action).Warn("failed to publish mission event")
		}
	}()
}

// Close disconnects from the broker, allowing in-flight messages a
// short grace period.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
