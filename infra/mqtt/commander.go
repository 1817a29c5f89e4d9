// Package mqtt delivers field commands to the response backend over MQTT.
// It implements the queue executor contract for every action kind.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/fraudops/fieldkit/core/faults"
	"github.com/fraudops/fieldkit/core/model"
	"github.com/fraudops/fieldkit/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT commander.
type Config struct {
	Broker     string          `json:"broker"`
	ClientID   string          `json:"client_id"`
	Username   string          `json:"username"`
	Password   string          `json:"password"`
	AckTopic   string          `json:"ack_topic"`
	QoS        map[string]byte `json:"qos"`
	MaxRetries int             `json:"max_retries"`
	BackoffMS  int             `json:"backoff_ms"`
	// AckTimeoutSeconds bounds the wait for a command acknowledgment.
	AckTimeoutSeconds int `json:"ack_timeout_seconds"`
}

// commandEnvelope is the wire format published for each action.
type commandEnvelope struct {
	CommandID string           `json:"command_id"`
	Kind      model.ActionKind `json:"kind"`
	CaseID    string           `json:"case_id"`
	Payload   json.RawMessage  `json:"payload,omitempty"`
	IssuedAt  time.Time        `json:"issued_at"`
}

type ackMessage struct {
	CommandID string `json:"command_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Commander publishes freeze/dispatch/message/outcome/evidence commands and
// waits for per-command acknowledgments on the ack topic.
type Commander struct {
	cli        pahoClient
	qos        map[string]byte
	maxRetries int
	backoff    time.Duration
	ackTimeout time.Duration
	logger     logger.Logger

	mu       sync.Mutex
	ackChans map[string]chan ackMessage
}

// NewCommander connects to the broker and subscribes to the ack topic.
func NewCommander(cfg Config) (*Commander, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := &Commander{
		qos:        cfg.QoS,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		ackTimeout: time.Duration(cfg.AckTimeoutSeconds) * time.Second,
		logger:     logger.New("mqtt_commander"),
		ackChans:   make(map[string]chan ackMessage),
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 3
	}
	if c.backoff <= 0 {
		c.backoff = 100 * time.Millisecond
	}
	if c.ackTimeout <= 0 {
		c.ackTimeout = 5 * time.Second
	}

	ackTopic := cfg.AckTopic
	if ackTopic == "" {
		ackTopic = "fieldops/ack"
	}
	opts.OnConnect = func(pc paho.Client) {
		c.logger.Infof("MQTT connected")
		qos := byte(0)
		if q, ok := c.qos["ack"]; ok {
			qos = q
		}
		if tok := c.cli.Subscribe(ackTopic, qos, c.handleAck); tok.Wait() && tok.Error() != nil {
			c.logger.Errorf("ack subscribe: %v", tok.Error())
		}
	}

	c.cli = newMQTTClient(opts)
	if tok := c.cli.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, faults.Transient("mqtt connect", tok.Error())
	}
	return c, nil
}

func (c *Commander) handleAck(_ paho.Client, msg paho.Message) {
	var ack ackMessage
	if err := json.Unmarshal(msg.Payload(), &ack); err != nil {
		c.logger.Warnf("malformed ack: %v", err)
		return
	}
	c.mu.Lock()
	ch, ok := c.ackChans[ack.CommandID]
	c.mu.Unlock()
	if ok {
		select {
		case ch <- ack:
		default:
		}
	}
}

// topicFor maps an action to its command topic.
func topicFor(a model.Action) string {
	return fmt.Sprintf("fieldops/case/%s/%s", a.CaseID, a.Kind)
}

// Execute publishes the action and waits for its acknowledgment. Publish
// failures and ack timeouts classify as transient; an explicit rejection
// from the backend classifies as permanent.
func (c *Commander) Execute(ctx context.Context, a model.Action) error {
	cmdID := uuid.NewString()
	env := commandEnvelope{CommandID: cmdID, Kind: a.Kind, CaseID: a.CaseID, Payload: a.Payload, IssuedAt: time.Now()}
	payload, err := json.Marshal(env)
	if err != nil {
		return faults.Wrap(faults.KindValidation, "mqtt publish", err)
	}

	topic := topicFor(a)
	qos := byte(0)
	if q, ok := c.qos["command"]; ok {
		qos = q
	}

	ch := make(chan ackMessage, 1)
	c.mu.Lock()
	c.ackChans[cmdID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.ackChans, cmdID)
		c.mu.Unlock()
	}()

	var publishErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		token := c.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			c.logger.Infof("sent command %s to %s", cmdID, topic)
			break
		}
		c.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(c.backoff * time.Duration(1<<attempt))
	}
	if publishErr != nil {
		return faults.Transient("mqtt publish", publishErr)
	}

	select {
	case ack := <-ch:
		if ack.Status != "ok" {
			return faults.Permanent("mqtt ack", fmt.Errorf("command %s rejected: %s", cmdID, ack.Reason))
		}
		return nil
	case <-time.After(c.ackTimeout):
		return faults.Transient("mqtt ack", fmt.Errorf("timeout waiting for ack of %s", cmdID))
	case <-ctx.Done():
		return faults.Transient("mqtt ack", ctx.Err())
	}
}

// Close disconnects from the broker.
func (c *Commander) Close() {
	c.cli.Disconnect(250)
}
