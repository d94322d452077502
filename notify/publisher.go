// Package notify publishes cellular link events to an MQTT broker.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"i4.energy/across/cellgw/cellular"
)

// ErrNoBroker is returned by Connect when no broker URL is configured.
var ErrNoBroker = errors.New("notify: no broker configured")

// Event is the JSON payload of a published link event.
type Event struct {
	Type     string    `json:"type"`
	Time     time.Time `json:"time"`
	Attempt  int       `json:"attempt,omitempty"`
	Code     int32     `json:"code,omitempty"`
	Error    string    `json:"error,omitempty"`
	Op       string    `json:"op,omitempty"`
	Class    string    `json:"class,omitempty"`
	Decision string    `json:"decision,omitempty"`
	Socket   int       `json:"socket,omitempty"`
	// Confirmed is set on socket-closed events only.
	Confirmed *bool `json:"confirmed,omitempty"`
}

// Event types.
const (
	TypeConnectAttempt = "connect_attempt"
	TypeHardwareReset  = "hardware_reset"
	TypeErrorHandled   = "error_handled"
	TypeSocketClosed   = "socket_closed"
)

// Options configures Connect.
type Options struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
	// Timeout bounds the wait for each publish acknowledgement.
	Timeout time.Duration
}

// Publisher is a cellular.Observer that publishes every event as JSON on a
// topic. Publishing never blocks the caller; acknowledgements are awaited
// in the background.
type Publisher struct {
	client  mqtt.Client
	topic   string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	inflight sync.WaitGroup
}

var _ cellular.Observer = (*Publisher)(nil)

// Connect dials the broker and returns a Publisher over the connection.
// The client reconnects on its own after the first connection.
func Connect(options Options, logger *slog.Logger) (*Publisher, error) {
	if options.Broker == "" {
		return nil, ErrNoBroker
	}
	if options.Timeout <= 0 {
		options.Timeout = 5 * time.Second
	}

	opts := mqtt.NewClientOptions().
		AddBroker(options.Broker).
		SetClientID(options.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(options.Timeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("MQTT connection lost", "error", err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("MQTT connected", "broker", options.Broker)
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(options.Timeout) {
		return nil, fmt.Errorf("connect to %s: timed out", options.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", options.Broker, err)
	}
	return NewPublisher(client, options, logger), nil
}

// NewPublisher wraps a connected client.
func NewPublisher(client mqtt.Client, options Options, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if options.Timeout <= 0 {
		options.Timeout = 5 * time.Second
	}
	return &Publisher{
		client:  client,
		topic:   options.Topic,
		qos:     options.QoS,
		timeout: options.Timeout,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *Publisher) ConnectAttempt(attempt int, err error) {
	e := Event{Type: TypeConnectAttempt, Attempt: attempt}
	if err != nil {
		e.Error = err.Error()
		e.Code = int32(cellular.CodeOf(err))
	}
	p.publish(e)
}

func (p *Publisher) HardwareReset(cause cellular.ErrorCode) {
	p.publish(Event{Type: TypeHardwareReset, Code: int32(cause), Error: cause.Error()})
}

func (p *Publisher) ErrorHandled(op cellular.Operation, code cellular.ErrorCode, class cellular.ErrorClass, decision cellular.Decision) {
	p.publish(Event{
		Type:     TypeErrorHandled,
		Code:     int32(code),
		Op:       op.String(),
		Class:    class.String(),
		Decision: decision.String(),
	})
}

func (p *Publisher) SocketClosed(socket int, ok bool) {
	p.publish(Event{Type: TypeSocketClosed, Socket: socket, Confirmed: &ok})
}

func (p *Publisher) publish(e Event) {
	e.Time = p.now().UTC()
	payload, err := json.Marshal(e)
	if err != nil {
		p.logger.Error("Failed to encode event", "type", e.Type, "error", err)
		return
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		if !token.WaitTimeout(p.timeout) {
			p.logger.Warn("Event publish timed out", "type", e.Type, "topic", p.topic)
			return
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("Event publish failed", "type", e.Type, "topic", p.topic, "error", err)
		}
	}()
}

// Close waits for pending acknowledgements and disconnects from the broker.
func (p *Publisher) Close() {
	p.inflight.Wait()
	p.client.Disconnect(250)
}
