package mqtt

import (
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/itembridge/internal/infrastructure/config"
	"github.com/nerrad567/itembridge/internal/mux"
)

// Transport adapts paho.mqtt.golang to the multiplexer's transport
// contract. Paho's own auto-reconnect stays disabled: the multiplexer
// owns the reconnect policy and drives Connect itself.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Transport struct {
	client   pahomqtt.Client
	cfg      config.MQTTConfig
	drv      config.DriverConfig
	clientID string

	cb   mux.Callbacks
	cbMu sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// New builds a transport for the configured broker. No connection is
// made until Connect.
func New(cfg config.MQTTConfig, drv config.DriverConfig) *Transport {
	t := &Transport{
		cfg:      cfg,
		drv:      drv,
		clientID: buildClientID(drv),
	}

	opts := buildClientOptions(cfg, t.clientID)
	if drv.StatusTopic != "" {
		configureLWT(opts, drv.StatusTopic, t.clientID)
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		t.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		if cb := t.callbacks(); cb.OnConnectionLost != nil {
			cb.OnConnectionLost(err)
		}
	})

	t.client = pahomqtt.NewClient(opts)
	return t
}

// SetCallbacks installs the multiplexer's event hooks. Must be called
// before Connect.
func (t *Transport) SetCallbacks(cb mux.Callbacks) {
	t.cbMu.Lock()
	t.cb = cb
	t.cbMu.Unlock()
}

// SetLogger sets a logger for error and panic logging.
// If not set, handler errors are silently ignored.
func (t *Transport) SetLogger(logger Logger) {
	t.loggerMu.Lock()
	t.logger = logger
	t.loggerMu.Unlock()
}

// Connect starts one connection attempt. A successful handshake fires
// the OnConnect callback asynchronously; a failed one is returned here
// and the caller schedules the retry.
func (t *Transport) Connect() error {
	token := t.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// handleConnect runs on every (re)established session: publish the
// online status, then hand control to the multiplexer so it can
// restore its subscriptions.
func (t *Transport) handleConnect() {
	if t.drv.StatusTopic != "" {
		payload := buildOnlinePayload(t.clientID)
		t.client.Publish(t.drv.StatusTopic, 1, true, payload)
	}
	if cb := t.callbacks(); cb.OnConnect != nil {
		cb.OnConnect()
	}
}

// Disconnect gracefully releases the broker session.
//
// It performs:
//  1. Publishes graceful offline status (distinct from the LWT crash status)
//  2. Disconnects with a quiesce period for pending operations
func (t *Transport) Disconnect() {
	if t.drv.StatusTopic != "" && t.client.IsConnected() {
		payload := buildOfflinePayload(t.clientID)
		token := t.client.Publish(t.drv.StatusTopic, 1, true, payload)
		token.WaitTimeout(defaultPublishTimeout)
	}
	t.client.Disconnect(defaultDisconnectQuiesce)
}

// Subscribe registers one upstream subscription. Inbound messages for
// the topic reach the multiplexer through the OnMessage callback.
func (t *Transport) Subscribe(topic string, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	token := t.client.Subscribe(topic, qos, t.wrapHandler())
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: subscribe %s timed out", ErrSubscribeFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
	}
	return nil
}

// Unsubscribe removes one upstream subscription.
func (t *Transport) Unsubscribe(topic string) error {
	token := t.client.Unsubscribe(topic)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: unsubscribe %s timed out", ErrUnsubscribeFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnsubscribeFailed, topic, err)
	}
	return nil
}

// Publish sends one message. Delivery is fire-and-forget beyond the
// acknowledgment wait; nothing is queued for a dead session.
func (t *Transport) Publish(topic string, payload []byte, qos byte, retain bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	token := t.client.Publish(topic, qos, retain, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: publish %s timed out", ErrPublishFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

// ClientID returns the generated broker client identifier.
func (t *Transport) ClientID() string {
	return t.clientID
}

func (t *Transport) callbacks() mux.Callbacks {
	t.cbMu.RLock()
	defer t.cbMu.RUnlock()
	return t.cb
}

func (t *Transport) getLogger() Logger {
	t.loggerMu.RLock()
	defer t.loggerMu.RUnlock()
	return t.logger
}

// wrapHandler adapts paho message delivery to the multiplexer callback
// with panic recovery.
func (t *Transport) wrapHandler() pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := t.getLogger(); logger != nil {
					logger.Error("MQTT handler panic recovered",
						"topic", msg.Topic(),
						"panic", r,
					)
				}
			}
		}()

		if cb := t.callbacks(); cb.OnMessage != nil {
			cb.OnMessage(msg.Topic(), msg.Payload(), msg.Qos(), msg.Retained())
		}
	}
}
