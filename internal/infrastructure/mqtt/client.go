package mqtt

import (
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/crowdsight/crowdsight-core/internal/infrastructure/config"
)

// Client wraps the paho MQTT client with CrowdSight-specific behaviour.
//
// The client is publish-only. It maintains connection state, announces
// online/offline status on the system topic, and re-announces itself
// after every auto-reconnect. Methods are safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	// connected tracks our view of the connection state.
	// Paho has its own tracking, but we keep ours for health checks.
	connectedMu sync.RWMutex
	connected   bool

	// Lifecycle callbacks, invoked on connect/disconnect transitions.
	callbackMu   sync.RWMutex
	onConnect    func()
	onDisconnect func(error)

	loggerMu sync.RWMutex
	logger   Logger
}

// Logger is a minimal logging interface for connection events.
// *logging.Logger satisfies this interface.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Connect establishes a connection to the MQTT broker.
//
// The connection is configured with:
//   - Last Will and Testament on crowdsight/system/status
//   - Auto-reconnect with exponential backoff
//   - Online status published on connect and every reconnect
//
// Parameters:
//   - cfg: MQTT configuration (broker address, auth, QoS, reconnect policy)
//
// Returns:
//   - *Client: connected client ready for publishing
//   - error: ErrConnectionFailed if the broker is unreachable within the
//     connect timeout
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{cfg: cfg}

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		c.setConnected(true)
		c.publishOnlineStatus()

		c.callbackMu.RLock()
		callback := c.onConnect
		c.callbackMu.RUnlock()
		if callback != nil {
			callback()
		}
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.setConnected(false)

		if logger := c.getLogger(); logger != nil {
			logger.Warn("MQTT connection lost", "error", err)
		}

		c.callbackMu.RLock()
		callback := c.onDisconnect
		c.callbackMu.RUnlock()
		if callback != nil {
			callback(err)
		}
	})

	c.client = pahomqtt.NewClient(opts)

	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

// Close gracefully disconnects from the broker.
//
// A graceful offline status is published before disconnecting so that
// subscribers can distinguish a clean shutdown from a crash (which
// triggers the LWT instead). Pending operations are given a short
// quiesce period to complete.
func (c *Client) Close() {
	if c.IsConnected() {
		topic := Topics{}.SystemStatus()
		payload := buildOfflinePayload(c.cfg.Broker.ClientID)

		// Best effort: we are shutting down regardless.
		token := c.client.Publish(topic, 1, true, payload)
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setConnected(false)
}

// IsConnected reports whether the client currently has a broker connection.
func (c *Client) IsConnected() bool {
	c.connectedMu.RLock()
	defer c.connectedMu.RUnlock()
	return c.connected && c.client != nil && c.client.IsConnected()
}

// HealthCheck returns nil if the client is connected, ErrNotConnected otherwise.
// Used by the API health endpoint to report broker status.
func (c *Client) HealthCheck() error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// SetOnConnect registers a callback invoked after every successful
// connection, including auto-reconnects. Useful for re-publishing
// retained state after a broker restart.
func (c *Client) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnDisconnect registers a callback invoked when the connection is lost.
func (c *Client) SetOnDisconnect(callback func(error)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetLogger sets a logger for connection event logging.
// If not set, connection events are silently ignored.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// publishOnlineStatus announces the service as online on the status topic.
func (c *Client) publishOnlineStatus() {
	topic := Topics{}.SystemStatus()
	payload := buildOnlinePayload(c.cfg.Broker.ClientID)

	token := c.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		if logger := c.getLogger(); logger != nil {
			logger.Error("online status publish timed out", "topic", topic)
		}
		return
	}
	if err := token.Error(); err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Error("online status publish failed", "topic", topic, "error", err)
		}
	}
}

// setConnected updates the tracked connection state.
func (c *Client) setConnected(state bool) {
	c.connectedMu.Lock()
	c.connected = state
	c.connectedMu.Unlock()
}
